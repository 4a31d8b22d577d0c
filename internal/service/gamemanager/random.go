package gamemanager

import (
	"math/rand/v2"
	"sync"
)

// lockedRandom делает *rand.Rand безопасным для параллельных шардов
type lockedRandom struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRandom создает источник случайности с заданным зерном
func NewRandom(seed uint64) Random {
	return &lockedRandom{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (l *lockedRandom) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

func (l *lockedRandom) Shuffle(n int, swap func(i, j int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.r.Shuffle(n, swap)
}
