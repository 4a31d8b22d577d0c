package gamemanager

import (
	"github.com/glushul/SmartGuysSmartGirls/internal/domain/entity"
)

// NextCurrent выбирает следующего отвечающего.
//
// Уровни обходятся по кругу 4 → 3 → 2 → 4, начиная с уровня, следующего за
// уровнем current. Проверяется не больше одного полного круга, так что сам
// current может получить ход снова, если остальные выбыли. Выбывшие
// участники пропускаются. nil означает, что ходить больше некому.
func NextCurrent(roster []entity.Participant, current *entity.Participant) *entity.Participant {
	if current == nil {
		return nil
	}

	start := levelIndex(current.Level)
	if start < 0 {
		return nil
	}

	for step := 1; step <= len(entity.Levels); step++ {
		level := entity.Levels[(start+step)%len(entity.Levels)]
		candidate := byLevel(roster, level)
		if candidate != nil && !candidate.IsEliminated() {
			return candidate
		}
	}
	return nil
}

func levelIndex(level int) int {
	for i, l := range entity.Levels {
		if l == level {
			return i
		}
	}
	return -1
}

func byLevel(roster []entity.Participant, level int) *entity.Participant {
	for i := range roster {
		if roster[i].Level == level {
			return &roster[i]
		}
	}
	return nil
}

// freeLevels возвращает незанятые уровни по возрастанию
func freeLevels(roster []entity.Participant) []int {
	free := make([]int, 0, len(entity.Levels))
	for _, level := range []int{entity.LevelRed, entity.LevelYellow, entity.LevelGreen} {
		if byLevel(roster, level) == nil {
			free = append(free, level)
		}
	}
	return free
}
