package gamemanager

import (
	"fmt"
	"strings"

	"github.com/glushul/SmartGuysSmartGirls/internal/domain/entity"
)

const (
	textInvalidNumber    = "Укажите корректное число (например, 30)."
	textWaitingPlayers   = "Ждем присоединения игроков, напишите /join для присоединения."
	textAlreadyJoined    = "Вы уже присоединены к игре"
	textNoWinner         = "В этой игре никто не выиграл!"
	textNoThemes         = "Нет ни одной темы с вопросами, игра не может начаться."
	textQuestionInactive = "Этот вопрос не актуален"
	textNotYourTurn      = "Сейчас не ваш ход!"
	textAnswerAccepted   = "Ваш ответ принят"
	textTimeIsUp         = "Время вышло! Штрафной балл!"
	textNoGames          = "В этом чате еще не было игр. Напишите /start, чтобы начать."
)

func textAskAnswerTime(max int) string {
	return fmt.Sprintf("Укажите время ответа на вопрос в секундах (max - %d секунд).", max)
}

func textTooLarge(max int) string {
	return fmt.Sprintf("Укажите число меньшее или равное %d.", max)
}

func textJoinProgress(joined int) string {
	return fmt.Sprintf("%d/%d игроков присоединились к игре", joined, entity.PlayersPerGame)
}

func textGameStarted(theme string, lines []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Игра началась! Тема игры: %s\n", theme)
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func textQuestion(name, title string) string {
	return fmt.Sprintf("%s, %s", name, strings.ToLower(title))
}

func textCorrect(answer string) string {
	return fmt.Sprintf("«%s» - это правильный ответ!", answer)
}

func textIncorrect(answer string) string {
	return fmt.Sprintf("«%s» - это неправильный ответ! Штрафной балл!", answer)
}

func textEliminated(name string) string {
	return fmt.Sprintf("%s, вы потратили все свои штрафные очки. Вы проиграли.", name)
}

func textWinner(name string, points int) string {
	return fmt.Sprintf("Поздравляю, %s победитель! +%d балла", name, points)
}

func textScoreLine(name string, p *entity.Participant, total int64) string {
	status := ""
	switch {
	case p.HasWon():
		status = " 🏆"
	case p.IsEliminated():
		status = " ❌"
	case p.Current:
		status = " ⏳"
	}
	return fmt.Sprintf("%s - %s: верно %d, неверно %d, всего очков %d%s",
		name, entity.LevelTitle(p.Level), p.CorrectAnswers, p.IncorrectAnswers, total, status)
}

func textScore(game *entity.Game, lines []string) string {
	var b strings.Builder
	if game.IsEnded() {
		b.WriteString("Итоги последней игры:\n")
	} else {
		b.WriteString("Счет текущей игры:\n")
	}
	if len(lines) == 0 {
		b.WriteString("Пока никто не присоединился.")
		return b.String()
	}
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}

// textGreeting - правила игры; показываются при добавлении бота и по /info
func textGreeting(botName string) string {
	start := "/start"
	if botName != "" {
		start = "/start@" + botName
	}
	return "Привет! Я бот Умники и Умницы, и рад быть здесь!\n" +
		"Чтобы начать игру, напиши команду " + start + ". Следуй инструкциям, и мы начнем!\n\n" +
		"Как это работает:\n\n" +
		"1. Запуск игры и присоединение:\n" +
		"Администратор чата запускает игру, после чего каждый игрок может присоединиться командой /join. " +
		"В игре может участвовать максимум 3 игрока.\n\n" +
		"2. Назначение уровней:\n" +
		"Бот случайным образом назначает каждому игроку уровень сложности от 2 до 4.\n" +
		"Уровень сложности определяет количество вопросов, на которые игрок должен ответить:\n" +
		"   - Уровень 2: 2 вопроса\n" +
		"   - Уровень 3: 3 вопроса\n" +
		"   - Уровень 4: 4 вопроса\n\n" +
		"3. Штрафные очки:\n" +
		"Количество возможных ошибок (штрафных очков) у каждого игрока зависит от уровня сложности:\n" +
		"   - Игроки с уровнем 2 не имеют штрафных очков и должны ответить правильно на все вопросы.\n" +
		"   - Игроки с уровнем 3 могут ошибиться один раз (1 штрафное очко).\n" +
		"   - Игроки с уровнем 4 могут ошибиться дважды (2 штрафных очка).\n\n" +
		"4. Выбывание:\n" +
		"Если игрок исчерпывает свои штрафные очки, он выбывает из игры.\n\n" +
		"5. Победа:\n" +
		"Игра состоит максимум из 4 раундов, в каждом раунде задается один вопрос каждому игроку. " +
		"Игра заканчивается, когда кто-то успешно отвечает на все вопросы, допустив при этом не больше штрафных очков, чем это позволяет его уровень. " +
		"Этот игрок становится победителем!\n\n" +
		"Напиши " + start + ", чтобы присоединиться и начать игру! 🎉"
}
