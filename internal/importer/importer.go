// Package importer загружает вопросы викторины из книги Excel.
//
// Ожидаемый формат листа: заголовок и строки (тема, вопрос, ответ, правильный).
// Подряд идущие строки с одинаковыми темой и вопросом образуют один вопрос.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/glushul/SmartGuysSmartGirls/internal/domain/entity"
	"github.com/glushul/SmartGuysSmartGirls/internal/handler/dto"
	apperrors "github.com/glushul/SmartGuysSmartGirls/internal/pkg/errors"
)

// Row - вопрос из книги вместе с названием темы
type Row struct {
	Theme    string
	Question dto.QuestionInput
}

// Catalog - часть сервиса вопросов, нужная импорту
type Catalog interface {
	ListThemes(ctx context.Context) ([]entity.Theme, error)
	CreateTheme(ctx context.Context, title string) (*entity.Theme, error)
	CreateQuestions(ctx context.Context, inputs []dto.QuestionInput) ([]uint, error)
}

// Result - итог импорта
type Result struct {
	ThemesCreated int
	QuestionIDs   []uint
}

// ParseWorkbook читает лист sheet; пустое имя означает первый лист
func ParseWorkbook(r io.Reader, sheet string) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	var out []Row
	for i, cells := range rows {
		if i == 0 {
			continue // заголовок
		}
		line := i + 1
		for len(cells) < 4 {
			cells = append(cells, "")
		}
		theme := strings.TrimSpace(cells[0])
		question := strings.TrimSpace(cells[1])
		answer := strings.TrimSpace(cells[2])
		if theme == "" && question == "" && answer == "" {
			continue
		}
		if theme == "" || question == "" || answer == "" {
			return nil, fmt.Errorf("line %d: theme, question and answer are required: %w", line, apperrors.ErrValidation)
		}
		correct, err := parseBool(cells[3])
		if err != nil {
			return nil, fmt.Errorf("line %d: %v: %w", line, err, apperrors.ErrValidation)
		}

		n := len(out)
		if n == 0 || out[n-1].Theme != theme || out[n-1].Question.Title != question {
			out = append(out, Row{Theme: theme, Question: dto.QuestionInput{Title: question}})
			n++
		}
		out[n-1].Question.Answers = append(out[n-1].Question.Answers, dto.AnswerInput{Title: answer, IsCorrect: correct})
	}
	return out, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "нет", "no":
		return false, nil
	case "1", "true", "да", "yes", "+":
		return true, nil
	default:
		return false, fmt.Errorf("is_correct: unexpected value %q", s)
	}
}

// Import создает недостающие темы и затем все вопросы одним пакетом
func Import(ctx context.Context, catalog Catalog, rows []Row, log *logrus.Entry) (*Result, error) {
	themes, err := catalog.ListThemes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list themes: %w", err)
	}
	ids := make(map[string]uint, len(themes))
	for _, t := range themes {
		ids[t.Title] = t.ID
	}

	result := &Result{}
	inputs := make([]dto.QuestionInput, 0, len(rows))
	for _, row := range rows {
		id, ok := ids[row.Theme]
		if !ok {
			theme, err := catalog.CreateTheme(ctx, row.Theme)
			if err != nil && !errors.Is(err, apperrors.ErrConflict) {
				return nil, fmt.Errorf("create theme %q: %w", row.Theme, err)
			}
			if err != nil {
				// Тему успели создать параллельно
				if id, err = lookupTheme(ctx, catalog, row.Theme); err != nil {
					return nil, err
				}
			} else {
				id = theme.ID
				result.ThemesCreated++
				log.WithField("theme", row.Theme).Info("[Importer] Создана тема")
			}
			ids[row.Theme] = id
		}
		q := row.Question
		q.ThemeID = id
		inputs = append(inputs, q)
	}

	if len(inputs) == 0 {
		return result, nil
	}
	result.QuestionIDs, err = catalog.CreateQuestions(ctx, inputs)
	if err != nil {
		return nil, fmt.Errorf("create questions: %w", err)
	}
	return result, nil
}

func lookupTheme(ctx context.Context, catalog Catalog, title string) (uint, error) {
	themes, err := catalog.ListThemes(ctx)
	if err != nil {
		return 0, fmt.Errorf("list themes: %w", err)
	}
	for _, t := range themes {
		if t.Title == title {
			return t.ID, nil
		}
	}
	return 0, fmt.Errorf("theme %q: %w", title, apperrors.ErrNotFound)
}
