package export

import (
	"strconv"
	"time"

	"github.com/Spok95/family-score/internal/models"
)

const (
	SheetSummary   = "Итого"
	SheetIncreases = "Начисления"
	SheetExchanges = "Обмены"
)

// LedgerSheets: итог по баллам, затем начисления и обмены в порядке журнала.
func LedgerSheets(increases []models.ScoreIncrease, exchanges []models.ScoreExchange, loc *time.Location) []SheetSpec {
	if loc == nil {
		loc = time.UTC
	}
	var awarded, spent int
	for _, r := range increases {
		awarded += r.Points
	}
	for _, r := range exchanges {
		spent += r.CostPoints
	}
	sum := SheetSpec{
		Title:  SheetSummary,
		Header: []string{"Показатель", "Баллы"},
		Rows: [][]string{
			{"Начислено", strconv.Itoa(awarded)},
			{"Потрачено", strconv.Itoa(spent)},
			{"Доступно", strconv.Itoa(awarded - spent)},
		},
	}

	inc := SheetSpec{
		Title:  SheetIncreases,
		Header: []string{"Дата", "Проект", "Задача", "Баллы"},
	}
	for _, r := range increases {
		inc.Rows = append(inc.Rows, []string{
			r.CreatedAt.In(loc).Format("02.01.2006 15:04"),
			deref(r.ProjectLevel1Name),
			strconv.FormatInt(r.TaskID, 10),
			strconv.Itoa(r.Points),
		})
	}

	ex := SheetSpec{
		Title:  SheetExchanges,
		Header: []string{"Дата", "Награда", "Стоимость"},
	}
	for _, r := range exchanges {
		ex.Rows = append(ex.Rows, []string{
			r.CreatedAt.In(loc).Format("02.01.2006 15:04"),
			deref(r.RewardOptionName),
			strconv.Itoa(r.CostPoints),
		})
	}
	return []SheetSpec{sum, inc, ex}
}

// LedgerWorkbook: готовый xlsx журнала.
func LedgerWorkbook(increases []models.ScoreIncrease, exchanges []models.ScoreExchange, loc *time.Location) ([]byte, error) {
	wb, err := NewWorkbook(LedgerSheets(increases, exchanges, loc))
	if err != nil {
		return nil, err
	}
	defer func() { _ = wb.File.Close() }()
	return wb.Bytes()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
