package sheets

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/crm-sheets/internal/model"
	"github.com/shopspring/decimal"
)

// Summary labels.
const (
	summaryTitle      = "Сводка отчёта"
	dealsSummaryTitle = "Сводка по сделкам"
	periodLabel       = "Период:"
	statusesLabel     = "Статусы:"
	totalLabel        = "Всего записей:"
	doneLabel         = "Выполнено:"
	notDoneLabel      = "Не выполнено:"
	dealStatusLabel   = "Статус"
	dealCountLabel    = "Кол-во"
	dealSumLabel      = "Сумма"
)

var dealStatusTitles = map[string]string{
	model.DealStatusDraft:      "Черновик",
	model.DealStatusInProgress: "В работе",
	model.DealStatusWon:        "Выиграно",
	model.DealStatusLost:       "Проиграно",
}

// period returns the earliest and latest creation dates, or placeholders when none are set.
func period(rows Rows) (string, string) {
	var lo, hi time.Time
	for i := 0; i < rows.Len(); i++ {
		t := rows.createdAt(i)
		if t.IsZero() {
			continue
		}
		if lo.IsZero() || t.Before(lo) {
			lo = t
		}
		if hi.IsZero() || t.After(hi) {
			hi = t
		}
	}
	if lo.IsZero() {
		return placeholder, placeholder
	}
	return lo.Format(cellDateLayout), hi.Format(cellDateLayout)
}

func (r ClientRows) summary() [][]any {
	from, to := period(r)
	counts := make(map[string]int)
	for _, c := range r {
		counts[c.Status]++
	}
	return [][]any{
		{summaryTitle},
		{periodLabel, from, to},
		{statusesLabel, statusLine(counts)},
		{totalLabel, len(r)},
	}
}

func (r DealRows) summary() [][]any {
	from, to := period(r)
	counts := make(map[string]int)
	sums := make(map[string]decimal.Decimal)
	for _, d := range r {
		st := d.Status
		if st == "" {
			st = model.DealStatusDraft
		}
		counts[st]++
		sums[st] = sums[st].Add(dealAmount(d))
	}

	statusRow := []any{dealStatusLabel}
	countRow := []any{dealCountLabel}
	sumRow := []any{dealSumLabel}
	for _, st := range model.DealStatuses {
		statusRow = append(statusRow, dealStatusTitles[st])
		countRow = append(countRow, counts[st])
		sumRow = append(sumRow, sums[st].Round(2).InexactFloat64())
	}

	return [][]any{
		{dealsSummaryTitle},
		{periodLabel, from, to},
		statusRow,
		countRow,
		sumRow,
		{totalLabel, len(r)},
	}
}

// dealAmount treats missing and non-finite amounts as zero.
func dealAmount(d model.Deal) decimal.Decimal {
	if d.Amount == nil || math.IsNaN(*d.Amount) || math.IsInf(*d.Amount, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*d.Amount)
}

func (r TaskRows) summary() [][]any {
	from, to := period(r)
	done := 0
	for _, t := range r {
		if t.IsCompleted {
			done++
		}
	}
	return [][]any{
		{summaryTitle},
		{periodLabel, from, to},
		{doneLabel, done, notDoneLabel, len(r) - done},
		{totalLabel, len(r)},
	}
}

// statusLine renders per-status counts as "active: 2, archived: 1".
func statusLine(counts map[string]int) string {
	if len(counts) == 0 {
		return placeholder
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		label := k
		if label == "" {
			label = placeholder
		}
		parts = append(parts, label+": "+strconv.Itoa(counts[k]))
	}
	return escapeFormula(strings.Join(parts, ", "))
}
