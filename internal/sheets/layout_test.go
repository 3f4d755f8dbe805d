package sheets

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/Veraticus/crm-sheets/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func int64Ptr(i int64) *int64 { return &i }

func timePtr(t time.Time) *time.Time { return &t }

func testClients() ClientRows {
	base := time.Date(2025, 1, 10, 9, 30, 0, 0, time.UTC)
	return ClientRows{
		{ID: 3, Name: "Gamma", Status: model.ClientStatusArchived, CreatedAt: base.AddDate(0, 0, 5), UpdatedAt: base.AddDate(0, 0, 5)},
		{ID: 1, Name: "Alpha", Email: strPtr("a@example.com"), Status: model.ClientStatusActive, Notes: strPtr("=1+1"), CreatedAt: base, UpdatedAt: base},
		{ID: 2, Name: "Beta", Phone: strPtr("+7 999 000"), Status: model.ClientStatusActive, CreatedAt: base.AddDate(0, 0, 2), UpdatedAt: base},
	}
}

func testDeals() DealRows {
	base := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	return DealRows{
		{ID: 1, Title: "First", Amount: floatPtr(100), Status: model.DealStatusDraft, CreatedAt: base},
		{ID: 2, Title: "Second", Amount: floatPtr(200), Status: model.DealStatusDraft, CreatedAt: base.AddDate(0, 1, 0)},
		{ID: 3, Title: "Third", Amount: floatPtr(300), ClientID: int64Ptr(7), Status: model.DealStatusWon, CreatedAt: base.AddDate(0, 0, 3)},
	}
}

func testTasks() TaskRows {
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	return TaskRows{
		{ID: 2, Title: "Call back", IsCompleted: true, DueDate: timePtr(base.AddDate(0, 0, 7)), CreatedAt: base},
		{ID: 1, Title: "Send offer", Description: strPtr("@mention"), DealID: int64Ptr(4), CreatedAt: base.AddDate(0, 0, 1)},
	}
}

func assertRectangular(t *testing.T, layout *Layout) {
	t.Helper()
	for i, row := range layout.Values {
		if len(row) != layout.Width {
			t.Fatalf("row %d has %d cells, want %d", i, len(row), layout.Width)
		}
	}
}

func TestBuildLayout_Rectangular(t *testing.T) {
	inputs := []Rows{
		testClients(), testDeals(), testTasks(),
		ClientRows{}, DealRows{}, TaskRows{},
		ClientRows(nil),
	}

	for _, rows := range inputs {
		t.Run(string(rows.Section()), func(t *testing.T) {
			layout := BuildLayout(rows)
			assertRectangular(t, layout)
			assert.Equal(t, len(layout.HeaderRow), layout.Width)
			assert.Equal(t, 1+len(layout.SummaryRows)+1, layout.HeaderRowIndex)
			assert.Equal(t, layout.HeaderRowIndex+1+layout.DataRowCount, len(layout.Values))
			assert.Len(t, layout.StatusValues, layout.DataRowCount)
		})
	}
}

func TestBuildLayout_SectionOffsets(t *testing.T) {
	clients := BuildLayout(testClients())
	assert.Equal(t, 6, clients.HeaderRowIndex)
	assert.Equal(t, 5, clients.StatusColumn)
	assert.Equal(t, "Статус", clients.HeaderRow[clients.StatusColumn])

	deals := BuildLayout(testDeals())
	assert.Equal(t, 8, deals.HeaderRowIndex)
	assert.Equal(t, 5, deals.StatusColumn)
	assert.Equal(t, "Статус", deals.HeaderRow[deals.StatusColumn])

	tasks := BuildLayout(testTasks())
	assert.Equal(t, 6, tasks.HeaderRowIndex)
	assert.Equal(t, 6, tasks.StatusColumn)
	assert.Equal(t, "Выполнено", tasks.HeaderRow[tasks.StatusColumn])
}

func TestBuildLayout_TitleAndHeader(t *testing.T) {
	layout := BuildLayout(testClients())

	assert.Equal(t, "CRM — Отчёт Клиенты", layout.Title)
	assert.Equal(t, layout.Title, layout.Values[0][0])
	assert.Equal(t, "", layout.Values[0][1])
	assert.Equal(t, []any{"№", "ID", "Имя", "Email", "Телефон", "Статус", "Заметки", "Создан", "Обновлён"}, layout.HeaderRow)

	blank := layout.Values[layout.HeaderRowIndex-1]
	for _, cell := range blank {
		assert.Equal(t, "", cell)
	}
}

func TestBuildLayout_SortsByIDAndNumbersRows(t *testing.T) {
	input := testClients()
	layout := BuildLayout(input)

	first := layout.FirstDataRowIndex()
	for i := 0; i < layout.DataRowCount; i++ {
		row := layout.Values[first+i]
		assert.Equal(t, i+1, row[0], "row number")
		assert.Equal(t, int64(i+1), row[1], "id")
	}
	assert.Equal(t, []string{"active", "active", "archived"}, layout.StatusValues)

	// The caller's slice keeps its original order.
	assert.Equal(t, int64(3), input[0].ID)
}

func TestBuildLayout_EscapesFormulas(t *testing.T) {
	layout := BuildLayout(testClients())
	alpha := layout.Values[layout.FirstDataRowIndex()]

	assert.Equal(t, "'=1+1", alpha[6])

	beta := layout.Values[layout.FirstDataRowIndex()+1]
	assert.Equal(t, "'+7 999 000", beta[4])

	tasks := BuildLayout(testTasks())
	first := tasks.Values[tasks.FirstDataRowIndex()]
	assert.Equal(t, "'@mention", first[3])
}

func TestEscapeFormula(t *testing.T) {
	tests := map[string]string{
		"=SUM(A1)": "'=SUM(A1)",
		"+1":       "'+1",
		"-5":       "'-5",
		"@user":    "'@user",
		"plain":    "plain",
		"a=b":      "a=b",
		"":         "",
	}
	for in, want := range tests {
		assert.Equal(t, want, escapeFormula(in), "input %q", in)
	}
}

func TestBuildLayout_TruncatesFreeText(t *testing.T) {
	long := strings.Repeat("ж", MaxTextLength+100)
	rows := ClientRows{{ID: 1, Name: "Long", Status: "active", Notes: &long}}

	layout := BuildLayout(rows)
	notes, ok := layout.Values[layout.FirstDataRowIndex()][6].(string)
	require.True(t, ok)
	assert.Equal(t, MaxTextLength, utf8.RuneCountInString(notes))

	desc := "=" + strings.Repeat("x", MaxTextLength+10)
	tasks := BuildLayout(TaskRows{{ID: 1, Title: "t", Description: &desc}})
	cell, ok := tasks.Values[tasks.FirstDataRowIndex()][3].(string)
	require.True(t, ok)
	assert.Equal(t, "'"+desc[:MaxTextLength], cell, "the quote is added after cutting to length")
}

func TestBuildLayout_DealsSummary(t *testing.T) {
	layout := BuildLayout(testDeals())

	require.Len(t, layout.SummaryRows, 6)
	statusRow := layout.SummaryRows[2]
	countRow := layout.SummaryRows[3]
	sumRow := layout.SummaryRows[4]

	assert.Equal(t, "Статус", statusRow[0])
	assert.Equal(t, "Черновик", statusRow[1])
	assert.Equal(t, "Выиграно", statusRow[3])

	assert.Equal(t, 2, countRow[1])
	assert.Equal(t, 300.0, sumRow[1])
	assert.Equal(t, 1, countRow[3])
	assert.Equal(t, 300.0, sumRow[3])
	assert.Equal(t, 0, countRow[2])
	assert.Equal(t, 0.0, sumRow[4])

	assert.Equal(t, []any{"Период:", "2025-02-01", "2025-03-01"}, layout.SummaryRows[1][:3])
	assert.Equal(t, 3, layout.SummaryRows[5][1])
}

func TestBuildLayout_DealsSummaryRoundsAndIgnoresMissingAmounts(t *testing.T) {
	rows := DealRows{
		{ID: 1, Status: model.DealStatusInProgress, Amount: floatPtr(0.1)},
		{ID: 2, Status: model.DealStatusInProgress, Amount: floatPtr(0.2)},
		{ID: 3, Status: model.DealStatusInProgress},
		{ID: 4, Status: "", Amount: floatPtr(10.005)},
		{ID: 5, Status: model.DealStatusLost, Amount: floatPtr(negInf())},
	}

	layout := BuildLayout(rows)
	countRow := layout.SummaryRows[3]
	sumRow := layout.SummaryRows[4]

	assert.Equal(t, 3, countRow[2])
	assert.Equal(t, 0.3, sumRow[2])
	assert.Equal(t, 1, countRow[1], "empty status counts as draft")
	assert.Equal(t, 10.01, sumRow[1])
	assert.Equal(t, 0.0, sumRow[4])

	first := layout.Values[layout.FirstDataRowIndex()+2]
	assert.Equal(t, "", first[4], "missing amount renders empty")
}

func negInf() float64 {
	var zero float64
	return -1 / zero
}

func TestBuildLayout_ClientsSummary(t *testing.T) {
	layout := BuildLayout(testClients())

	assert.Equal(t, []any{"Сводка отчёта"}, layout.SummaryRows[0][:1])
	assert.Equal(t, []any{"Период:", "2025-01-10", "2025-01-15"}, layout.SummaryRows[1][:3])
	assert.Equal(t, []any{"Статусы:", "active: 2, archived: 1"}, layout.SummaryRows[2][:2])
	assert.Equal(t, []any{"Всего записей:", 3}, layout.SummaryRows[3][:2])
}

func TestBuildLayout_EscapesStatusSummary(t *testing.T) {
	tests := []struct {
		name   string
		status string
		want   string
	}{
		{name: "formula", status: "=1+1", want: "'=1+1: 1"},
		{name: "hyperlink", status: `=HYPERLINK("http://x")`, want: `'=HYPERLINK("http://x"): 1`},
		{name: "at sign", status: "@lead", want: "'@lead: 1"},
		{name: "plain", status: "active", want: "active: 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout := BuildLayout(ClientRows{{ID: 1, Name: "a", Status: tt.status}})
			assert.Equal(t, []any{"Статусы:", tt.want}, layout.SummaryRows[2][:2])
		})
	}
}

func TestBuildLayout_TasksSummaryAndCells(t *testing.T) {
	layout := BuildLayout(testTasks())

	assert.Equal(t, []any{"Выполнено:", 1, "Не выполнено:", 1}, layout.SummaryRows[2][:4])
	assert.Equal(t, []string{TaskNotDoneLabel, TaskDoneLabel}, layout.StatusValues)

	second := layout.Values[layout.FirstDataRowIndex()+1]
	assert.Equal(t, "Да", second[6])
	assert.Equal(t, "2025-03-08", second[7])
	assert.Equal(t, "", second[4], "missing client id renders empty")

	first := layout.Values[layout.FirstDataRowIndex()]
	assert.Equal(t, int64(4), first[5])
}

func TestBuildLayout_EmptyRows(t *testing.T) {
	for _, rows := range []Rows{ClientRows{}, DealRows{}, TaskRows{}} {
		t.Run(string(rows.Section()), func(t *testing.T) {
			layout := BuildLayout(rows)

			require.NotEmpty(t, layout.SummaryRows)
			assert.Equal(t, 0, layout.DataRowCount)
			assert.Equal(t, len(layout.Values)-1, layout.HeaderRowIndex, "header is the last row")
			assert.Equal(t, RowNumberHeader, layout.HeaderRow[0])

			period := layout.SummaryRows[1]
			assert.Equal(t, "—", period[1])
			assert.Equal(t, "—", period[2])

			total := layout.SummaryRows[len(layout.SummaryRows)-1]
			assert.Equal(t, "Всего записей:", total[0])
			assert.Equal(t, 0, total[1])
		})
	}

	clients := BuildLayout(ClientRows{})
	assert.Equal(t, "—", clients.SummaryRows[2][1])
}

func TestLayout_Range(t *testing.T) {
	layout := BuildLayout(testDeals())
	rng, err := layout.Range()
	require.NoError(t, err)
	assert.Equal(t, "A1:I12", rng)

	empty := BuildLayout(TaskRows{})
	rng, err = empty.Range()
	require.NoError(t, err)
	assert.Equal(t, "A1:J7", rng)
}
