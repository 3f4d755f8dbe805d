package sheets

import (
	"cmp"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/Veraticus/crm-sheets/internal/model"
)

const (
	// MaxTextLength bounds free-text cells (notes, descriptions).
	MaxTextLength = 500
	// RowNumberHeader labels the 1-based row counter prepended to every data row.
	RowNumberHeader = "№"

	placeholder    = "—"
	cellTimeLayout = "2006-01-02 15:04:05"
	cellDateLayout = "2006-01-02"
)

// Rows is a typed batch of records for one section. The unexported methods keep the
// set of implementations closed: a new section has to supply its own headers, cells
// and summary rule before it can be exported.
type Rows interface {
	Section() model.Section
	Len() int

	headers() []string
	statusColumn() int
	sorted() Rows
	cells(i int) []any
	status(i int) string
	createdAt(i int) time.Time
	summary() [][]any
}

// Layout is the computed arrangement of a report: title row, summary block, blank
// separator, header row and data rows, padded to a rectangle.
type Layout struct {
	Section        model.Section
	Title          string
	TitleRow       []any
	SummaryRows    [][]any
	HeaderRow      []any
	Values         [][]any
	StatusValues   []string
	HeaderRowIndex int
	DataRowCount   int
	Width          int
	// StatusColumn is the 0-based column holding the status value in data rows.
	StatusColumn int
}

// BuildLayout computes the value matrix for rows. The input is not modified.
func BuildLayout(rows Rows) *Layout {
	rows = rows.sorted()

	headers := rows.headers()
	headerRow := make([]any, 0, len(headers)+1)
	headerRow = append(headerRow, RowNumberHeader)
	for _, h := range headers {
		headerRow = append(headerRow, h)
	}

	dataRows := make([][]any, 0, rows.Len())
	statuses := make([]string, 0, rows.Len())
	for i := 0; i < rows.Len(); i++ {
		cells := rows.cells(i)
		row := make([]any, 0, len(cells)+1)
		row = append(row, i+1)
		row = append(row, cells...)
		dataRows = append(dataRows, row)
		statuses = append(statuses, rows.status(i))
	}

	title := rows.Section().ReportPrefix()
	titleRow := []any{title}
	summary := rows.summary()

	values := make([][]any, 0, len(summary)+len(dataRows)+3)
	values = append(values, titleRow)
	values = append(values, summary...)
	values = append(values, []any{})
	headerIndex := len(values)
	values = append(values, headerRow)
	values = append(values, dataRows...)

	width := 0
	for _, row := range values {
		width = max(width, len(row))
	}
	for i := range values {
		values[i] = padRow(values[i], width)
	}

	return &Layout{
		Section:        rows.Section(),
		Title:          title,
		TitleRow:       values[0],
		SummaryRows:    values[1 : 1+len(summary)],
		HeaderRow:      values[headerIndex],
		Values:         values,
		StatusValues:   statuses,
		HeaderRowIndex: headerIndex,
		DataRowCount:   len(dataRows),
		Width:          width,
		StatusColumn:   rows.statusColumn() + 1,
	}
}

// Range returns the A1 range covering the whole matrix.
func (l *Layout) Range() (string, error) {
	return A1Range(len(l.Values), l.Width)
}

// FirstDataRowIndex is the 0-based index of the first data row.
func (l *Layout) FirstDataRowIndex() int {
	return l.HeaderRowIndex + 1
}

func padRow(row []any, width int) []any {
	if len(row) >= width {
		return row
	}
	padded := make([]any, width)
	copy(padded, row)
	for i := len(row); i < width; i++ {
		padded[i] = ""
	}
	return padded
}

// escapeFormula neutralizes values the spreadsheet would otherwise evaluate.
func escapeFormula(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '+', '=', '-', '@':
		return "'" + s
	}
	return s
}

func truncateText(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

func textCell(s string) string {
	return escapeFormula(s)
}

func optionalText(s *string) string {
	if s == nil {
		return ""
	}
	return textCell(*s)
}

func longText(s *string) string {
	if s == nil {
		return ""
	}
	return textCell(truncateText(*s, MaxTextLength))
}

func optionalID(id *int64) any {
	if id == nil {
		return ""
	}
	return *id
}

func timeCell(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(cellTimeLayout)
}

// ClientRows is the clients section input.
type ClientRows []model.Client

// Section implements Rows.
func (r ClientRows) Section() model.Section { return model.SectionClients }

// Len implements Rows.
func (r ClientRows) Len() int { return len(r) }

func (r ClientRows) headers() []string {
	return []string{"ID", "Имя", "Email", "Телефон", "Статус", "Заметки", "Создан", "Обновлён"}
}

func (r ClientRows) statusColumn() int { return 4 }

func (r ClientRows) sorted() Rows {
	out := slices.Clone(r)
	slices.SortStableFunc(out, func(a, b model.Client) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (r ClientRows) cells(i int) []any {
	c := r[i]
	return []any{
		c.ID,
		textCell(c.Name),
		optionalText(c.Email),
		optionalText(c.Phone),
		textCell(c.Status),
		longText(c.Notes),
		timeCell(c.CreatedAt),
		timeCell(c.UpdatedAt),
	}
}

func (r ClientRows) status(i int) string { return r[i].Status }

func (r ClientRows) createdAt(i int) time.Time { return r[i].CreatedAt }

// DealRows is the deals section input.
type DealRows []model.Deal

// Section implements Rows.
func (r DealRows) Section() model.Section { return model.SectionDeals }

// Len implements Rows.
func (r DealRows) Len() int { return len(r) }

func (r DealRows) headers() []string {
	return []string{"ID", "Название", "ID клиента", "Сумма", "Статус", "Заметки", "Создан", "Обновлён"}
}

func (r DealRows) statusColumn() int { return 4 }

func (r DealRows) sorted() Rows {
	out := slices.Clone(r)
	slices.SortStableFunc(out, func(a, b model.Deal) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (r DealRows) cells(i int) []any {
	d := r[i]
	var amount any = ""
	if d.Amount != nil {
		amount = *d.Amount
	}
	return []any{
		d.ID,
		textCell(d.Title),
		optionalID(d.ClientID),
		amount,
		textCell(d.Status),
		longText(d.Notes),
		timeCell(d.CreatedAt),
		timeCell(d.UpdatedAt),
	}
}

func (r DealRows) status(i int) string { return r[i].Status }

func (r DealRows) createdAt(i int) time.Time { return r[i].CreatedAt }

// TaskRows is the tasks section input.
type TaskRows []model.Task

// Task completion labels. They double as the status values of the tasks palette.
const (
	TaskDoneLabel    = "Да"
	TaskNotDoneLabel = "Нет"
)

// Section implements Rows.
func (r TaskRows) Section() model.Section { return model.SectionTasks }

// Len implements Rows.
func (r TaskRows) Len() int { return len(r) }

func (r TaskRows) headers() []string {
	return []string{"ID", "Название", "Описание", "ID клиента", "ID сделки", "Выполнено", "Срок", "Создан", "Обновлён"}
}

func (r TaskRows) statusColumn() int { return 5 }

func (r TaskRows) sorted() Rows {
	out := slices.Clone(r)
	slices.SortStableFunc(out, func(a, b model.Task) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (r TaskRows) cells(i int) []any {
	t := r[i]
	due := ""
	if t.DueDate != nil {
		due = t.DueDate.Format(cellDateLayout)
	}
	return []any{
		t.ID,
		textCell(t.Title),
		longText(t.Description),
		optionalID(t.ClientID),
		optionalID(t.DealID),
		r.status(i),
		due,
		timeCell(t.CreatedAt),
		timeCell(t.UpdatedAt),
	}
}

func (r TaskRows) status(i int) string {
	if r[i].IsCompleted {
		return TaskDoneLabel
	}
	return TaskNotDoneLabel
}

func (r TaskRows) createdAt(i int) time.Time { return r[i].CreatedAt }
