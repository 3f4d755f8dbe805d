package sheets

import (
	"github.com/Veraticus/crm-sheets/internal/model"
	"google.golang.org/api/sheets/v4"
)

// RGB is a color with components in [0,1].
type RGB struct {
	Red   float64
	Green float64
	Blue  float64
}

func (c RGB) color() *sheets.Color {
	return &sheets.Color{Red: c.Red, Green: c.Green, Blue: c.Blue, Alpha: 1.0}
}

// NeutralStatusColor is used for statuses that have no entry in the section palette.
var NeutralStatusColor = RGB{1, 1, 1}

var (
	titleBackground   = RGB{0.26, 0.45, 0.76}
	summaryBackground = RGB{0.95, 0.95, 0.95}
	white             = RGB{1, 1, 1}
	borderOuter       = RGB{0.6, 0.6, 0.6}
	borderInner       = RGB{0.8, 0.8, 0.8}
)

// Palette holds the colors for one section.
type Palette struct {
	Statuses map[string]RGB
	Header   RGB
}

// PaletteFor returns the static palette of a section.
func PaletteFor(section model.Section) Palette {
	switch section {
	case model.SectionClients:
		return Palette{
			Header: RGB{0.11, 0.37, 0.13},
			Statuses: map[string]RGB{
				model.ClientStatusActive:   {0.2, 0.7, 0.4},
				model.ClientStatusArchived: {0.6, 0.6, 0.6},
			},
		}
	case model.SectionDeals:
		return Palette{
			Header: RGB{0.09, 0.32, 0.2},
			Statuses: map[string]RGB{
				model.DealStatusDraft:      {0.6, 0.6, 0.6},
				model.DealStatusInProgress: {0.35, 0.55, 0.9},
				model.DealStatusWon:        {0.2, 0.7, 0.4},
				model.DealStatusLost:       {0.9, 0.35, 0.3},
			},
		}
	case model.SectionTasks:
		return Palette{
			Header: RGB{0.15, 0.42, 0.27},
			Statuses: map[string]RGB{
				TaskDoneLabel:    {0.2, 0.7, 0.4},
				TaskNotDoneLabel: {0.75, 0.75, 0.75},
			},
		}
	}
	return Palette{Header: RGB{0.2, 0.2, 0.2}}
}

// StatusColor resolves a status value to its highlight. Unknown values get NeutralStatusColor.
func (p Palette) StatusColor(status string) RGB {
	if c, ok := p.Statuses[status]; ok {
		return c
	}
	return NeutralStatusColor
}

// FormatRequests builds the formatting batch for a layout on the given sheet. All row and
// column bounds come from the layout.
func FormatRequests(layout *Layout, sheetID int64) []*sheets.Request {
	palette := PaletteFor(layout.Section)
	width := int64(layout.Width)
	totalRows := int64(len(layout.Values))
	header := int64(layout.HeaderRowIndex)
	summaryEnd := int64(1 + len(layout.SummaryRows))

	requests := make([]*sheets.Request, 0, 8+layout.DataRowCount)

	// Title band
	requests = append(requests,
		&sheets.Request{
			MergeCells: &sheets.MergeCellsRequest{
				Range:     gridRange(sheetID, 0, 1, 0, width),
				MergeType: "MERGE_ALL",
			},
		},
		&sheets.Request{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: gridRange(sheetID, 0, 1, 0, width),
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						BackgroundColor: titleBackground.color(),
						TextFormat: &sheets.TextFormat{
							Bold:            true,
							Italic:          true,
							FontSize:        14,
							ForegroundColor: white.color(),
						},
					},
				},
				Fields: "userEnteredFormat(backgroundColor,textFormat)",
			},
		},
	)

	// Summary block
	requests = append(requests,
		&sheets.Request{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: gridRange(sheetID, 1, summaryEnd, 0, width),
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						BackgroundColor: summaryBackground.color(),
					},
				},
				Fields: "userEnteredFormat.backgroundColor",
			},
		},
		&sheets.Request{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: gridRange(sheetID, 1, summaryEnd, 0, 1),
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true},
					},
				},
				Fields: "userEnteredFormat.textFormat.bold",
			},
		},
	)

	// Table header
	requests = append(requests, &sheets.Request{
		RepeatCell: &sheets.RepeatCellRequest{
			Range: gridRange(sheetID, header, header+1, 0, width),
			Cell: &sheets.CellData{
				UserEnteredFormat: &sheets.CellFormat{
					BackgroundColor:     palette.Header.color(),
					HorizontalAlignment: "CENTER",
					VerticalAlignment:   "MIDDLE",
					WrapStrategy:        "WRAP",
					TextFormat: &sheets.TextFormat{
						Bold:            true,
						ForegroundColor: white.color(),
					},
				},
			},
			Fields: "userEnteredFormat(backgroundColor,horizontalAlignment,verticalAlignment,wrapStrategy,textFormat)",
		},
	})

	// Borders from the title down to the last data row
	requests = append(requests, &sheets.Request{
		UpdateBorders: &sheets.UpdateBordersRequest{
			Range:           gridRange(sheetID, 0, totalRows, 0, width),
			Top:             border(borderOuter),
			Bottom:          border(borderOuter),
			Left:            border(borderOuter),
			Right:           border(borderOuter),
			InnerHorizontal: border(borderInner),
			InnerVertical:   border(borderInner),
		},
	})

	// Status highlighting, one cell per data row
	status := int64(layout.StatusColumn)
	for i, value := range layout.StatusValues {
		row := header + 1 + int64(i)
		requests = append(requests, &sheets.Request{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: gridRange(sheetID, row, row+1, status, status+1),
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						BackgroundColor: palette.StatusColor(value).color(),
					},
				},
				Fields: "userEnteredFormat.backgroundColor",
			},
		})
	}

	requests = append(requests,
		&sheets.Request{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId: sheetID,
					GridProperties: &sheets.GridProperties{
						FrozenRowCount: header + 1,
					},
					ForceSendFields: []string{"SheetId"},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
		&sheets.Request{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:         sheetID,
					Dimension:       "COLUMNS",
					StartIndex:      0,
					EndIndex:        width,
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		},
	)

	return requests
}

func gridRange(sheetID, startRow, endRow, startCol, endCol int64) *sheets.GridRange {
	return &sheets.GridRange{
		SheetId:          sheetID,
		StartRowIndex:    startRow,
		EndRowIndex:      endRow,
		StartColumnIndex: startCol,
		EndColumnIndex:   endCol,
		// Sheet 0 and row/column 0 are real values, not omissions.
		ForceSendFields: []string{"SheetId", "StartRowIndex", "StartColumnIndex"},
	}
}

func border(c RGB) *sheets.Border {
	return &sheets.Border{Style: "SOLID", Width: 1, Color: c.color()}
}
