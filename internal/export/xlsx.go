// Package export renders booking lists as Excel workbooks.
package export

import (
	"fmt"
	"io"

	"bamboowoods/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	sheetName   = "Bookings"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var columns = []struct {
	title string
	width float64
}{
	{"ID", 8},
	{"Date", 12},
	{"Name", 25},
	{"Phone", 16},
	{"Email", 28},
	{"Event", 18},
	{"Guests", 8},
	{"Status", 12},
	{"Message", 40},
	{"Received", 18},
}

var statusFill = map[models.Status]string{
	models.StatusPending:   "FFF4CC",
	models.StatusConfirmed: "D9F2D9",
	models.StatusCancelled: "F8D7DA",
}

// FileName is the download name for a view export.
func FileName(view models.ListView, date string) string {
	return fmt.Sprintf("bamboowoods_%s_%s.xlsx", view, date)
}

// WriteBookings writes one sheet with a title row, a header row and one
// row per booking.
func WriteBookings(w io.Writer, title string, bookings []*models.Booking) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	lastCol, _ := excelize.ColumnNumberToName(len(columns))
	_ = f.SetCellValue(sheetName, "A1", title)
	_ = f.MergeCell(sheetName, "A1", lastCol+"1")
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"2F5D3A"}, Pattern: 1},
	})
	for i, c := range columns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("%s2", col), c.title)
		_ = f.SetColWidth(sheetName, col, col, c.width)
	}
	_ = f.SetCellStyle(sheetName, "A2", lastCol+"2", headerStyle)

	styles := make(map[models.Status]int, len(statusFill))
	for status, color := range statusFill {
		id, err := f.NewStyle(&excelize.Style{Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1}})
		if err == nil {
			styles[status] = id
		}
	}

	for i, b := range bookings {
		row := i + 3
		values := []interface{}{
			b.ID,
			models.FormatLocaleDate(b.Date),
			b.Name,
			b.Phone,
			b.Email,
			b.Type,
			b.Guests,
			string(b.Status),
			b.Message,
			b.CreatedAt.UTC().Format("2006-01-02 15:04"),
		}
		if err := f.SetSheetRow(sheetName, fmt.Sprintf("A%d", row), &values); err != nil {
			return fmt.Errorf("error writing row %d: %w", row, err)
		}
		if style, ok := styles[b.Status]; ok {
			cell := fmt.Sprintf("H%d", row)
			_ = f.SetCellStyle(sheetName, cell, cell, style)
		}
	}

	_ = f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 2, TopLeftCell: "A3", ActivePane: "bottomLeft"})

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}
