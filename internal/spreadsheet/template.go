package spreadsheet

import (
	"io"

	"github.com/xuri/excelize/v2"

	"stock-service/internal/grid"
)

// templateSheet is the name of the only sheet of the sample report
const templateSheet = "Estoque"

// NewReportTemplate builds a workbook holding one product block with both
// report sections filled in
func NewReportTemplate(general, ready grid.Layout) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", templateSheet); err != nil {
		f.Close()
		return nil, err
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	markerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
	})

	sizes := []int{34, 35, 36, 37, 38, 39, 40}
	set := func(col, row int, value interface{}, style int) error {
		cell, err := excelize.CoordinatesToCellName(col+1, row+1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(templateSheet, cell, value); err != nil {
			return err
		}
		if style != 0 {
			return f.SetCellStyle(templateSheet, cell, cell, style)
		}
		return nil
	}

	rows := []struct {
		row   int
		value string
		style int
	}{
		{0, "1070470 - SANDALIA EXEMPLO", headerStyle},
		{general.ColorRowOffset, "025 - PRETO", headerStyle},
		{ready.QuantityRowOffset, ready.Marker, markerStyle},
		{general.QuantityRowOffset, general.Marker, markerStyle},
	}
	for _, r := range rows {
		if err := set(0, r.row, r.value, r.style); err != nil {
			f.Close()
			return nil, err
		}
	}

	for i, size := range sizes {
		col := general.SizeColumnFirst + i
		if col > general.SizeColumnLast {
			break
		}
		if err := set(col, general.SizeRowOffset, size, headerStyle); err != nil {
			f.Close()
			return nil, err
		}
		if err := set(col, ready.QuantityRowOffset, i%3, 0); err != nil {
			f.Close()
			return nil, err
		}
		if err := set(col, general.QuantityRowOffset, i+1, 0); err != nil {
			f.Close()
			return nil, err
		}
	}

	_ = f.SetColWidth(templateSheet, "A", "A", 32)
	return f, nil
}

// WriteReportTemplate writes the sample report as .xlsx
func WriteReportTemplate(w io.Writer, general, ready grid.Layout) error {
	f, err := NewReportTemplate(general, ready)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteTo(w)
	return err
}
