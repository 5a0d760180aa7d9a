// Package spreadsheet loads the first sheet of an uploaded workbook into a grid
package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"stock-service/internal/grid"
)

// Format is a supported workbook format
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatCSV  Format = "csv"
)

var (
	// ErrUnsupportedFormat is returned for extensions other than .xls, .xlsx, .xlsm and .csv
	ErrUnsupportedFormat = errors.New("only XLS, XLSX and CSV files are supported")
	// ErrNoSheets is returned for workbooks without any worksheet
	ErrNoSheets = errors.New("no sheets found in workbook")
)

// DetectFormat maps a file name to its workbook format
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	case ".csv":
		return FormatCSV, nil
	}
	return "", ErrUnsupportedFormat
}

// Read decodes the first sheet of the workbook into a grid, choosing the
// decoder from the file name extension.
func Read(r io.Reader, filename string) (grid.Grid, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatXLSX:
		return readXLSX(r)
	case FormatXLS:
		return readXLS(r)
	default:
		return readCSV(r)
	}
}

// ReadFile opens path and decodes it with Read
func ReadFile(path string) (grid.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, filepath.Base(path))
}

func readXLSX(r io.Reader) (grid.Grid, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}
	sheetName := sheets[0]

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}

	g := make(grid.Grid, len(rows))
	for rowIdx, values := range rows {
		row := make(grid.Row, len(values))
		for colIdx, value := range values {
			if value == "" {
				row[colIdx] = grid.Empty()
				continue
			}
			axis, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				return nil, fmt.Errorf("invalid cell coordinates (%d,%d): %w", colIdx+1, rowIdx+1, err)
			}
			cellType, err := f.GetCellType(sheetName, axis)
			if err != nil {
				return nil, fmt.Errorf("failed to read cell %s: %w", axis, err)
			}
			row[colIdx] = xlsxCell(cellType, value)
		}
		g[rowIdx] = row
	}
	return g, nil
}

// xlsxCell classifies a raw value. Numeric cells are stored either with an
// explicit "n" type or with no type at all.
func xlsxCell(cellType excelize.CellType, value string) grid.Cell {
	switch cellType {
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return grid.Number(f)
		}
	}
	return grid.Text(value)
}

func readXLS(r io.Reader) (grid.Grid, error) {
	// xlsReader needs a file on disk
	tempFile, err := os.CreateTemp("", "stock-import-*.xls")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tempFile.Name())
	defer tempFile.Close()

	if _, err := io.Copy(tempFile, r); err != nil {
		return nil, fmt.Errorf("failed to buffer .xls upload: %w", err)
	}
	tempFile.Close()

	workbook, err := xls.OpenFile(tempFile.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to open .xls file: %w", err)
	}
	if workbook.GetNumberSheets() == 0 {
		return nil, ErrNoSheets
	}

	sheet, err := workbook.GetSheet(0)
	if err != nil {
		return nil, fmt.Errorf("failed to read first sheet: %w", err)
	}
	if sheet == nil {
		return nil, ErrNoSheets
	}

	// GetNumberRows may report the last row index rather than a count; a
	// trailing empty row is harmless to the extractor.
	numRows := int(sheet.GetNumberRows())
	g := make(grid.Grid, 0, numRows+1)
	for i := 0; i <= numRows; i++ {
		row, err := sheet.GetRow(i)
		if err != nil || row == nil {
			g = append(g, grid.Row{})
			continue
		}

		cols := row.GetCols()
		out := make(grid.Row, len(cols))
		for j, col := range cols {
			if col == nil {
				out[j] = grid.Empty()
				continue
			}
			out[j] = xlsCell(col.GetType(), col.GetString(), col.GetFloat64())
		}
		g = append(g, out)
	}
	return g, nil
}

// xlsCell maps a BIFF record type name to a cell variant
func xlsCell(recordType, text string, number float64) grid.Cell {
	switch {
	case strings.Contains(recordType, "Blank"):
		return grid.Empty()
	case strings.Contains(recordType, "Number"), strings.Contains(recordType, "Rk"):
		return grid.Number(number)
	}
	return grid.Text(text)
}

func readCSV(r io.Reader) (grid.Grid, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	var src io.Reader = bytes.NewReader(data)
	if !utf8.Valid(data) {
		// Exports from the ERP desktop client are Windows-1252
		src = transform.NewReader(src, charmap.Windows1252.NewDecoder())
	}

	reader := csv.NewReader(src)
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var g grid.Grid
	lineNum := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		lineNum++
		if err != nil {
			return nil, fmt.Errorf("error reading line %d: %w", lineNum, err)
		}

		row := make(grid.Row, len(record))
		for i, value := range record {
			row[i] = csvCell(value)
		}
		g = append(g, row)
	}
	return g, nil
}

func csvCell(value string) grid.Cell {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return grid.Empty()
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return grid.Number(f)
	}
	return grid.Text(value)
}

// sniffDelimiter picks ';' when the first line has more semicolons than commas
func sniffDelimiter(data []byte) rune {
	line := data
	if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
		line = data[:idx]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}
