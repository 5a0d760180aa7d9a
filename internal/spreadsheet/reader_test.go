package spreadsheet

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"stock-service/internal/grid"
)

// reportWorkbook writes one product block the way the inventory system exports it
func reportWorkbook(t *testing.T) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sheet1"
	set := func(cell string, value interface{}) {
		require.NoError(t, f.SetCellValue(sheet, cell, value))
	}

	set("A1", "203 - AZUL")
	set("A2", "025 - MARINHO")
	for i, size := range []int{34, 35, 36, 37, 38, 39, 40} {
		cell, err := excelize.CoordinatesToCellName(i+2, 3)
		require.NoError(t, err)
		set(cell, size)
	}
	set("A6", "[C] Disponível")
	set("B6", 2)
	set("A10", "[G] Saldo")
	set("B10", 5)
	set("C10", "abc")
	set("F10", 12)

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestDetectFormat(t *testing.T) {
	tests := map[string]Format{
		"estoque.xlsx": FormatXLSX,
		"ESTOQUE.XLSX": FormatXLSX,
		"macro.xlsm":   FormatXLSX,
		"legado.xls":   FormatXLS,
		"export.csv":   FormatCSV,
	}
	for name, want := range tests {
		got, err := DetectFormat(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := DetectFormat("estoque.pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestRead_XLSX(t *testing.T) {
	g, err := Read(reportWorkbook(t), "estoque.xlsx")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(g), 10)

	header, ok := g.At(0, 0).AsText()
	require.True(t, ok)
	assert.Equal(t, "203 - AZUL", header)

	size, ok := g.At(2, 1).AsNumber()
	require.True(t, ok, "sizes are numeric cells")
	assert.Equal(t, float64(34), size)

	assert.True(t, g.At(2, 0).IsEmpty())
	_, isText := g.At(9, 2).AsText()
	assert.True(t, isText)
}

func TestRead_XLSXFeedsExtractor(t *testing.T) {
	g, err := Read(reportWorkbook(t), "estoque.xlsx")
	require.NoError(t, err)

	views := grid.ExtractViews(g, grid.GeneralStock, grid.ReadyStock)

	assert.Equal(t, []grid.StockEntry{
		{SKU: "203.025-34", Quantidade: 5},
		{SKU: "203.025-38", Quantidade: 12},
	}, views[grid.ViewGeneral])
	assert.Equal(t, []grid.StockEntry{
		{SKU: "203.025-34", Quantidade: 2},
	}, views[grid.ViewReady])
}

func TestRead_XLSXInvalidContent(t *testing.T) {
	_, err := Read(strings.NewReader("not a zip"), "estoque.xlsx")
	assert.Error(t, err)
}

func TestRead_CSV(t *testing.T) {
	t.Run("semicolon delimited", func(t *testing.T) {
		data := "203 - AZUL;;\n;34;35\n[G] Saldo;5;x\n"
		g, err := Read(strings.NewReader(data), "export.csv")
		require.NoError(t, err)
		require.Len(t, g, 3)

		n, ok := g.At(1, 1).AsNumber()
		require.True(t, ok)
		assert.Equal(t, float64(34), n)
		assert.True(t, g.At(0, 1).IsEmpty())

		s, ok := g.At(2, 2).AsText()
		require.True(t, ok)
		assert.Equal(t, "x", s)
	})

	t.Run("windows-1252", func(t *testing.T) {
		encoded, err := charmap.Windows1252.NewEncoder().String("[C] Disponível,1\n")
		require.NoError(t, err)

		g, err := Read(strings.NewReader(encoded), "export.csv")
		require.NoError(t, err)

		s, ok := g.At(0, 0).AsText()
		require.True(t, ok)
		assert.Equal(t, "[C] Disponível", s)
	})
}

func TestRead_Unsupported(t *testing.T) {
	_, err := Read(strings.NewReader(""), "estoque.ods")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "estoque.xlsx")
	require.NoError(t, os.WriteFile(path, reportWorkbook(t).Bytes(), 0o600))

	g, err := ReadFile(path)
	require.NoError(t, err)
	assert.NotEmpty(t, g)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}

func TestXLSCell(t *testing.T) {
	assert.True(t, xlsCell("*record.Blank", "", 0).IsEmpty())
	assert.True(t, xlsCell("*record.FakeBlank", "", 0).IsEmpty())

	n, ok := xlsCell("*record.Rk", "5", 5).AsNumber()
	require.True(t, ok)
	assert.Equal(t, float64(5), n)

	n, ok = xlsCell("*record.Number", "34", 34).AsNumber()
	require.True(t, ok)
	assert.Equal(t, float64(34), n)

	s, ok := xlsCell("*record.LabelSSt", "203 - AZUL", 0).AsText()
	require.True(t, ok)
	assert.Equal(t, "203 - AZUL", s)
}
