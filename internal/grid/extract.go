package grid

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// StockEntry is the summed quantity of one child SKU
type StockEntry struct {
	SKU        string `json:"sku"`
	Quantidade int    `json:"quantidade"`
}

// Extract scans the grid for product blocks of the given layout and returns
// the quantity per child SKU, sorted by SKU.
//
// A block starts at any row whose first cell is text and whose row at
// QuantityRowOffset carries the layout marker in its first cell. Every block,
// accepted or rejected, advances the scan by BlockSize rows. Malformed cells
// are skipped; the scan never fails.
func Extract(g Grid, layout Layout) []StockEntry {
	if err := layout.Validate(); err != nil {
		return []StockEntry{}
	}

	marker := norm.NFC.String(layout.Marker)
	totals := make(map[string]int)

	for i := 0; i < len(g); {
		modelText, ok := g.At(i, 0).AsText()
		if !ok {
			i++
			continue
		}

		dataRow := i + layout.QuantityRowOffset
		if !hasMarker(g.At(dataRow, 0), marker) {
			i++
			continue
		}

		model := CodePart(modelText)
		color := CodePart(g.At(i+layout.ColorRowOffset, 0).String())
		if FormatModel(model) == "" || color == "" {
			i += layout.BlockSize
			continue
		}

		base := BaseCode(model, color)
		sizeRow := i + layout.SizeRowOffset
		for col := layout.SizeColumnFirst; col <= layout.SizeColumnLast; col++ {
			sizeCell := g.At(sizeRow, col)
			qtyCell := g.At(dataRow, col)
			if sizeCell.IsEmpty() || qtyCell.IsEmpty() {
				continue
			}
			qty, ok := ParseIntOrNone(qtyCell)
			if !ok || qty <= 0 {
				continue
			}
			size, ok := ParseIntOrNone(sizeCell)
			if !ok {
				continue
			}
			totals[ChildSKU(base, size)] += qty
		}

		i += layout.BlockSize
	}

	return sortedEntries(totals)
}

// ExtractViews runs one independent pass per layout over the same grid,
// keyed by layout name.
func ExtractViews(g Grid, layouts ...Layout) map[string][]StockEntry {
	out := make(map[string][]StockEntry, len(layouts))
	for _, l := range layouts {
		out[l.Name] = Extract(g, l)
	}
	return out
}

// TotalQuantity sums the quantities of a result set
func TotalQuantity(entries []StockEntry) int {
	total := 0
	for _, e := range entries {
		total += e.Quantidade
	}
	return total
}

func hasMarker(c Cell, marker string) bool {
	text, ok := c.AsText()
	if !ok {
		return false
	}
	return strings.Contains(norm.NFC.String(text), marker)
}

func sortedEntries(totals map[string]int) []StockEntry {
	entries := make([]StockEntry, 0, len(totals))
	for sku, qty := range totals {
		entries = append(entries, StockEntry{SKU: sku, Quantidade: qty})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].SKU < entries[j].SKU
	})
	return entries
}
