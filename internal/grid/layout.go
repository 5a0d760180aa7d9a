package grid

import "fmt"

// Default positions of the exported stock report. Each product occupies a
// fixed block: model header, color, sizes 34-40 in columns 1-7, then the
// section rows carrying quantities.
const (
	DefaultBlockSize       = 10
	DefaultColorRowOffset  = 1
	DefaultSizeRowOffset   = 2
	DefaultSizeColumnFirst = 1
	DefaultSizeColumnLast  = 7

	GeneralStockMarker = "[G] Saldo"
	GeneralStockOffset = 9

	ReadyStockMarker = "[C] Disponível"
	ReadyStockOffset = 5

	ViewGeneral = "general"
	ViewReady   = "ready"
)

// Layout describes where one report section lives inside a product block
type Layout struct {
	Name              string
	Marker            string
	QuantityRowOffset int
	BlockSize         int
	ColorRowOffset    int
	SizeRowOffset     int
	SizeColumnFirst   int
	SizeColumnLast    int
}

// GeneralStock is the "[G] Saldo" section of the report
var GeneralStock = Layout{
	Name:              ViewGeneral,
	Marker:            GeneralStockMarker,
	QuantityRowOffset: GeneralStockOffset,
	BlockSize:         DefaultBlockSize,
	ColorRowOffset:    DefaultColorRowOffset,
	SizeRowOffset:     DefaultSizeRowOffset,
	SizeColumnFirst:   DefaultSizeColumnFirst,
	SizeColumnLast:    DefaultSizeColumnLast,
}

// ReadyStock is the "[C] Disponível" section of the report
var ReadyStock = Layout{
	Name:              ViewReady,
	Marker:            ReadyStockMarker,
	QuantityRowOffset: ReadyStockOffset,
	BlockSize:         DefaultBlockSize,
	ColorRowOffset:    DefaultColorRowOffset,
	SizeRowOffset:     DefaultSizeRowOffset,
	SizeColumnFirst:   DefaultSizeColumnFirst,
	SizeColumnLast:    DefaultSizeColumnLast,
}

// Validate checks that the layout can drive a scan
func (l Layout) Validate() error {
	if l.Marker == "" {
		return fmt.Errorf("layout %q: marker is required", l.Name)
	}
	if l.QuantityRowOffset <= 0 {
		return fmt.Errorf("layout %q: quantity row offset must be positive, got %d", l.Name, l.QuantityRowOffset)
	}
	if l.BlockSize <= 0 {
		return fmt.Errorf("layout %q: block size must be positive, got %d", l.Name, l.BlockSize)
	}
	if l.SizeColumnFirst < 0 || l.SizeColumnLast < l.SizeColumnFirst {
		return fmt.Errorf("layout %q: invalid size column range %d-%d", l.Name, l.SizeColumnFirst, l.SizeColumnLast)
	}
	return nil
}
