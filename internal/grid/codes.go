package grid

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// codeSeparator splits a product code from its description, e.g. "107 - PRETO"
const codeSeparator = " - "

// DigitsOnly keeps the decimal digits of s, in order
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CodePart returns the digits of the text preceding the first " - "
func CodePart(text string) string {
	head, _, _ := strings.Cut(text, codeSeparator)
	return DigitsOnly(head)
}

// FormatModel inserts a dot after the third digit of codes longer than three
// digits: "1070470" becomes "107.0470", "107" is returned unchanged.
func FormatModel(model string) string {
	if len(model) <= 3 {
		return model
	}
	return model[:3] + "." + model[3:]
}

// BaseCode joins the formatted model and color into the parent SKU
func BaseCode(model, color string) string {
	return FormatModel(model) + "." + color
}

// ChildSKU appends the size to a parent SKU
func ChildSKU(base string, size int) string {
	return base + "-" + strconv.Itoa(size)
}

// ParseIntOrNone reads an integer out of a cell. Numbers are truncated toward
// zero. Text is read as an optional sign followed by leading digits, so "12abc"
// yields 12 and "abc" yields nothing.
func ParseIntOrNone(c Cell) (int, bool) {
	switch c.Kind {
	case KindNumber:
		f := c.number
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		t := math.Trunc(f)
		if t > math.MaxInt32 || t < math.MinInt32 {
			return 0, false
		}
		return int(t), true
	case KindText:
		return parseIntPrefix(c.text)
	default:
		return 0, false
	}
}

func parseIntPrefix(s string) (int, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0, false
	}
	n, err := strconv.ParseInt(s[:end], 10, 32)
	if err != nil {
		return 0, false
	}
	return int(n), true
}
