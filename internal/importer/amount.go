package importer

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// parseAmount accepts both 1,234.56 and 1.234,56 notations. When only one kind of
// separator is present a single occurrence is the decimal separator and repeated ones
// group thousands.
func parseAmount(s string) (decimal.Decimal, error) {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.Is(unicode.Sc, r) {
			return -1
		}

		return r
	}, s)

	lastDot := strings.LastIndex(clean, ".")
	lastComma := strings.LastIndex(clean, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			clean = strings.ReplaceAll(clean, ".", "")
			clean = strings.Replace(clean, ",", ".", 1)
		} else {
			clean = strings.ReplaceAll(clean, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(clean, ",") == 1 {
			clean = strings.Replace(clean, ",", ".", 1)
		} else {
			clean = strings.ReplaceAll(clean, ",", "")
		}
	case lastDot >= 0:
		if strings.Count(clean, ".") > 1 {
			clean = strings.ReplaceAll(clean, ".", "")
		}
	}

	return decimal.NewFromString(clean)
}
