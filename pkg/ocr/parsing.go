package ocr

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseNumber normalizes a scale reading into a decimal. It accepts the
// Brazilian format (1.234,5), the plain format (1234.5) and an optional
// trailing KG. A single dot followed by exactly three digits is a thousands
// separator, as printed by most scale terminals.
func ParseNumber(found string) (decimal.Decimal, error) {
	s := strings.ToUpper(strings.TrimSpace(found))
	s = strings.TrimSpace(strings.TrimSuffix(s, "KG"))
	s = strings.ReplaceAll(s, " ", "")
	if s == "" || onlyDigits(s) == "" {
		return decimal.Zero, fmt.Errorf("no digits in %q", found)
	}
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			return decimal.Zero, fmt.Errorf("ambiguous number %q", found)
		}
		s = strings.Replace(s, ",", ".", 1)
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 || len(s)-lastDot-1 == 3 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse number %q: %w", found, err)
	}
	return d, nil
}
