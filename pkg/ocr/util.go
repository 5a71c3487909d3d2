package ocr

import "strings"

// snippet returns a shortened version of text for logging.
func snippet(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}

// normalizeOCRText upper-cases, strips accents of the labels we look for and
// collapses whitespace.
func normalizeOCRText(t string) string {
	t = accentFolder.Replace(strings.ToUpper(t))
	return strings.Join(strings.Fields(t), " ")
}

var accentFolder = strings.NewReplacer(
	"Í", "I", "Ì", "I", "Á", "A", "Ã", "A", "Â", "A", "É", "E", "Ê", "E", "Ó", "O", "Õ", "O", "Ú", "U", "Ç", "C",
)

// onlyDigits extracts decimal digits from a string.
func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
