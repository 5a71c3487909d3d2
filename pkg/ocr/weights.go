package ocr

import (
	"regexp"

	"github.com/shopspring/decimal"
)

// Weights is a scale-ticket reading in kilograms.
type Weights struct {
	Bruto      decimal.Decimal `json:"peso_bruto"`
	Tara       decimal.Decimal `json:"tara"`
	Liquido    decimal.Decimal `json:"peso_liquido"`
	Confidence float64         `json:"confianca"`
	// Inferred names the field computed from the other two, if any.
	Inferred string `json:"inferido,omitempty"`
}

const numberPattern = `(\d{1,3}(?:\.\d{3})+(?:,\d+)?|\d+(?:[.,]\d+)?)`

var (
	labeledRE   = regexp.MustCompile(`\b(BRUTO|TARA|LIQUIDO|LIQ)\b[^0-9]{0,24}?` + numberPattern)
	unlabeledRE = regexp.MustCompile(numberPattern + `\s*KG\b`)
)

// ParseWeights extracts gross, tare and net weight from OCR text. Labeled
// readings win over bare "<number> KG" values; when two of three are found
// the third is inferred. Readings with tare not below gross are rejected.
func ParseWeights(text string) (Weights, error) {
	t := normalizeOCRText(text)
	w, ok := fromLabeled(labeledReadings(t))
	if !ok {
		w, ok = fromUnlabeled(unlabeledReadings(t))
	}
	if !ok {
		return Weights{}, ErrNoWeight
	}
	w.Bruto, w.Tara, w.Liquido = w.Bruto.Round(2), w.Tara.Round(2), w.Liquido.Round(2)
	return w, nil
}

// labeledReadings keeps the first plausible value per label.
func labeledReadings(t string) map[string]decimal.Decimal {
	out := map[string]decimal.Decimal{}
	for _, m := range labeledRE.FindAllStringSubmatch(t, -1) {
		label := m[1]
		if label == "LIQ" {
			label = "LIQUIDO"
		}
		if _, seen := out[label]; seen {
			continue
		}
		d, err := ParseNumber(m[2])
		if err != nil || !isPlausibleWeight(d) {
			continue
		}
		out[label] = d
	}
	return out
}

func unlabeledReadings(t string) []decimal.Decimal {
	var out []decimal.Decimal
	for _, m := range unlabeledRE.FindAllStringSubmatch(t, -1) {
		d, err := ParseNumber(m[1])
		if err != nil || !d.IsPositive() || !isPlausibleWeight(d) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func fromLabeled(got map[string]decimal.Decimal) (Weights, bool) {
	b, hasB := got["BRUTO"]
	t, hasT := got["TARA"]
	l, hasL := got["LIQUIDO"]
	var w Weights
	switch {
	case hasB && hasT && hasL:
		w = Weights{Bruto: b, Tara: t, Liquido: l, Confidence: 0.95}
		if !consistent(b, t, l) {
			w.Liquido, w.Confidence, w.Inferred = b.Sub(t), 0.6, "peso_liquido"
		}
	case hasB && hasT:
		w = Weights{Bruto: b, Tara: t, Liquido: b.Sub(t), Confidence: 0.8, Inferred: "peso_liquido"}
	case hasB && hasL:
		w = Weights{Bruto: b, Tara: b.Sub(l), Liquido: l, Confidence: 0.75, Inferred: "tara"}
	case hasT && hasL:
		w = Weights{Bruto: t.Add(l), Tara: t, Liquido: l, Confidence: 0.7, Inferred: "peso_bruto"}
	case hasB:
		w = Weights{Bruto: b, Tara: decimal.Zero, Liquido: b, Confidence: 0.3, Inferred: "tara"}
	default:
		return Weights{}, false
	}
	return w, valid(w)
}

// fromUnlabeled relies on the print order of scale terminals: gross, tare,
// net.
func fromUnlabeled(vals []decimal.Decimal) (Weights, bool) {
	if len(vals) >= 3 && consistent(vals[0], vals[1], vals[2]) {
		w := Weights{Bruto: vals[0], Tara: vals[1], Liquido: vals[2], Confidence: 0.6}
		return w, valid(w)
	}
	if len(vals) >= 2 {
		w := Weights{Bruto: vals[0], Tara: vals[1], Liquido: vals[0].Sub(vals[1]), Confidence: 0.35, Inferred: "peso_liquido"}
		return w, valid(w)
	}
	return Weights{}, false
}

func valid(w Weights) bool {
	return w.Bruto.IsPositive() && !w.Tara.IsNegative() && w.Tara.LessThan(w.Bruto) && w.Liquido.IsPositive()
}
