// Package ocr reads gross, tare and net weights from photos of printed
// scale tickets using Tesseract.
package ocr

import (
	"log/slog"
	"strings"
)

// ExtractWeightsFromImage runs the OCR passes over the image at path and
// returns the most confident reading. ErrNoWeight means the image was read
// but no plausible reading was found.
func ExtractWeightsFromImage(path string) (Weights, error) {
	texts, err := runPasses(path)
	if err != nil {
		return Weights{}, err
	}
	return BestReading(texts)
}

// BestReading parses every text and keeps the reading with the highest
// confidence. Ties go to the earliest text. As a last resort the texts are
// parsed together, which helps when labels and values land in different
// passes.
func BestReading(texts []string) (Weights, error) {
	var best Weights
	found := false
	for _, t := range texts {
		w, err := ParseWeights(t)
		if err != nil {
			continue
		}
		if !found || w.Confidence > best.Confidence {
			best, found = w, true
		}
	}
	if !found {
		w, err := ParseWeights(strings.Join(texts, " "))
		if err != nil {
			slog.Debug("ocr found no weight", "snippet", snippet(strings.Join(texts, " | "), 160))
			return Weights{}, ErrNoWeight
		}
		w.Confidence /= 2
		return w, nil
	}
	return best, nil
}
