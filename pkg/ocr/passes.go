package ocr

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// Languages are the Tesseract models loaded for every pass.
var Languages = []string{"por", "eng"}

// whitelist keeps digits, separators and the letters of the labels printed
// by scale terminals.
const whitelist = "0123456789.,:-/ ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyzÍí"

var pageModes = []gosseract.PageSegMode{gosseract.PSM_SINGLE_BLOCK, gosseract.PSM_SPARSE_TEXT}

// runPasses OCRs every preprocessed variant with each page mode and returns
// the texts that came out non-empty.
func runPasses(path string) ([]string, error) {
	src, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(Languages...); err != nil {
		return nil, err
	}
	if err := client.SetWhitelist(whitelist); err != nil {
		return nil, err
	}

	var texts []string
	var lastErr error
	for _, v := range prepare(src) {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, v.img, imaging.PNG); err != nil {
			return nil, fmt.Errorf("encode %s: %w", v.name, err)
		}
		for _, mode := range pageModes {
			if err := client.SetPageSegMode(mode); err != nil {
				lastErr = err
				continue
			}
			if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
				lastErr = err
				continue
			}
			t, err := client.Text()
			if err != nil {
				lastErr = err
				continue
			}
			if t = normalizeOCRText(t); t != "" {
				texts = append(texts, t)
			}
		}
	}
	if len(texts) == 0 && lastErr != nil {
		return nil, fmt.Errorf("ocr error: %w", lastErr)
	}
	slog.Debug("ocr passes done", "path", path, "texts", len(texts))
	return texts, nil
}
