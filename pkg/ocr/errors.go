package ocr

import "errors"

// ErrNoWeight is returned when no plausible scale reading can be extracted.
var ErrNoWeight = errors.New("no weight detected")
