package ocr

import "github.com/shopspring/decimal"

// MaxWeightKg is the upper bound of a truck scale reading.
var MaxWeightKg = decimal.NewFromInt(100000)

// isPlausibleWeight rejects negative readings and values above the scale
// capacity, which usually are ticket numbers or dates read as weights.
func isPlausibleWeight(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(MaxWeightKg)
}

// consistent reports whether gross - tare matches net within 1 kg.
func consistent(gross, tare, net decimal.Decimal) bool {
	return gross.Sub(tare).Sub(net).Abs().LessThanOrEqual(decimal.NewFromInt(1))
}
