package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MaxUmidade is the upper bound for the moisture percentage of a reading.
var MaxUmidade = decimal.NewFromInt(100)

// Round2 rounds half away from zero to cents (or to 10g for weights).
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// PriceScale is the number of decimals kept for a price per kilogram; it
// matches the numeric(12,4) column.
const PriceScale = 4

// RoundPrice rounds a price per kilogram to PriceScale decimals.
func RoundPrice(d decimal.Decimal) decimal.Decimal {
	return d.Round(PriceScale)
}

// NetWeight returns gross minus tare. Gross must be positive, tare non
// negative and the result strictly positive.
func NetWeight(gross, tare decimal.Decimal) (decimal.Decimal, error) {
	if !gross.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: peso_bruto must be greater than zero", ErrValidation)
	}
	if tare.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: tara cannot be negative", ErrValidation)
	}
	net := Round2(gross.Sub(tare))
	if !net.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: tara must be lower than peso_bruto", ErrValidation)
	}
	return net, nil
}

// CheckUmidade validates an optional moisture percentage.
func CheckUmidade(u *decimal.Decimal) error {
	if u == nil {
		return nil
	}
	if u.IsNegative() || u.GreaterThan(MaxUmidade) {
		return fmt.Errorf("%w: umidade must be between 0 and 100", ErrValidation)
	}
	return nil
}

// PurchaseValue is weight times the stored price per kilogram (see
// RoundPrice), rounded to cents.
func PurchaseValue(weight, pricePerKg decimal.Decimal) (decimal.Decimal, error) {
	pricePerKg = RoundPrice(pricePerKg)
	if !weight.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: peso must be greater than zero", ErrValidation)
	}
	if !pricePerKg.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: preco_kg must be greater than zero", ErrValidation)
	}
	return Round2(weight.Mul(pricePerKg)), nil
}

// RemainingBalance is total minus paid, never below zero.
func RemainingBalance(total, paid decimal.Decimal) decimal.Decimal {
	r := total.Sub(paid)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// CheckPayment validates that amount can be applied to a purchase of the
// given total that already received alreadyPaid.
func CheckPayment(total, alreadyPaid, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: valor must be greater than zero", ErrValidation)
	}
	if alreadyPaid.Add(amount).GreaterThan(total) {
		return fmt.Errorf("%w: remaining %s, requested %s",
			ErrOverpayment, RemainingBalance(total, alreadyPaid).StringFixed(2), amount.StringFixed(2))
	}
	return nil
}

// CheckPriceChange refuses a new total that is lower than what was paid.
func CheckPriceChange(newTotal, paid decimal.Decimal) error {
	if newTotal.LessThan(paid) {
		return fmt.Errorf("%w: new total %s is lower than the %s already paid",
			ErrOverpayment, newTotal.StringFixed(2), paid.StringFixed(2))
	}
	return nil
}

// Sum adds the given values.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
