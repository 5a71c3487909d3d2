package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DayTotal is an aggregated amount for one calendar day.
type DayTotal struct {
	Day   time.Time
	Total decimal.Decimal
}

// CashFlowRow is one day of the cash-flow statement.
type CashFlowRow struct {
	Date        time.Time       `json:"data"`
	Purchases   decimal.Decimal `json:"compras"`
	Payments    decimal.Decimal `json:"pagamentos"`
	DayBalance  decimal.Decimal `json:"saldo_dia"`
	Accumulated decimal.Decimal `json:"acumulado"`
}

// CashFlow is the per-day view of obligations taken (purchases) and cash paid
// out (payments) over a period.
type CashFlow struct {
	Rows           []CashFlowRow              `json:"dias"`
	TotalPurchases decimal.Decimal            `json:"total_compras"`
	TotalPayments  decimal.Decimal            `json:"total_pagamentos"`
	Balance        decimal.Decimal            `json:"saldo_periodo"`
	ByMethod       map[string]decimal.Decimal `json:"pagamentos_por_forma"`
}

// BuildCashFlow merges per-day purchase and payment totals into ordered rows.
// Days present in either input appear exactly once; duplicate days inside an
// input are summed.
func BuildCashFlow(purchases, payments []DayTotal, byMethod map[string]decimal.Decimal) CashFlow {
	type pair struct{ p, g decimal.Decimal }
	days := map[time.Time]*pair{}
	get := func(t time.Time) *pair {
		k := truncDay(t)
		if v, ok := days[k]; ok {
			return v
		}
		v := &pair{p: decimal.Zero, g: decimal.Zero}
		days[k] = v
		return v
	}
	for _, d := range purchases {
		v := get(d.Day)
		v.p = v.p.Add(d.Total)
	}
	for _, d := range payments {
		v := get(d.Day)
		v.g = v.g.Add(d.Total)
	}

	keys := make([]time.Time, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	cf := CashFlow{
		Rows:           make([]CashFlowRow, 0, len(keys)),
		TotalPurchases: decimal.Zero,
		TotalPayments:  decimal.Zero,
		ByMethod:       map[string]decimal.Decimal{},
	}
	acc := decimal.Zero
	for _, k := range keys {
		v := days[k]
		bal := v.p.Sub(v.g)
		acc = acc.Add(bal)
		cf.Rows = append(cf.Rows, CashFlowRow{
			Date:        k,
			Purchases:   v.p,
			Payments:    v.g,
			DayBalance:  bal,
			Accumulated: acc,
		})
		cf.TotalPurchases = cf.TotalPurchases.Add(v.p)
		cf.TotalPayments = cf.TotalPayments.Add(v.g)
	}
	cf.Balance = cf.TotalPurchases.Sub(cf.TotalPayments)
	for m, v := range byMethod {
		cf.ByMethod[m] = v
	}
	return cf
}
