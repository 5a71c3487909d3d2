package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind tells whether a statement line raises or settles the debt
// owed to a supplier.
type EntryKind string

const (
	EntryCompra    EntryKind = "COMPRA"
	EntryPagamento EntryKind = "PAGAMENTO"
)

// StatementEntry is one purchase or payment of a supplier.
type StatementEntry struct {
	Date        time.Time       `json:"data"`
	Kind        EntryKind       `json:"tipo"`
	RefID       uint            `json:"referencia_id"`
	Description string          `json:"descricao"`
	Debit       decimal.Decimal `json:"debito"`
	Credit      decimal.Decimal `json:"credito"`
	Balance     decimal.Decimal `json:"saldo"`
}

// Statement is a supplier statement for a period.
type Statement struct {
	Opening      decimal.Decimal  `json:"saldo_anterior"`
	Entries      []StatementEntry `json:"lancamentos"`
	TotalDebits  decimal.Decimal  `json:"total_compras"`
	TotalCredits decimal.Decimal  `json:"total_pagamentos"`
	Closing      decimal.Decimal  `json:"saldo_final"`
}

// BuildStatement orders entries chronologically and fills the running
// balance starting from opening. Purchases come before payments on the same
// day, then lower ids first. The input slice is not modified.
func BuildStatement(opening decimal.Decimal, entries []StatementEntry) Statement {
	sorted := make([]StatementEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		ad, bd := truncDay(a.Date), truncDay(b.Date)
		if !ad.Equal(bd) {
			return ad.Before(bd)
		}
		if a.Kind != b.Kind {
			return a.Kind == EntryCompra
		}
		return a.RefID < b.RefID
	})

	st := Statement{
		Opening:      opening,
		Entries:      sorted,
		TotalDebits:  decimal.Zero,
		TotalCredits: decimal.Zero,
	}
	bal := opening
	for i := range st.Entries {
		e := &st.Entries[i]
		bal = bal.Add(e.Debit).Sub(e.Credit)
		e.Balance = bal
		st.TotalDebits = st.TotalDebits.Add(e.Debit)
		st.TotalCredits = st.TotalCredits.Add(e.Credit)
	}
	st.Closing = bal
	return st
}

func truncDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
