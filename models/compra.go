package models

import (
	"time"

	"github.com/FagnerMenezes/app-ubata-cacau-sub001/pkg/ledger"
	"github.com/shopspring/decimal"
)

// Compra is a purchase created from a ticket at a negotiated price.
type Compra struct {
	ID              uint                 `gorm:"primaryKey" json:"id"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
	Numero          string               `gorm:"size:40;not null;uniqueIndex" json:"numero"`
	TicketID        uint                 `gorm:"not null;uniqueIndex" json:"ticket_id"`
	Ticket          *Ticket              `gorm:"foreignKey:TicketID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"ticket,omitempty"`
	FornecedorID    uint                 `gorm:"index;not null" json:"fornecedor_id"`
	Fornecedor      *Fornecedor          `gorm:"foreignKey:FornecedorID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"fornecedor,omitempty"`
	DataCompra      time.Time            `gorm:"type:date;not null;index" json:"data_compra"`
	PesoKg          decimal.Decimal      `gorm:"type:numeric(12,2);not null" json:"peso_kg"`
	PrecoKg         decimal.Decimal      `gorm:"type:numeric(12,4);not null" json:"preco_kg"`
	ValorTotal      decimal.Decimal      `gorm:"type:numeric(14,2);not null" json:"valor_total"`
	ValorPago       decimal.Decimal      `gorm:"type:numeric(14,2);not null;default:0" json:"valor_pago"`
	StatusPagamento ledger.PaymentStatus `gorm:"size:20;not null;default:PENDENTE;index" json:"status_pagamento"`
	Observacoes     string               `gorm:"type:text" json:"observacoes"`
	Pagamentos      []Pagamento          `gorm:"foreignKey:CompraID" json:"pagamentos,omitempty"`
}

// SaldoRestante is what is still owed on the purchase.
func (c *Compra) SaldoRestante() decimal.Decimal {
	return ledger.RemainingBalance(c.ValorTotal, c.ValorPago)
}

// ApplyPaid sets the paid amount and re-derives the payment status.
func (c *Compra) ApplyPaid(paid decimal.Decimal) {
	c.ValorPago = paid
	c.StatusPagamento = ledger.DerivePaymentStatus(c.ValorTotal, paid)
}

// CompraView is a purchase with its remaining balance, as returned by the API.
type CompraView struct {
	Compra
	SaldoRestante decimal.Decimal `json:"saldo_restante"`
}

// NewCompraView wraps c with its derived balance.
func NewCompraView(c Compra) CompraView {
	return CompraView{Compra: c, SaldoRestante: c.SaldoRestante()}
}
