package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FormaPagamento is how a payment was made.
type FormaPagamento string

const (
	FormaDinheiro      FormaPagamento = "DINHEIRO"
	FormaPix           FormaPagamento = "PIX"
	FormaTransferencia FormaPagamento = "TRANSFERENCIA"
	FormaCheque        FormaPagamento = "CHEQUE"
)

func (f FormaPagamento) Valid() bool {
	switch f {
	case FormaDinheiro, FormaPix, FormaTransferencia, FormaCheque:
		return true
	}
	return false
}

// Pagamento is a payment applied against a purchase.
type Pagamento struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	CompraID       uint            `gorm:"index;not null" json:"compra_id"`
	Compra         *Compra         `gorm:"foreignKey:CompraID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"compra,omitempty"`
	FornecedorID   uint            `gorm:"index;not null" json:"fornecedor_id"`
	Fornecedor     *Fornecedor     `gorm:"foreignKey:FornecedorID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"fornecedor,omitempty"`
	Valor          decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"valor"`
	DataPagamento  time.Time       `gorm:"type:date;not null;index" json:"data_pagamento"`
	FormaPagamento FormaPagamento  `gorm:"size:20;not null" json:"forma_pagamento"`
	Observacoes    string          `gorm:"type:text" json:"observacoes"`
}
