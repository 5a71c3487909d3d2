package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// amounts go to the SPA as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// Fornecedor is a cocoa supplier.
type Fornecedor struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Nome        string    `gorm:"size:150;not null;index" json:"nome"`
	Documento   *string   `gorm:"size:14;uniqueIndex" json:"documento"` // CPF or CNPJ digits
	Telefone    string    `gorm:"size:32" json:"telefone"`
	Email       string    `gorm:"size:255" json:"email"`
	Endereco    string    `gorm:"size:255" json:"endereco"`
	Cidade      string    `gorm:"size:120" json:"cidade"`
	Estado      string    `gorm:"size:2" json:"estado"`
	Observacoes string    `gorm:"type:text" json:"observacoes"`
	Ativo       bool      `gorm:"not null;index" json:"ativo"`
}

func (Fornecedor) TableName() string { return "fornecedores" }

// SaldoFornecedor is the balance of a supplier computed from its purchases
// and payments.
type SaldoFornecedor struct {
	FornecedorID      uint            `json:"fornecedor_id"`
	QuantidadeCompras int64           `json:"quantidade_compras"`
	TicketsPendentes  int64           `json:"tickets_pendentes"`
	TotalCompras      decimal.Decimal `json:"total_compras"`
	TotalPago         decimal.Decimal `json:"total_pago"`
	SaldoDevedor      decimal.Decimal `json:"saldo_devedor"`
}
