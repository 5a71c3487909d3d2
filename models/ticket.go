package models

import (
	"time"

	"github.com/FagnerMenezes/app-ubata-cacau-sub001/pkg/ledger"
	"github.com/shopspring/decimal"
)

// Produto is the kind of cocoa delivered.
type Produto string

const (
	ProdutoAmendoa Produto = "CACAU_AMENDOA"
	ProdutoMole    Produto = "CACAU_MOLE"
)

func (p Produto) Valid() bool {
	return p == ProdutoAmendoa || p == ProdutoMole
}

// Ticket is a weigh-in of a supplier delivery, pending conversion into a
// purchase.
type Ticket struct {
	ID           uint                `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	Numero       string              `gorm:"size:40;not null;uniqueIndex" json:"numero"`
	FornecedorID uint                `gorm:"index;not null" json:"fornecedor_id"`
	Fornecedor   *Fornecedor         `gorm:"foreignKey:FornecedorID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"fornecedor,omitempty"`
	DataPesagem  time.Time           `gorm:"type:date;not null;index" json:"data_pesagem"`
	Produto      Produto             `gorm:"size:20;not null;default:CACAU_AMENDOA" json:"produto"`
	PesoBruto    decimal.Decimal     `gorm:"type:numeric(12,2);not null" json:"peso_bruto"`
	Tara         decimal.Decimal     `gorm:"type:numeric(12,2);not null;default:0" json:"tara"`
	PesoLiquido  decimal.Decimal     `gorm:"type:numeric(12,2);not null" json:"peso_liquido"`
	Umidade      *decimal.Decimal    `gorm:"type:numeric(5,2)" json:"umidade"`
	Status       ledger.TicketStatus `gorm:"size:20;not null;default:PENDENTE;index" json:"status"`
	Observacoes  string              `gorm:"type:text" json:"observacoes"`
}
