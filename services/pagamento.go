package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/FagnerMenezes/app-ubata-cacau-sub001/models"
	"github.com/FagnerMenezes/app-ubata-cacau-sub001/pkg/ledger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PagamentoInput registers a payment against a purchase.
type PagamentoInput struct {
	CompraID       uint                  `json:"compra_id" binding:"required"`
	Valor          decimal.Decimal       `json:"valor"`
	DataPagamento  string                `json:"data_pagamento"`
	FormaPagamento models.FormaPagamento `json:"forma_pagamento" binding:"required"`
	Observacoes    string                `json:"observacoes"`
}

// PagamentoUpdate holds the editable fields of a payment. Nil fields are kept.
type PagamentoUpdate struct {
	Valor          *decimal.Decimal       `json:"valor"`
	DataPagamento  *string                `json:"data_pagamento"`
	FormaPagamento *models.FormaPagamento `json:"forma_pagamento"`
	Observacoes    *string                `json:"observacoes"`
}

// PagamentoFilter narrows payment listings.
type PagamentoFilter struct {
	CompraID       uint
	FornecedorID   uint
	FormaPagamento models.FormaPagamento
	Period         Period
}

// PagamentoService applies payments to purchases. Every write locks the
// purchase row, re-sums its payments and stores the derived status in the
// same transaction.
type PagamentoService struct {
	db  *gorm.DB
	log *slog.Logger
	inv *invalidator
}

func (s *PagamentoService) List(ctx context.Context, f PagamentoFilter, p ledger.Page) ([]models.Pagamento, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Pagamento{}).Scopes(inPeriod("data_pagamento", f.Period))
	if f.CompraID != 0 {
		q = q.Where("compra_id = ?", f.CompraID)
	}
	if f.FornecedorID != 0 {
		q = q.Where("fornecedor_id = ?", f.FornecedorID)
	}
	if f.FormaPagamento != "" {
		q = q.Where("forma_pagamento = ?", f.FormaPagamento)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "pagamentos")
	}
	items := []models.Pagamento{}
	if err := q.Preload("Fornecedor").Preload("Compra").Scopes(paginate(p)).
		Order("data_pagamento desc, id desc").Find(&items).Error; err != nil {
		return nil, 0, translate(err, "pagamentos")
	}
	return items, total, nil
}

func (s *PagamentoService) Get(ctx context.Context, id uint) (*models.Pagamento, error) {
	var p models.Pagamento
	if err := s.db.WithContext(ctx).Preload("Fornecedor").Preload("Compra").First(&p, id).Error; err != nil {
		return nil, translate(err, "pagamento")
	}
	return &p, nil
}

func checkForma(f models.FormaPagamento) error {
	if !f.Valid() {
		return validationf("forma_pagamento must be one of DINHEIRO, PIX, TRANSFERENCIA, CHEQUE")
	}
	return nil
}

// Create applies a payment. Amounts above the remaining balance are refused
// with ledger.ErrOverpayment.
func (s *PagamentoService) Create(ctx context.Context, in PagamentoInput) (*models.Pagamento, error) {
	if err := checkForma(in.FormaPagamento); err != nil {
		return nil, err
	}
	day, err := ParseDate(in.DataPagamento, time.Now())
	if err != nil {
		return nil, err
	}
	var p models.Pagamento
	var status ledger.PaymentStatus
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Compra
		if err := tx.Scopes(forUpdate).First(&c, in.CompraID).Error; err != nil {
			return translate(err, "compra")
		}
		paid, err := sumPagamentos(tx, c.ID, 0)
		if err != nil {
			return err
		}
		valor := ledger.Round2(in.Valor)
		if err := ledger.CheckPayment(c.ValorTotal, paid, valor); err != nil {
			return err
		}
		p = models.Pagamento{
			CompraID:       c.ID,
			FornecedorID:   c.FornecedorID,
			Valor:          valor,
			DataPagamento:  day,
			FormaPagamento: in.FormaPagamento,
			Observacoes:    strings.TrimSpace(in.Observacoes),
		}
		if err := tx.Create(&p).Error; err != nil {
			return translate(err, "pagamento")
		}
		if err := recompute(tx, &c); err != nil {
			return err
		}
		status = c.StatusPagamento
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.inv.reports(ctx)
	s.log.Info("pagamento applied", "id", p.ID, "compra_id", p.CompraID, "valor", p.Valor.StringFixed(2), "status", status)
	return s.Get(ctx, p.ID)
}

// Update changes a payment, checking the ceiling against the other payments.
func (s *PagamentoService) Update(ctx context.Context, id uint, in PagamentoUpdate) (*models.Pagamento, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Pagamento
		if err := tx.First(&p, id).Error; err != nil {
			return translate(err, "pagamento")
		}
		var c models.Compra
		if err := tx.Scopes(forUpdate).First(&c, p.CompraID).Error; err != nil {
			return translate(err, "compra")
		}
		if in.Valor != nil {
			others, err := sumPagamentos(tx, c.ID, p.ID)
			if err != nil {
				return err
			}
			valor := ledger.Round2(*in.Valor)
			if err := ledger.CheckPayment(c.ValorTotal, others, valor); err != nil {
				return err
			}
			p.Valor = valor
		}
		if in.FormaPagamento != nil {
			if err := checkForma(*in.FormaPagamento); err != nil {
				return err
			}
			p.FormaPagamento = *in.FormaPagamento
		}
		if in.DataPagamento != nil {
			day, err := ParseDate(*in.DataPagamento, p.DataPagamento)
			if err != nil {
				return err
			}
			p.DataPagamento = day
		}
		if in.Observacoes != nil {
			p.Observacoes = strings.TrimSpace(*in.Observacoes)
		}
		if err := tx.Save(&p).Error; err != nil {
			return translate(err, "pagamento")
		}
		return recompute(tx, &c)
	})
	if err != nil {
		return nil, err
	}
	s.inv.reports(ctx)
	return s.Get(ctx, id)
}

// Delete removes a payment and re-derives its purchase status.
func (s *PagamentoService) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Pagamento
		if err := tx.First(&p, id).Error; err != nil {
			return translate(err, "pagamento")
		}
		var c models.Compra
		if err := tx.Scopes(forUpdate).First(&c, p.CompraID).Error; err != nil {
			return translate(err, "compra")
		}
		if err := tx.Delete(&p).Error; err != nil {
			return translate(err, "pagamento")
		}
		return recompute(tx, &c)
	})
	if err != nil {
		return err
	}
	s.inv.reports(ctx)
	s.log.Info("pagamento deleted", "id", id)
	return nil
}
