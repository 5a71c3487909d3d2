package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/FagnerMenezes/app-ubata-cacau-sub001/models"
	"github.com/FagnerMenezes/app-ubata-cacau-sub001/pkg/ledger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CompraInput converts a ticket into a purchase.
type CompraInput struct {
	TicketID    uint            `json:"ticket_id"`
	PrecoKg     decimal.Decimal `json:"preco_kg"`
	DataCompra  string          `json:"data_compra"`
	Observacoes string          `json:"observacoes"`
}

// CompraUpdate holds the editable fields of a purchase. Nil fields are kept.
type CompraUpdate struct {
	PrecoKg     *decimal.Decimal `json:"preco_kg"`
	DataCompra  *string          `json:"data_compra"`
	Observacoes *string          `json:"observacoes"`
}

// CompraFilter narrows purchase listings.
type CompraFilter struct {
	Status       ledger.PaymentStatus
	FornecedorID uint
	Period       Period
	Search       string
}

// CompraService manages purchases.
type CompraService struct {
	db  *gorm.DB
	log *slog.Logger
	inv *invalidator
}

// CompraNumero derives the purchase number from its ticket id; one purchase
// exists per ticket so the number is unique.
func CompraNumero(ticketID uint) string {
	return fmt.Sprintf("CP-%06d", ticketID)
}

func (s *CompraService) List(ctx context.Context, f CompraFilter, p ledger.Page) ([]models.CompraView, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Compra{}).Scopes(inPeriod("data_compra", f.Period))
	if f.Status != "" {
		q = q.Where("status_pagamento = ?", f.Status)
	}
	if f.FornecedorID != 0 {
		q = q.Where("fornecedor_id = ?", f.FornecedorID)
	}
	if f.Search != "" {
		q = q.Where("LOWER(numero) LIKE ?", likePattern(f.Search))
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "compras")
	}
	var rows []models.Compra
	if err := q.Preload("Fornecedor").Preload("Ticket").Scopes(paginate(p)).
		Order("data_compra desc, id desc").Find(&rows).Error; err != nil {
		return nil, 0, translate(err, "compras")
	}
	out := make([]models.CompraView, 0, len(rows))
	for _, c := range rows {
		out = append(out, models.NewCompraView(c))
	}
	return out, total, nil
}

// Get returns the purchase with its payments.
func (s *CompraService) Get(ctx context.Context, id uint) (*models.CompraView, error) {
	var c models.Compra
	err := s.db.WithContext(ctx).
		Preload("Fornecedor").Preload("Ticket").
		Preload("Pagamentos", func(db *gorm.DB) *gorm.DB { return db.Order("data_pagamento asc, id asc") }).
		First(&c, id).Error
	if err != nil {
		return nil, translate(err, "compra")
	}
	v := models.NewCompraView(c)
	return &v, nil
}

// Create converts a PENDENTE ticket into a purchase. The purchase insert and
// the ticket status change commit together.
func (s *CompraService) Create(ctx context.Context, in CompraInput) (*models.CompraView, error) {
	if in.TicketID == 0 {
		return nil, validationf("ticket_id is required")
	}
	day, err := ParseDate(in.DataCompra, time.Now())
	if err != nil {
		return nil, err
	}
	var c models.Compra
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t models.Ticket
		if err := tx.Scopes(forUpdate).First(&t, in.TicketID).Error; err != nil {
			return translate(err, "ticket")
		}
		if err := ledger.CanConvert(t.Status); err != nil {
			return err
		}
		if _, err := activeFornecedor(tx, t.FornecedorID); err != nil {
			return err
		}
		total, err := ledger.PurchaseValue(t.PesoLiquido, in.PrecoKg)
		if err != nil {
			return err
		}
		c = models.Compra{
			Numero:       CompraNumero(t.ID),
			TicketID:     t.ID,
			FornecedorID: t.FornecedorID,
			DataCompra:   day,
			PesoKg:       t.PesoLiquido,
			PrecoKg:      ledger.RoundPrice(in.PrecoKg),
			ValorTotal:   total,
			Observacoes:  strings.TrimSpace(in.Observacoes),
		}
		c.ApplyPaid(decimal.Zero)
		if err := tx.Create(&c).Error; err != nil {
			return translate(err, "compra for ticket")
		}
		if err := tx.Model(&t).Update("status", ledger.TicketConvertido).Error; err != nil {
			return translate(err, "ticket")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.inv.reports(ctx)
	s.log.Info("ticket converted", "ticket_id", in.TicketID, "compra_id", c.ID, "valor_total", c.ValorTotal.StringFixed(2))
	return s.Get(ctx, c.ID)
}

// Update reprices or annotates a purchase. The new total may not fall below
// the amount already paid.
func (s *CompraService) Update(ctx context.Context, id uint, in CompraUpdate) (*models.CompraView, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Compra
		if err := tx.Scopes(forUpdate).First(&c, id).Error; err != nil {
			return translate(err, "compra")
		}
		if in.PrecoKg != nil {
			total, err := ledger.PurchaseValue(c.PesoKg, *in.PrecoKg)
			if err != nil {
				return err
			}
			if err := ledger.CheckPriceChange(total, c.ValorPago); err != nil {
				return err
			}
			c.PrecoKg = ledger.RoundPrice(*in.PrecoKg)
			c.ValorTotal = total
			c.ApplyPaid(c.ValorPago)
		}
		if in.DataCompra != nil {
			day, err := ParseDate(*in.DataCompra, c.DataCompra)
			if err != nil {
				return err
			}
			c.DataCompra = day
		}
		if in.Observacoes != nil {
			c.Observacoes = strings.TrimSpace(*in.Observacoes)
		}
		return translate(tx.Save(&c).Error, "compra")
	})
	if err != nil {
		return nil, err
	}
	s.inv.reports(ctx)
	return s.Get(ctx, id)
}

// Delete removes a purchase without payments and returns its ticket to
// PENDENTE.
func (s *CompraService) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Compra
		if err := tx.Scopes(forUpdate).First(&c, id).Error; err != nil {
			return translate(err, "compra")
		}
		var n int64
		if err := tx.Model(&models.Pagamento{}).Where("compra_id = ?", id).Count(&n).Error; err != nil {
			return translate(err, "pagamentos")
		}
		if n > 0 {
			return fmt.Errorf("compra has %d pagamentos, remove them first: %w", n, ledger.ErrConflict)
		}
		var t models.Ticket
		if err := tx.Scopes(forUpdate).First(&t, c.TicketID).Error; err != nil {
			return translate(err, "ticket")
		}
		if err := ledger.CanRevert(t.Status); err != nil {
			return err
		}
		if err := tx.Delete(&c).Error; err != nil {
			return translate(err, "compra")
		}
		return translate(tx.Model(&t).Update("status", ledger.TicketPendente).Error, "ticket")
	})
	if err != nil {
		return err
	}
	s.inv.reports(ctx)
	s.log.Info("compra deleted, ticket reverted", "compra_id", id)
	return nil
}

// Pagamentos lists the payments of a purchase.
func (s *CompraService) Pagamentos(ctx context.Context, id uint) ([]models.Pagamento, error) {
	db := s.db.WithContext(ctx)
	var n int64
	if err := db.Model(&models.Compra{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return nil, translate(err, "compra")
	}
	if n == 0 {
		return nil, fmt.Errorf("compra %d: %w", id, ledger.ErrNotFound)
	}
	out := []models.Pagamento{}
	if err := db.Where("compra_id = ?", id).Order("data_pagamento asc, id asc").Find(&out).Error; err != nil {
		return nil, translate(err, "pagamentos")
	}
	return out, nil
}

// recompute re-sums the payments of c inside tx and stores the paid amount
// and status.
func recompute(tx *gorm.DB, c *models.Compra) error {
	paid, err := sumPagamentos(tx, c.ID, 0)
	if err != nil {
		return err
	}
	c.ApplyPaid(paid)
	return translate(tx.Model(c).Updates(map[string]any{
		"valor_pago":       c.ValorPago,
		"status_pagamento": c.StatusPagamento,
	}).Error, "compra")
}

// sumPagamentos sums the payments of a purchase, skipping exceptID when set.
func sumPagamentos(tx *gorm.DB, compraID, exceptID uint) (decimal.Decimal, error) {
	var agg struct{ Total decimal.Decimal }
	q := tx.Model(&models.Pagamento{}).Select("COALESCE(SUM(valor),0) AS total").Where("compra_id = ?", compraID)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Scan(&agg).Error; err != nil {
		return decimal.Zero, translate(err, "pagamentos")
	}
	return agg.Total, nil
}
