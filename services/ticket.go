package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/FagnerMenezes/app-ubata-cacau-sub001/models"
	"github.com/FagnerMenezes/app-ubata-cacau-sub001/pkg/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TicketInput is the writable part of a weigh-in ticket.
type TicketInput struct {
	FornecedorID uint             `json:"fornecedor_id" binding:"required"`
	Numero       string           `json:"numero" binding:"omitempty,max=40"`
	DataPesagem  string           `json:"data_pesagem"`
	Produto      models.Produto   `json:"produto"`
	PesoBruto    decimal.Decimal  `json:"peso_bruto"`
	Tara         decimal.Decimal  `json:"tara"`
	Umidade      *decimal.Decimal `json:"umidade"`
	Observacoes  string           `json:"observacoes"`
}

// TicketFilter narrows ticket listings.
type TicketFilter struct {
	Status       ledger.TicketStatus
	FornecedorID uint
	Period       Period
	Search       string
}

// TicketService manages weigh-in tickets.
type TicketService struct {
	db  *gorm.DB
	log *slog.Logger
	inv *invalidator
}

// NewTicketNumero builds a ticket number such as TK-20250314-3F9A1C.
func NewTicketNumero(day time.Time) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("TK-%s-%s", day.Format("20060102"), id[:6])
}

func (s *TicketService) List(ctx context.Context, f TicketFilter, p ledger.Page) ([]models.Ticket, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Ticket{}).Scopes(inPeriod("data_pesagem", f.Period))
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
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
		return nil, 0, translate(err, "tickets")
	}
	items := []models.Ticket{}
	if err := q.Preload("Fornecedor").Scopes(paginate(p)).
		Order("data_pesagem desc, id desc").Find(&items).Error; err != nil {
		return nil, 0, translate(err, "tickets")
	}
	return items, total, nil
}

func (s *TicketService) Get(ctx context.Context, id uint) (*models.Ticket, error) {
	var t models.Ticket
	if err := s.db.WithContext(ctx).Preload("Fornecedor").First(&t, id).Error; err != nil {
		return nil, translate(err, "ticket")
	}
	return &t, nil
}

// activeFornecedor loads the supplier and refuses inactive ones.
func activeFornecedor(tx *gorm.DB, id uint) (*models.Fornecedor, error) {
	var f models.Fornecedor
	if err := tx.First(&f, id).Error; err != nil {
		return nil, translate(err, "fornecedor")
	}
	if !f.Ativo {
		return nil, validationf("fornecedor %d is inactive", id)
	}
	return &f, nil
}

func (in TicketInput) apply(t *models.Ticket, now time.Time) error {
	net, err := ledger.NetWeight(in.PesoBruto, in.Tara)
	if err != nil {
		return err
	}
	if err := ledger.CheckUmidade(in.Umidade); err != nil {
		return err
	}
	day, err := ParseDate(in.DataPesagem, now)
	if err != nil {
		return err
	}
	prod := in.Produto
	if prod == "" {
		prod = models.ProdutoAmendoa
	}
	if !prod.Valid() {
		return validationf("produto must be %s or %s", models.ProdutoAmendoa, models.ProdutoMole)
	}
	t.FornecedorID = in.FornecedorID
	t.DataPesagem = day
	t.Produto = prod
	t.PesoBruto = ledger.Round2(in.PesoBruto)
	t.Tara = ledger.Round2(in.Tara)
	t.PesoLiquido = net
	t.Umidade = in.Umidade
	t.Observacoes = strings.TrimSpace(in.Observacoes)
	if n := strings.TrimSpace(in.Numero); n != "" {
		t.Numero = n
	}
	return nil
}

func (s *TicketService) Create(ctx context.Context, in TicketInput) (*models.Ticket, error) {
	t := models.Ticket{Status: ledger.TicketPendente}
	if err := in.apply(&t, time.Now()); err != nil {
		return nil, err
	}
	if t.Numero == "" {
		t.Numero = NewTicketNumero(t.DataPesagem)
	}
	db := s.db.WithContext(ctx)
	if _, err := activeFornecedor(db, t.FornecedorID); err != nil {
		return nil, err
	}
	if err := db.Create(&t).Error; err != nil {
		return nil, translate(err, "ticket numero")
	}
	s.inv.reports(ctx)
	s.log.Info("ticket created", "id", t.ID, "numero", t.Numero, "peso_liquido", t.PesoLiquido.String())
	return &t, nil
}

// Update changes a PENDENTE ticket.
func (s *TicketService) Update(ctx context.Context, id uint, in TicketInput) (*models.Ticket, error) {
	var out models.Ticket
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(forUpdate).First(&out, id).Error; err != nil {
			return translate(err, "ticket")
		}
		if err := ledger.CanEdit(out.Status); err != nil {
			return err
		}
		if err := in.apply(&out, out.DataPesagem); err != nil {
			return err
		}
		if _, err := activeFornecedor(tx, out.FornecedorID); err != nil {
			return err
		}
		out.Fornecedor = nil
		return translate(tx.Save(&out).Error, "ticket numero")
	})
	if err != nil {
		return nil, err
	}
	s.inv.reports(ctx)
	return &out, nil
}

// Cancel moves a PENDENTE ticket to CANCELADO.
func (s *TicketService) Cancel(ctx context.Context, id uint) (*models.Ticket, error) {
	var out models.Ticket
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(forUpdate).First(&out, id).Error; err != nil {
			return translate(err, "ticket")
		}
		if err := ledger.CanCancel(out.Status); err != nil {
			return err
		}
		out.Status = ledger.TicketCancelado
		return translate(tx.Model(&out).Update("status", out.Status).Error, "ticket")
	})
	if err != nil {
		return nil, err
	}
	s.inv.reports(ctx)
	s.log.Info("ticket cancelled", "id", id)
	return &out, nil
}

// Delete removes a PENDENTE ticket.
func (s *TicketService) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t models.Ticket
		if err := tx.Scopes(forUpdate).First(&t, id).Error; err != nil {
			return translate(err, "ticket")
		}
		if err := ledger.CanEdit(t.Status); err != nil {
			return err
		}
		return translate(tx.Delete(&t).Error, "ticket")
	})
	if err == nil {
		s.inv.reports(ctx)
	}
	return err
}
