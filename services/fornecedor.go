package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/FagnerMenezes/app-ubata-cacau-sub001/models"
	"github.com/FagnerMenezes/app-ubata-cacau-sub001/pkg/ledger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FornecedorInput is the writable part of a supplier.
type FornecedorInput struct {
	Nome        string `json:"nome" binding:"required,min=2,max=150"`
	Documento   string `json:"documento" binding:"omitempty,max=18"`
	Telefone    string `json:"telefone" binding:"omitempty,max=32"`
	Email       string `json:"email" binding:"omitempty,email,max=255"`
	Endereco    string `json:"endereco" binding:"omitempty,max=255"`
	Cidade      string `json:"cidade" binding:"omitempty,max=120"`
	Estado      string `json:"estado" binding:"omitempty,len=2,alpha"`
	Observacoes string `json:"observacoes"`
	Ativo       *bool  `json:"ativo"`
}

// FornecedorFilter narrows supplier listings.
type FornecedorFilter struct {
	Search string
	Ativo  *bool
}

// FornecedorService manages suppliers.
type FornecedorService struct {
	db  *gorm.DB
	log *slog.Logger
	inv *invalidator
}

// NormalizeDocumento strips punctuation from a CPF/CNPJ and checks its
// length. An empty document is allowed and yields nil.
func NormalizeDocumento(doc string) (*string, error) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		if unicode.IsSpace(r) || r == '.' || r == '-' || r == '/' {
			return -1
		}
		return 'x'
	}, doc)
	if digits == "" {
		return nil, nil
	}
	if strings.ContainsRune(digits, 'x') {
		return nil, validationf("documento must contain only digits and . - /")
	}
	if len(digits) != 11 && len(digits) != 14 {
		return nil, validationf("documento must have 11 (CPF) or 14 (CNPJ) digits")
	}
	return &digits, nil
}

func (in FornecedorInput) apply(f *models.Fornecedor) error {
	doc, err := NormalizeDocumento(in.Documento)
	if err != nil {
		return err
	}
	f.Nome = strings.TrimSpace(in.Nome)
	if len(f.Nome) < 2 {
		return validationf("nome is required")
	}
	f.Documento = doc
	f.Telefone = strings.TrimSpace(in.Telefone)
	f.Email = strings.TrimSpace(strings.ToLower(in.Email))
	f.Endereco = strings.TrimSpace(in.Endereco)
	f.Cidade = strings.TrimSpace(in.Cidade)
	f.Estado = strings.ToUpper(strings.TrimSpace(in.Estado))
	f.Observacoes = strings.TrimSpace(in.Observacoes)
	if in.Ativo != nil {
		f.Ativo = *in.Ativo
	}
	return nil
}

func (s *FornecedorService) List(ctx context.Context, f FornecedorFilter, p ledger.Page) ([]models.Fornecedor, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Fornecedor{})
	if f.Search != "" {
		pat := likePattern(f.Search)
		q = q.Where("LOWER(nome) LIKE ? OR documento LIKE ? OR LOWER(cidade) LIKE ?", pat, pat, pat)
	}
	if f.Ativo != nil {
		q = q.Where("ativo = ?", *f.Ativo)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "fornecedores")
	}
	items := []models.Fornecedor{}
	if err := q.Scopes(paginate(p)).Order("nome asc, id asc").Find(&items).Error; err != nil {
		return nil, 0, translate(err, "fornecedores")
	}
	return items, total, nil
}

func (s *FornecedorService) Get(ctx context.Context, id uint) (*models.Fornecedor, error) {
	var f models.Fornecedor
	if err := s.db.WithContext(ctx).First(&f, id).Error; err != nil {
		return nil, translate(err, "fornecedor")
	}
	return &f, nil
}

func (s *FornecedorService) Create(ctx context.Context, in FornecedorInput) (*models.Fornecedor, error) {
	f := models.Fornecedor{Ativo: true}
	if err := in.apply(&f); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&f).Error; err != nil {
		return nil, translate(err, "fornecedor documento")
	}
	s.inv.reports(ctx)
	s.log.Info("fornecedor created", "id", f.ID, "nome", f.Nome)
	return &f, nil
}

func (s *FornecedorService) Update(ctx context.Context, id uint, in FornecedorInput) (*models.Fornecedor, error) {
	f, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.apply(f); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Save(f).Error; err != nil {
		return nil, translate(err, "fornecedor documento")
	}
	s.inv.reports(ctx)
	return f, nil
}

// SetAtivo activates or deactivates a supplier.
func (s *FornecedorService) SetAtivo(ctx context.Context, id uint, ativo bool) (*models.Fornecedor, error) {
	f, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(f).Update("ativo", ativo).Error; err != nil {
		return nil, translate(err, "fornecedor")
	}
	f.Ativo = ativo
	s.inv.reports(ctx)
	return f, nil
}

// Delete removes a supplier that has no tickets, purchases or payments.
func (s *FornecedorService) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var f models.Fornecedor
		if err := tx.Scopes(forUpdate).First(&f, id).Error; err != nil {
			return translate(err, "fornecedor")
		}
		for _, dep := range []struct {
			model any
			name  string
		}{
			{&models.Ticket{}, "tickets"},
			{&models.Compra{}, "compras"},
			{&models.Pagamento{}, "pagamentos"},
		} {
			var n int64
			if err := tx.Model(dep.model).Where("fornecedor_id = ?", id).Count(&n).Error; err != nil {
				return translate(err, dep.name)
			}
			if n > 0 {
				return fmt.Errorf("fornecedor has %d %s, deactivate it instead: %w", n, dep.name, ledger.ErrConflict)
			}
		}
		if err := tx.Delete(&f).Error; err != nil {
			return translate(err, "fornecedor")
		}
		s.log.Info("fornecedor deleted", "id", id)
		return nil
	})
	if err != nil {
		return err
	}
	s.inv.reports(ctx)
	return nil
}

// Saldo sums the supplier's purchases and payments.
func (s *FornecedorService) Saldo(ctx context.Context, id uint) (*models.SaldoFornecedor, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	var agg struct {
		Qtd   int64
		Total decimal.Decimal
		Pago  decimal.Decimal
	}
	if err := db.Model(&models.Compra{}).
		Select("COUNT(*) AS qtd, COALESCE(SUM(valor_total),0) AS total, COALESCE(SUM(valor_pago),0) AS pago").
		Where("fornecedor_id = ?", id).Scan(&agg).Error; err != nil {
		return nil, translate(err, "compras")
	}
	var pend int64
	if err := db.Model(&models.Ticket{}).
		Where("fornecedor_id = ? AND status = ?", id, ledger.TicketPendente).Count(&pend).Error; err != nil {
		return nil, translate(err, "tickets")
	}
	return &models.SaldoFornecedor{
		FornecedorID:      id,
		QuantidadeCompras: agg.Qtd,
		TicketsPendentes:  pend,
		TotalCompras:      agg.Total,
		TotalPago:         agg.Pago,
		SaldoDevedor:      ledger.RemainingBalance(agg.Total, agg.Pago),
	}, nil
}
