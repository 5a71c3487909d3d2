package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/FagnerMenezes/app-ubata-cacau-sub001/models"
	"github.com/FagnerMenezes/app-ubata-cacau-sub001/pkg/cache"
	"github.com/FagnerMenezes/app-ubata-cacau-sub001/pkg/ledger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MaxCashFlowDays bounds the cash-flow period.
const MaxCashFlowDays = 366

// seriesMonths is the length of the dashboard monthly series.
const seriesMonths = 6

// ResumoCompras aggregates purchases of a period.
type ResumoCompras struct {
	Quantidade int64           `json:"quantidade"`
	PesoKg     decimal.Decimal `json:"peso_kg"`
	Valor      decimal.Decimal `json:"valor"`
}

// TopFornecedor ranks suppliers by purchased value.
type TopFornecedor struct {
	FornecedorID uint            `json:"fornecedor_id"`
	Nome         string          `json:"nome"`
	Valor        decimal.Decimal `json:"valor"`
	PesoKg       decimal.Decimal `json:"peso_kg"`
}

// MesResumo is one month of the dashboard series.
type MesResumo struct {
	Mes         string          `json:"mes"` // YYYY-MM
	ValorCompra decimal.Decimal `json:"valor_comprado"`
	ValorPago   decimal.Decimal `json:"valor_pago"`
	PesoKg      decimal.Decimal `json:"peso_kg"`
}

// PeriodoJSON is the period echoed back to clients.
type PeriodoJSON struct {
	Inicio string `json:"data_inicio"`
	Fim    string `json:"data_fim"`
}

func periodJSON(p Period) PeriodoJSON {
	var out PeriodoJSON
	if !p.From.IsZero() {
		out.Inicio = p.From.Format(DateLayout)
	}
	if !p.To.IsZero() {
		out.Fim = p.To.Format(DateLayout)
	}
	return out
}

// Dashboard is the landing page summary.
type Dashboard struct {
	Periodo            PeriodoJSON      `json:"periodo"`
	FornecedoresAtivos int64            `json:"fornecedores_ativos"`
	TicketsPendentes   int64            `json:"tickets_pendentes"`
	PesoPendenteKg     decimal.Decimal  `json:"peso_pendente_kg"`
	Compras            ResumoCompras    `json:"compras"`
	PagamentosValor    decimal.Decimal  `json:"pagamentos_valor"`
	SaldoAPagar        decimal.Decimal  `json:"saldo_a_pagar"`
	ComprasPorStatus   map[string]int64 `json:"compras_por_status"`
	TopFornecedores    []TopFornecedor  `json:"top_fornecedores"`
	SerieMensal        []MesResumo      `json:"serie_mensal"`
}

// FluxoCaixa is the cash-flow report.
type FluxoCaixa struct {
	Periodo PeriodoJSON `json:"periodo"`
	ledger.CashFlow
}

// Extrato is the statement of one supplier.
type Extrato struct {
	Fornecedor models.Fornecedor `json:"fornecedor"`
	Periodo    PeriodoJSON       `json:"periodo"`
	ledger.Statement
}

// RelatorioService builds reports by aggregating purchases and payments.
type RelatorioService struct {
	db    *gorm.DB
	log   *slog.Logger
	cache cache.Cache
	ttl   time.Duration
}

// Dashboard summarises the period; results are cached when a cache is set.
func (s *RelatorioService) Dashboard(ctx context.Context, p Period, now time.Time) (*Dashboard, error) {
	if p.From.IsZero() || p.To.IsZero() {
		m := CurrentMonth(now)
		if p.From.IsZero() {
			p.From = m.From
		}
		if p.To.IsZero() {
			p.To = m.To
		}
	}
	key := cache.Key("relatorios", "dashboard", p.From.Format(DateLayout), p.To.Format(DateLayout))
	var cached Dashboard
	if ok, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.log.Warn("dashboard cache read failed", "error", err)
	} else if ok {
		return &cached, nil
	}

	d, err := s.buildDashboard(ctx, p, now)
	if err != nil {
		return nil, err
	}
	if s.ttl > 0 {
		if err := s.cache.Set(ctx, key, d, s.ttl); err != nil {
			s.log.Warn("dashboard cache write failed", "error", err)
		}
	}
	return d, nil
}

func (s *RelatorioService) buildDashboard(ctx context.Context, p Period, now time.Time) (*Dashboard, error) {
	db := s.db.WithContext(ctx)
	d := &Dashboard{Periodo: periodJSON(p), ComprasPorStatus: map[string]int64{}}

	if err := db.Model(&models.Fornecedor{}).Where("ativo = ?", true).Count(&d.FornecedoresAtivos).Error; err != nil {
		return nil, translate(err, "fornecedores")
	}

	var pend struct {
		Qtd  int64
		Peso decimal.Decimal
	}
	if err := db.Model(&models.Ticket{}).
		Select("COUNT(*) AS qtd, COALESCE(SUM(peso_liquido),0) AS peso").
		Where("status = ?", ledger.TicketPendente).Scan(&pend).Error; err != nil {
		return nil, translate(err, "tickets")
	}
	d.TicketsPendentes, d.PesoPendenteKg = pend.Qtd, pend.Peso

	if err := db.Model(&models.Compra{}).Scopes(inPeriod("data_compra", p)).
		Select("COUNT(*) AS quantidade, COALESCE(SUM(peso_kg),0) AS peso_kg, COALESCE(SUM(valor_total),0) AS valor").
		Scan(&d.Compras).Error; err != nil {
		return nil, translate(err, "compras")
	}

	var pag struct{ Total decimal.Decimal }
	if err := db.Model(&models.Pagamento{}).Scopes(inPeriod("data_pagamento", p)).
		Select("COALESCE(SUM(valor),0) AS total").Scan(&pag).Error; err != nil {
		return nil, translate(err, "pagamentos")
	}
	d.PagamentosValor = pag.Total

	var open struct{ Total decimal.Decimal }
	if err := db.Model(&models.Compra{}).
		Select("COALESCE(SUM(valor_total - valor_pago),0) AS total").
		Where("status_pagamento <> ?", ledger.StatusPago).Scan(&open).Error; err != nil {
		return nil, translate(err, "compras")
	}
	d.SaldoAPagar = open.Total

	var byStatus []struct {
		Status string
		Qtd    int64
	}
	if err := db.Model(&models.Compra{}).Scopes(inPeriod("data_compra", p)).
		Select("status_pagamento AS status, COUNT(*) AS qtd").
		Group("status_pagamento").Scan(&byStatus).Error; err != nil {
		return nil, translate(err, "compras")
	}
	for _, st := range []ledger.PaymentStatus{ledger.StatusPendente, ledger.StatusParcial, ledger.StatusPago} {
		d.ComprasPorStatus[string(st)] = 0
	}
	for _, r := range byStatus {
		d.ComprasPorStatus[r.Status] = r.Qtd
	}

	d.TopFornecedores = []TopFornecedor{}
	if err := db.Table("compras").Scopes(inPeriod("compras.data_compra", p)).
		Select("compras.fornecedor_id, fornecedores.nome, SUM(compras.valor_total) AS valor, SUM(compras.peso_kg) AS peso_kg").
		Joins("JOIN fornecedores ON fornecedores.id = compras.fornecedor_id").
		Group("compras.fornecedor_id, fornecedores.nome").
		Order("valor desc").Limit(5).Scan(&d.TopFornecedores).Error; err != nil {
		return nil, translate(err, "compras")
	}

	series, err := s.monthlySeries(db, now)
	if err != nil {
		return nil, err
	}
	d.SerieMensal = series
	return d, nil
}

// monthlySeries returns the last seriesMonths months ending at now's month,
// oldest first, with zero rows for months without activity.
func (s *RelatorioService) monthlySeries(db *gorm.DB, now time.Time) ([]MesResumo, error) {
	last := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	first := last.AddDate(0, -(seriesMonths - 1), 0)
	end := last.AddDate(0, 1, 0)

	type row struct {
		Mes   string
		Valor decimal.Decimal
		Peso  decimal.Decimal
	}
	var compras, pagos []row
	if err := db.Model(&models.Compra{}).
		Select("to_char(data_compra, 'YYYY-MM') AS mes, SUM(valor_total) AS valor, SUM(peso_kg) AS peso").
		Where("data_compra >= ? AND data_compra < ?", first, end).
		Group("mes").Scan(&compras).Error; err != nil {
		return nil, translate(err, "compras")
	}
	if err := db.Model(&models.Pagamento{}).
		Select("to_char(data_pagamento, 'YYYY-MM') AS mes, SUM(valor) AS valor").
		Where("data_pagamento >= ? AND data_pagamento < ?", first, end).
		Group("mes").Scan(&pagos).Error; err != nil {
		return nil, translate(err, "pagamentos")
	}

	out := make([]MesResumo, 0, seriesMonths)
	idx := map[string]int{}
	for m := first; m.Before(end); m = m.AddDate(0, 1, 0) {
		k := m.Format("2006-01")
		idx[k] = len(out)
		out = append(out, MesResumo{Mes: k, ValorCompra: decimal.Zero, ValorPago: decimal.Zero, PesoKg: decimal.Zero})
	}
	for _, r := range compras {
		if i, ok := idx[r.Mes]; ok {
			out[i].ValorCompra = r.Valor
			out[i].PesoKg = r.Peso
		}
	}
	for _, r := range pagos {
		if i, ok := idx[r.Mes]; ok {
			out[i].ValorPago = r.Valor
		}
	}
	return out, nil
}

// CashFlow reports purchases and payments per day. Both bounds are required.
func (s *RelatorioService) CashFlow(ctx context.Context, p Period) (*FluxoCaixa, error) {
	if p.From.IsZero() || p.To.IsZero() {
		return nil, validationf("data_inicio and data_fim are required")
	}
	if p.Days() > MaxCashFlowDays {
		return nil, validationf("period must not exceed %d days", MaxCashFlowDays)
	}
	db := s.db.WithContext(ctx)

	var purchases, payments []ledger.DayTotal
	if err := db.Model(&models.Compra{}).Scopes(inPeriod("data_compra", p)).
		Select("data_compra AS day, SUM(valor_total) AS total").
		Group("data_compra").Scan(&purchases).Error; err != nil {
		return nil, translate(err, "compras")
	}
	if err := db.Model(&models.Pagamento{}).Scopes(inPeriod("data_pagamento", p)).
		Select("data_pagamento AS day, SUM(valor) AS total").
		Group("data_pagamento").Scan(&payments).Error; err != nil {
		return nil, translate(err, "pagamentos")
	}
	var methods []struct {
		Forma string
		Total decimal.Decimal
	}
	if err := db.Model(&models.Pagamento{}).Scopes(inPeriod("data_pagamento", p)).
		Select("forma_pagamento AS forma, SUM(valor) AS total").
		Group("forma_pagamento").Scan(&methods).Error; err != nil {
		return nil, translate(err, "pagamentos")
	}
	byMethod := map[string]decimal.Decimal{}
	for _, m := range methods {
		byMethod[m.Forma] = m.Total
	}
	return &FluxoCaixa{Periodo: periodJSON(p), CashFlow: ledger.BuildCashFlow(purchases, payments, byMethod)}, nil
}

// Statement builds the supplier statement for p. The opening balance sums
// everything dated before p.From.
func (s *RelatorioService) Statement(ctx context.Context, fornecedorID uint, p Period) (*Extrato, error) {
	db := s.db.WithContext(ctx)
	var f models.Fornecedor
	if err := db.First(&f, fornecedorID).Error; err != nil {
		return nil, translate(err, "fornecedor")
	}

	opening := decimal.Zero
	if !p.From.IsZero() {
		var before struct{ Total decimal.Decimal }
		if err := db.Model(&models.Compra{}).Select("COALESCE(SUM(valor_total),0) AS total").
			Where("fornecedor_id = ? AND data_compra < ?", fornecedorID, p.From).Scan(&before).Error; err != nil {
			return nil, translate(err, "compras")
		}
		var paid struct{ Total decimal.Decimal }
		if err := db.Model(&models.Pagamento{}).Select("COALESCE(SUM(valor),0) AS total").
			Where("fornecedor_id = ? AND data_pagamento < ?", fornecedorID, p.From).Scan(&paid).Error; err != nil {
			return nil, translate(err, "pagamentos")
		}
		opening = before.Total.Sub(paid.Total)
	}

	var compras []models.Compra
	if err := db.Scopes(inPeriod("data_compra", p)).Where("fornecedor_id = ?", fornecedorID).Find(&compras).Error; err != nil {
		return nil, translate(err, "compras")
	}
	var pagamentos []models.Pagamento
	if err := db.Scopes(inPeriod("data_pagamento", p)).Where("fornecedor_id = ?", fornecedorID).
		Preload("Compra").Find(&pagamentos).Error; err != nil {
		return nil, translate(err, "pagamentos")
	}

	entries := make([]ledger.StatementEntry, 0, len(compras)+len(pagamentos))
	for _, c := range compras {
		entries = append(entries, ledger.StatementEntry{
			Date:        c.DataCompra,
			Kind:        ledger.EntryCompra,
			RefID:       c.ID,
			Description: "Compra " + c.Numero + " (" + c.PesoKg.StringFixed(2) + " kg)",
			Debit:       c.ValorTotal,
			Credit:      decimal.Zero,
		})
	}
	for _, pg := range pagamentos {
		desc := "Pagamento " + string(pg.FormaPagamento)
		if pg.Compra != nil {
			desc += " ref. " + pg.Compra.Numero
		}
		entries = append(entries, ledger.StatementEntry{
			Date:        pg.DataPagamento,
			Kind:        ledger.EntryPagamento,
			RefID:       pg.ID,
			Description: desc,
			Debit:       decimal.Zero,
			Credit:      pg.Valor,
		})
	}
	return &Extrato{Fornecedor: f, Periodo: periodJSON(p), Statement: ledger.BuildStatement(opening, entries)}, nil
}
