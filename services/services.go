// Package services holds the gorm backed business operations behind the
// HTTP handlers and the CLI.
package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/FagnerMenezes/app-ubata-cacau-sub001/pkg/cache"
	"github.com/FagnerMenezes/app-ubata-cacau-sub001/pkg/ledger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Services bundles every service sharing one database handle.
type Services struct {
	Fornecedores *FornecedorService
	Tickets      *TicketService
	Compras      *CompraService
	Pagamentos   *PagamentoService
	Relatorios   *RelatorioService
	Users        *UserService
}

// New wires the services over db. reportTTL controls how long dashboard
// payloads stay in c.
func New(db *gorm.DB, c cache.Cache, log *slog.Logger, reportTTL time.Duration) *Services {
	if c == nil {
		c = cache.Nop{}
	}
	inv := &invalidator{cache: c, log: log}
	return &Services{
		Fornecedores: &FornecedorService{db: db, log: log, inv: inv},
		Tickets:      &TicketService{db: db, log: log, inv: inv},
		Compras:      &CompraService{db: db, log: log, inv: inv},
		Pagamentos:   &PagamentoService{db: db, log: log, inv: inv},
		Relatorios:   &RelatorioService{db: db, log: log, cache: c, ttl: reportTTL},
		Users:        &UserService{db: db, log: log},
	}
}

// reportPrefix namespaces every cached report.
var reportPrefix = cache.Key("relatorios")

type invalidator struct {
	cache cache.Cache
	log   *slog.Logger
}

// reports drops cached reports after a write that changes totals. Failures
// are logged only; the write already committed.
func (i *invalidator) reports(ctx context.Context) {
	if err := i.cache.DeletePrefix(ctx, reportPrefix); err != nil {
		i.log.Warn("report cache invalidation failed", "error", err)
	}
}

func paginate(p ledger.Page) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(p.Offset()).Limit(p.Limit)
	}
}

func inPeriod(column string, p Period) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if !p.From.IsZero() {
			db = db.Where(column+" >= ?", p.From)
		}
		if !p.To.IsZero() {
			db = db.Where(column+" <= ?", p.To)
		}
		return db
	}
}

// forUpdate locks the selected rows until the transaction ends.
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func likePattern(s string) string {
	s = strings.TrimSpace(s)
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + strings.ToLower(r.Replace(s)) + "%"
}
