package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/FagnerMenezes/app-ubata-cacau-sub001/models"
	"github.com/FagnerMenezes/app-ubata-cacau-sub001/pkg/authtoken"
	"github.com/FagnerMenezes/app-ubata-cacau-sub001/pkg/ledger"
	"github.com/FagnerMenezes/app-ubata-cacau-sub001/pkg/ocr"
	"github.com/FagnerMenezes/app-ubata-cacau-sub001/services"
)

// The handler dependencies. The services package implements them over gorm;
// handler tests use in-memory fakes.

type fornecedorService interface {
	List(ctx context.Context, f services.FornecedorFilter, p ledger.Page) ([]models.Fornecedor, int64, error)
	Get(ctx context.Context, id uint) (*models.Fornecedor, error)
	Create(ctx context.Context, in services.FornecedorInput) (*models.Fornecedor, error)
	Update(ctx context.Context, id uint, in services.FornecedorInput) (*models.Fornecedor, error)
	SetAtivo(ctx context.Context, id uint, ativo bool) (*models.Fornecedor, error)
	Delete(ctx context.Context, id uint) error
	Saldo(ctx context.Context, id uint) (*models.SaldoFornecedor, error)
}

type ticketService interface {
	List(ctx context.Context, f services.TicketFilter, p ledger.Page) ([]models.Ticket, int64, error)
	Get(ctx context.Context, id uint) (*models.Ticket, error)
	Create(ctx context.Context, in services.TicketInput) (*models.Ticket, error)
	Update(ctx context.Context, id uint, in services.TicketInput) (*models.Ticket, error)
	Cancel(ctx context.Context, id uint) (*models.Ticket, error)
	Delete(ctx context.Context, id uint) error
}

type compraService interface {
	List(ctx context.Context, f services.CompraFilter, p ledger.Page) ([]models.CompraView, int64, error)
	Get(ctx context.Context, id uint) (*models.CompraView, error)
	Create(ctx context.Context, in services.CompraInput) (*models.CompraView, error)
	Update(ctx context.Context, id uint, in services.CompraUpdate) (*models.CompraView, error)
	Delete(ctx context.Context, id uint) error
	Pagamentos(ctx context.Context, id uint) ([]models.Pagamento, error)
}

type pagamentoService interface {
	List(ctx context.Context, f services.PagamentoFilter, p ledger.Page) ([]models.Pagamento, int64, error)
	Get(ctx context.Context, id uint) (*models.Pagamento, error)
	Create(ctx context.Context, in services.PagamentoInput) (*models.Pagamento, error)
	Update(ctx context.Context, id uint, in services.PagamentoUpdate) (*models.Pagamento, error)
	Delete(ctx context.Context, id uint) error
}

type relatorioService interface {
	Dashboard(ctx context.Context, p services.Period, now time.Time) (*services.Dashboard, error)
	CashFlow(ctx context.Context, p services.Period) (*services.FluxoCaixa, error)
	Statement(ctx context.Context, fornecedorID uint, p services.Period) (*services.Extrato, error)
}

type userService interface {
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	IssueRefreshToken(ctx context.Context, userID uint, ttl time.Duration) (string, error)
	RotateRefreshToken(ctx context.Context, raw string, ttl time.Duration) (*models.User, string, error)
	RevokeRefreshToken(ctx context.Context, raw string) error
	List(ctx context.Context, search string, p ledger.Page) ([]models.User, int64, error)
	Get(ctx context.Context, id uint) (*models.User, error)
	Create(ctx context.Context, in services.UserInput) (*models.User, error)
	Update(ctx context.Context, actorID, id uint, in services.UserUpdate) (*models.User, error)
	Deactivate(ctx context.Context, actorID, id uint) error
	ResetPassword(ctx context.Context, id uint, password string) error
	ChangePassword(ctx context.Context, id uint, current, next string) error
}

// api carries the dependencies of every HTTP handler.
type api struct {
	fornecedores fornecedorService
	tickets      ticketService
	compras      compraService
	pagamentos   pagamentoService
	relatorios   relatorioService
	users        userService

	tokens      *authtoken.Issuer
	refreshTTL  time.Duration
	readWeights func(path string) (ocr.Weights, error)
	uploadDir   string
	log         *slog.Logger
	now         func() time.Time
}

func newAPI(svc *services.Services, cfg Config, log *slog.Logger) *api {
	return &api{
		fornecedores: svc.Fornecedores,
		tickets:      svc.Tickets,
		compras:      svc.Compras,
		pagamentos:   svc.Pagamentos,
		relatorios:   svc.Relatorios,
		users:        svc.Users,
		tokens:       authtoken.NewIssuer(cfg.JWTSecret, cfg.AccessTokenTTL),
		refreshTTL:   cfg.RefreshTokenTTL,
		readWeights:  ocr.ExtractWeightsFromImage,
		log:          log,
		now:          time.Now,
	}
}
