//go:build integration

package services_test

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/FagnerMenezes/app-ubata-cacau-sub001/models"
	"github.com/FagnerMenezes/app-ubata-cacau-sub001/pkg/cache"
	"github.com/FagnerMenezes/app-ubata-cacau-sub001/pkg/ledger"
	"github.com/FagnerMenezes/app-ubata-cacau-sub001/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpg "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupServices starts a disposable Postgres and wires the services on it.
func setupServices(t *testing.T) *services.Services {
	t.Helper()
	return setupServicesWithCache(t, nil)
}

func setupServicesWithCache(t *testing.T, c cache.Cache) *services.Services {
	t.Helper()
	ctx := context.Background()
	pg, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("cacau"),
		postgres.WithUsername("cacau"),
		postgres.WithPassword("cacau"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pg.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})
	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpg.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	for _, m := range []any{&models.Role{}, &models.User{}, &models.RefreshToken{}, &models.Fornecedor{}, &models.Ticket{}, &models.Compra{}, &models.Pagamento{}} {
		require.NoError(t, db.AutoMigrate(m))
	}
	svc := services.New(db, c, slog.New(slog.NewTextHandler(io.Discard, nil)), 0)
	require.NoError(t, svc.Users.Seed(ctx, "admin123"))
	return svc
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// countingCache records how often cached reports were dropped.
type countingCache struct {
	cache.Nop
	deletes atomic.Int32
}

func (c *countingCache) DeletePrefix(context.Context, string) error {
	c.deletes.Add(1)
	return nil
}

func TestPurchaseLifecycle(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	f, err := svc.Fornecedores.Create(ctx, services.FornecedorInput{Nome: "Sitio Boa Vista", Documento: "123.456.789-01", Estado: "ba"})
	require.NoError(t, err)
	require.NotNil(t, f.Documento)
	assert.Equal(t, "12345678901", *f.Documento)
	assert.Equal(t, "BA", f.Estado)

	_, err = svc.Fornecedores.Create(ctx, services.FornecedorInput{Nome: "Outro", Documento: "12345678901"})
	assert.ErrorIs(t, err, ledger.ErrConflict)

	tk, err := svc.Tickets.Create(ctx, services.TicketInput{
		FornecedorID: f.ID, DataPesagem: "2025-03-10", PesoBruto: dec("1250.50"), Tara: dec("50.50"),
	})
	require.NoError(t, err)
	assert.True(t, tk.PesoLiquido.Equal(dec("1200")))
	assert.Equal(t, ledger.TicketPendente, tk.Status)
	assert.Equal(t, models.ProdutoAmendoa, tk.Produto)

	_, err = svc.Tickets.Create(ctx, services.TicketInput{FornecedorID: f.ID, Numero: tk.Numero, PesoBruto: dec("10"), Tara: dec("1")})
	assert.ErrorIs(t, err, ledger.ErrConflict)

	_, err = svc.Tickets.Create(ctx, services.TicketInput{FornecedorID: f.ID, PesoBruto: dec("10"), Tara: dec("10")})
	assert.ErrorIs(t, err, ledger.ErrValidation)

	compra, err := svc.Compras.Create(ctx, services.CompraInput{TicketID: tk.ID, PrecoKg: dec("12.35"), DataCompra: "2025-03-10"})
	require.NoError(t, err)
	assert.True(t, compra.ValorTotal.Equal(dec("14820")), compra.ValorTotal.String())
	assert.Equal(t, ledger.StatusPendente, compra.StatusPagamento)
	assert.Equal(t, services.CompraNumero(tk.ID), compra.Numero)

	_, err = svc.Compras.Create(ctx, services.CompraInput{TicketID: tk.ID, PrecoKg: dec("12")})
	assert.ErrorIs(t, err, ledger.ErrInvalidState)
	_, err = svc.Tickets.Cancel(ctx, tk.ID)
	assert.ErrorIs(t, err, ledger.ErrInvalidState)

	p1, err := svc.Pagamentos.Create(ctx, services.PagamentoInput{CompraID: compra.ID, Valor: dec("5000"), DataPagamento: "2025-03-11", FormaPagamento: models.FormaPix})
	require.NoError(t, err)
	got, err := svc.Compras.Get(ctx, compra.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusParcial, got.StatusPagamento)
	assert.True(t, got.SaldoRestante.Equal(dec("9820")))

	_, err = svc.Pagamentos.Create(ctx, services.PagamentoInput{CompraID: compra.ID, Valor: dec("9820.01"), FormaPagamento: models.FormaDinheiro})
	assert.ErrorIs(t, err, ledger.ErrOverpayment)

	_, err = svc.Pagamentos.Create(ctx, services.PagamentoInput{CompraID: compra.ID, Valor: dec("9820"), DataPagamento: "2025-03-12", FormaPagamento: models.FormaDinheiro})
	require.NoError(t, err)
	got, err = svc.Compras.Get(ctx, compra.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusPago, got.StatusPagamento)

	_, err = svc.Compras.Update(ctx, compra.ID, services.CompraUpdate{PrecoKg: ptr(dec("10"))})
	assert.ErrorIs(t, err, ledger.ErrOverpayment)

	_, err = svc.Pagamentos.Update(ctx, p1.ID, services.PagamentoUpdate{Valor: ptr(dec("4000"))})
	require.NoError(t, err)
	got, err = svc.Compras.Get(ctx, compra.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusParcial, got.StatusPagamento)
	assert.True(t, got.ValorPago.Equal(dec("13820")))

	assert.ErrorIs(t, svc.Compras.Delete(ctx, compra.ID), ledger.ErrConflict)
	assert.ErrorIs(t, svc.Fornecedores.Delete(ctx, f.ID), ledger.ErrConflict)

	saldo, err := svc.Fornecedores.Saldo(ctx, f.ID)
	require.NoError(t, err)
	assert.True(t, saldo.SaldoDevedor.Equal(dec("1000")), saldo.SaldoDevedor.String())

	period, err := services.ParsePeriod("2025-03-01", "2025-03-31")
	require.NoError(t, err)
	st, err := svc.Relatorios.Statement(ctx, f.ID, period)
	require.NoError(t, err)
	require.Len(t, st.Entries, 3)
	assert.Equal(t, ledger.EntryCompra, st.Entries[0].Kind)
	assert.True(t, st.Closing.Equal(dec("1000")))

	cf, err := svc.Relatorios.CashFlow(ctx, period)
	require.NoError(t, err)
	assert.Len(t, cf.Rows, 3)
	assert.True(t, cf.TotalPurchases.Equal(dec("14820")))
	assert.True(t, cf.TotalPayments.Equal(dec("13820")))
	assert.True(t, cf.ByMethod["PIX"].Equal(dec("4000")))

	_, err = svc.Relatorios.CashFlow(ctx, services.Period{})
	assert.ErrorIs(t, err, ledger.ErrValidation)

	dash, err := svc.Relatorios.Dashboard(ctx, period, time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.EqualValues(t, 1, dash.Compras.Quantidade)
	assert.True(t, dash.SaldoAPagar.Equal(dec("1000")))

	pags, err := svc.Compras.Pagamentos(ctx, compra.ID)
	require.NoError(t, err)
	for _, p := range pags {
		require.NoError(t, svc.Pagamentos.Delete(ctx, p.ID))
	}
	require.NoError(t, svc.Compras.Delete(ctx, compra.ID))
	back, err := svc.Tickets.Get(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.TicketPendente, back.Status)
}

func TestInactiveFornecedorRefusesTickets(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	f, err := svc.Fornecedores.Create(ctx, services.FornecedorInput{Nome: "Fazenda Santa Rita"})
	require.NoError(t, err)
	assert.True(t, f.Ativo)
	_, err = svc.Fornecedores.SetAtivo(ctx, f.ID, false)
	require.NoError(t, err)

	_, err = svc.Tickets.Create(ctx, services.TicketInput{FornecedorID: f.ID, PesoBruto: dec("100"), Tara: dec("0")})
	assert.ErrorIs(t, err, ledger.ErrValidation)

	require.NoError(t, svc.Fornecedores.Delete(ctx, f.ID))
	_, err = svc.Fornecedores.Get(ctx, f.ID)
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	inactive, err := svc.Fornecedores.Create(ctx, services.FornecedorInput{Nome: "Sitio Boa Vista", Ativo: ptr(false)})
	require.NoError(t, err)
	assert.False(t, inactive.Ativo)
	stored, err := svc.Fornecedores.Get(ctx, inactive.ID)
	require.NoError(t, err)
	assert.False(t, stored.Ativo, "ativo=false survives the insert")
	_, err = svc.Tickets.Create(ctx, services.TicketInput{FornecedorID: inactive.ID, PesoBruto: dec("100"), Tara: dec("0")})
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

func TestFornecedorWritesInvalidateReports(t *testing.T) {
	c := &countingCache{}
	svc := setupServicesWithCache(t, c)
	ctx := context.Background()

	f, err := svc.Fornecedores.Create(ctx, services.FornecedorInput{Nome: "Fazenda Itaca"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, c.deletes.Load())

	_, err = svc.Fornecedores.SetAtivo(ctx, f.ID, false)
	require.NoError(t, err)
	assert.EqualValues(t, 2, c.deletes.Load())

	require.NoError(t, svc.Fornecedores.Delete(ctx, f.ID))
	assert.EqualValues(t, 3, c.deletes.Load())

	assert.ErrorIs(t, svc.Fornecedores.Delete(ctx, f.ID), ledger.ErrNotFound)
	assert.EqualValues(t, 3, c.deletes.Load(), "failed writes keep the cache")
}

func TestCompraStoresRoundedPrice(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	f, err := svc.Fornecedores.Create(ctx, services.FornecedorInput{Nome: "Fazenda Primavera"})
	require.NoError(t, err)
	tk, err := svc.Tickets.Create(ctx, services.TicketInput{FornecedorID: f.ID, PesoBruto: dec("1000"), Tara: dec("0")})
	require.NoError(t, err)

	c, err := svc.Compras.Create(ctx, services.CompraInput{TicketID: tk.ID, PrecoKg: dec("12.34567")})
	require.NoError(t, err)
	assert.True(t, c.PrecoKg.Equal(dec("12.3457")), c.PrecoKg.String())
	assert.True(t, c.ValorTotal.Equal(dec("12345.70")), c.ValorTotal.String())

	c, err = svc.Compras.Update(ctx, c.ID, services.CompraUpdate{PrecoKg: ptr(dec("10.00005"))})
	require.NoError(t, err)
	assert.True(t, c.PrecoKg.Equal(dec("10.0001")), c.PrecoKg.String())
	assert.True(t, c.ValorTotal.Equal(dec("10000.10")), c.ValorTotal.String())
}

func TestUsersAndRefreshTokens(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	admin, err := svc.Users.Authenticate(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())
	require.NoError(t, svc.Users.Seed(ctx, "other"), "seed is idempotent")

	u, err := svc.Users.Create(ctx, services.UserInput{Username: "joao", Senha: "segredo", Modulos: []string{models.ModuloTickets}})
	require.NoError(t, err)
	assert.Equal(t, models.RoleOperador, u.Role.Name)

	_, err = svc.Users.Create(ctx, services.UserInput{Username: "joao", Senha: "segredo"})
	assert.ErrorIs(t, err, ledger.ErrConflict)
	_, err = svc.Users.Create(ctx, services.UserInput{Username: "ana", Senha: "segredo", Modulos: []string{"financeiro"}})
	assert.ErrorIs(t, err, ledger.ErrValidation)

	raw, err := svc.Users.IssueRefreshToken(ctx, u.ID, time.Hour)
	require.NoError(t, err)
	owner, next, err := svc.Users.RotateRefreshToken(ctx, raw, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, u.ID, owner.ID)
	assert.NotEqual(t, raw, next)

	_, _, err = svc.Users.RotateRefreshToken(ctx, raw, time.Hour)
	assert.ErrorIs(t, err, services.ErrInvalidCredentials, "rotated token cannot be reused")

	require.NoError(t, svc.Users.Deactivate(ctx, admin.ID, u.ID))
	_, err = svc.Users.Authenticate(ctx, "joao", "segredo")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	_, _, err = svc.Users.RotateRefreshToken(ctx, next, time.Hour)
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	assert.Error(t, svc.Users.Deactivate(ctx, admin.ID, admin.ID))

	require.NoError(t, svc.Users.ChangePassword(ctx, admin.ID, "admin123", "nova-senha"))
	_, err = svc.Users.Authenticate(ctx, "admin", "nova-senha")
	assert.NoError(t, err)
	assert.ErrorIs(t, svc.Users.ChangePassword(ctx, admin.ID, "errada", "x123456"), services.ErrInvalidCredentials)
}

func ptr[T any](v T) *T { return &v }
