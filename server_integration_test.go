//go:build integration

package main

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/FagnerMenezes/app-ubata-cacau-sub001/pkg/cache"
	"github.com/FagnerMenezes/app-ubata-cacau-sub001/pkg/export"
	"github.com/FagnerMenezes/app-ubata-cacau-sub001/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestServer(t *testing.T) *gin.Engine {
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
	t.Cleanup(func() { _ = pg.Terminate(ctx) })
	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	cfg := Config{
		DBDSN:           dsn,
		JWTSecret:       []byte("integration-secret"),
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		CORSOrigins:     []string{"*"},
		AdminPassword:   "admin123",
	}
	log := quietLogger()
	db, err := prepareDB(ctx, cfg, log, true)
	require.NoError(t, err)
	svc := services.New(db, cache.Nop{}, log, 0)
	a := newAPI(svc, cfg, log)
	a.uploadDir = t.TempDir()
	return newRouter(a, cfg, log)
}

func TestFullFlow(t *testing.T) {
	r := setupTestServer(t)

	rec := doJSON(r, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "admin", "password": "admin123"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decode(t, rec)
	admin := login["token"].(string)

	rec = doJSON(r, http.MethodPost, "/api/usuarios", admin, map[string]any{
		"username": "operador1", "senha": "segredo", "role": "operador", "modulos": []string{"tickets"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(r, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "operador1", "password": "segredo"})
	require.Equal(t, http.StatusOK, rec.Code)
	operador := decode(t, rec)["token"].(string)

	rec = doJSON(r, http.MethodPost, "/api/fornecedores", admin, map[string]any{"nome": "Sitio Boa Vista", "documento": "12.345.678/0001-90", "estado": "BA"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	fornID := uint(decode(t, rec)["id"].(float64))

	rec = performRequest(r, http.MethodGet, "/api/fornecedores", nil, operador, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(r, http.MethodPost, "/api/tickets", operador, map[string]any{
		"fornecedor_id": fornID, "data_pesagem": "2025-03-10", "peso_bruto": 1030, "tara": 30,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	ticket := decode(t, rec)
	ticketID := uint(ticket["id"].(float64))
	assert.EqualValues(t, 1000, ticket["peso_liquido"])

	rec = doJSON(r, http.MethodPost, fmt.Sprintf("/api/tickets/%d/converter", ticketID), operador, map[string]any{"preco_kg": 15})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(r, http.MethodPost, fmt.Sprintf("/api/tickets/%d/converter", ticketID), admin, map[string]any{"preco_kg": 15, "data_compra": "2025-03-10"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	compra := decode(t, rec)
	compraID := uint(compra["id"].(float64))
	assert.EqualValues(t, 15000, compra["valor_total"])
	assert.Equal(t, "PENDENTE", compra["status_pagamento"])

	rec = doJSON(r, http.MethodPost, "/api/pagamentos", admin, map[string]any{"compra_id": compraID, "valor": 6000, "forma_pagamento": "PIX", "data_pagamento": "2025-03-11"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(r, http.MethodPost, "/api/pagamentos", admin, map[string]any{"compra_id": compraID, "valor": 9000.01, "forma_pagamento": "DINHEIRO"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(r, http.MethodPost, "/api/pagamentos", admin, map[string]any{"compra_id": compraID, "valor": 9000, "forma_pagamento": "DINHEIRO", "data_pagamento": "2025-03-12"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = performRequest(r, http.MethodGet, fmt.Sprintf("/api/compras/%d", compraID), nil, admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PAGO", decode(t, rec)["status_pagamento"])

	rec = performRequest(r, http.MethodGet, fmt.Sprintf("/api/compras/%d/pagamentos", compraID), nil, admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"], 2)

	rec = performRequest(r, http.MethodGet, fmt.Sprintf("/api/fornecedores/%d/saldo", fornID), nil, admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decode(t, rec)["saldo_devedor"])

	rec = performRequest(r, http.MethodGet, fmt.Sprintf("/api/relatorios/fornecedores/%d/extrato?data_inicio=2025-03-01&data_fim=2025-03-31", fornID), nil, admin, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ext := decode(t, rec)
	assert.Len(t, ext["lancamentos"], 3)
	assert.EqualValues(t, 0, ext["saldo_final"])

	rec = performRequest(r, http.MethodGet, "/api/relatorios/fluxo-caixa/export?data_inicio=2025-03-01&data_fim=2025-03-31", nil, admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))

	rec = performRequest(r, http.MethodDelete, fmt.Sprintf("/api/fornecedores/%d", fornID), nil, admin, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(r, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": login["refresh_token"].(string)})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(r, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": login["refresh_token"].(string)})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMigrateCommand(t *testing.T) {
	ctx := context.Background()
	pg, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("cacau"), postgres.WithUsername("cacau"), postgres.WithPassword("cacau"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })
	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	t.Setenv("DB_DSN", dsn)
	t.Setenv("DB_AUTO_MIGRATE", "false")
	cmd := newRootCmd()
	cmd.SetArgs([]string{"migrate"})
	require.NoError(t, cmd.ExecuteContext(ctx))

	// Running twice is a no-op.
	cmd = newRootCmd()
	cmd.SetArgs([]string{"migrate"})
	require.NoError(t, cmd.ExecuteContext(ctx))
}
