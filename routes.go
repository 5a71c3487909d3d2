package main

import (
	"log/slog"
	"net/http"

	"github.com/FagnerMenezes/app-ubata-cacau-sub001/models"
	"github.com/gin-gonic/gin"
)

func newRouter(a *api, cfg Config, log *slog.Logger) *gin.Engine {
	useJSONFieldNames()
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log), cors(cfg.CORSOrigins))
	r.MaxMultipartMemory = maxUploadBytes
	setupRoutes(r, a)
	return r
}

func setupRoutes(r *gin.Engine, a *api) {
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	root := r.Group("/api")

	auth := root.Group("/auth")
	auth.POST("/login", a.loginHandler)
	auth.POST("/refresh", a.refreshHandler)
	auth.POST("/logout", a.logoutHandler)

	authed := root.Group("")
	authed.Use(a.jwtAuthMiddleware())
	authed.GET("/auth/me", a.meHandler)
	authed.PUT("/auth/me/senha", a.changePasswordHandler)

	usuarios := authed.Group("/usuarios", requireRole(models.RoleAdministrador))
	usuarios.GET("", a.listUsersHandler)
	usuarios.POST("", a.createUserHandler)
	usuarios.GET("/:id", a.getUserHandler)
	usuarios.PUT("/:id", a.updateUserHandler)
	usuarios.PUT("/:id/senha", a.resetPasswordHandler)
	usuarios.DELETE("/:id", a.deactivateUserHandler)

	forn := authed.Group("/fornecedores", requireModule(models.ModuloFornecedores))
	forn.GET("", a.listFornecedoresHandler)
	forn.POST("", a.createFornecedorHandler)
	forn.GET("/:id", a.getFornecedorHandler)
	forn.PUT("/:id", a.updateFornecedorHandler)
	forn.PATCH("/:id/status", a.setFornecedorStatusHandler)
	forn.DELETE("/:id", a.deleteFornecedorHandler)
	forn.GET("/:id/compras", a.fornecedorComprasHandler)
	forn.GET("/:id/saldo", a.fornecedorSaldoHandler)

	tickets := authed.Group("/tickets", requireModule(models.ModuloTickets))
	tickets.GET("", a.listTicketsHandler)
	tickets.POST("", a.createTicketHandler)
	tickets.POST("/leitura", a.readTicketImageHandler)
	tickets.GET("/:id", a.getTicketHandler)
	tickets.PUT("/:id", a.updateTicketHandler)
	tickets.DELETE("/:id", a.deleteTicketHandler)
	tickets.POST("/:id/cancelar", a.cancelTicketHandler)
	tickets.POST("/:id/converter", requireModule(models.ModuloCompras), a.convertTicketHandler)

	compras := authed.Group("/compras", requireModule(models.ModuloCompras))
	compras.GET("", a.listComprasHandler)
	compras.POST("", a.createCompraHandler)
	compras.GET("/:id", a.getCompraHandler)
	compras.PUT("/:id", a.updateCompraHandler)
	compras.DELETE("/:id", a.deleteCompraHandler)
	compras.GET("/:id/pagamentos", a.compraPagamentosHandler)

	pag := authed.Group("/pagamentos", requireModule(models.ModuloPagamentos))
	pag.GET("", a.listPagamentosHandler)
	pag.POST("", a.createPagamentoHandler)
	pag.GET("/:id", a.getPagamentoHandler)
	pag.PUT("/:id", a.updatePagamentoHandler)
	pag.DELETE("/:id", a.deletePagamentoHandler)

	rel := authed.Group("/relatorios", requireModule(models.ModuloRelatorios))
	rel.GET("/dashboard", a.dashboardHandler)
	rel.GET("/fluxo-caixa", a.cashFlowHandler)
	rel.GET("/fluxo-caixa/export", a.exportCashFlowHandler)
	rel.GET("/fornecedores/:id/extrato", a.statementHandler)
	rel.GET("/fornecedores/:id/extrato/export", a.exportStatementHandler)
}
