package main

import (
	"net/http"
	"strings"

	"github.com/FagnerMenezes/app-ubata-cacau-sub001/models"
	"github.com/FagnerMenezes/app-ubata-cacau-sub001/services"
	"github.com/gin-gonic/gin"
)

func (a *api) listPagamentosHandler(c *gin.Context) {
	compraID, ok := queryID(c, "compra_id")
	if !ok {
		return
	}
	fornecedorID, ok := queryID(c, "fornecedor_id")
	if !ok {
		return
	}
	period, ok := a.queryPeriod(c)
	if !ok {
		return
	}
	forma := models.FormaPagamento(strings.ToUpper(c.Query("forma_pagamento")))
	if forma != "" && !forma.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid forma_pagamento"})
		return
	}
	p := pageFromQuery(c)
	items, total, err := a.pagamentos.List(c.Request.Context(), services.PagamentoFilter{
		CompraID:       compraID,
		FornecedorID:   fornecedorID,
		FormaPagamento: forma,
		Period:         period,
	}, p)
	if err != nil {
		a.respondError(c, err)
		return
	}
	respondPage(c, p, items, total)
}

func (a *api) getPagamentoHandler(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	pg, err := a.pagamentos.Get(c.Request.Context(), id)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pg)
}

func (a *api) createPagamentoHandler(c *gin.Context) {
	var in services.PagamentoInput
	if !bind(c, &in) {
		return
	}
	pg, err := a.pagamentos.Create(c.Request.Context(), in)
	if err != nil {
		a.respondError(c, err)
		return
	}
	a.log.Info("pagamento registrado", "pagamento_id", pg.ID, "compra_id", pg.CompraID,
		"valor", pg.Valor.StringFixed(2), "user_id", currentUserID(c))
	c.JSON(http.StatusCreated, pg)
}

func (a *api) updatePagamentoHandler(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in services.PagamentoUpdate
	if !bind(c, &in) {
		return
	}
	pg, err := a.pagamentos.Update(c.Request.Context(), id, in)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pg)
}

func (a *api) deletePagamentoHandler(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := a.pagamentos.Delete(c.Request.Context(), id); err != nil {
		a.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
