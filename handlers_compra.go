package main

import (
	"net/http"
	"strings"

	"github.com/FagnerMenezes/app-ubata-cacau-sub001/pkg/ledger"
	"github.com/FagnerMenezes/app-ubata-cacau-sub001/services"
	"github.com/gin-gonic/gin"
)

func (a *api) listComprasHandler(c *gin.Context) {
	fornecedorID, ok := queryID(c, "fornecedor_id")
	if !ok {
		return
	}
	period, ok := a.queryPeriod(c)
	if !ok {
		return
	}
	status := ledger.PaymentStatus(strings.ToUpper(c.Query("status_pagamento")))
	if status != "" && !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status_pagamento"})
		return
	}
	p := pageFromQuery(c)
	items, total, err := a.compras.List(c.Request.Context(), services.CompraFilter{
		Status:       status,
		FornecedorID: fornecedorID,
		Period:       period,
		Search:       strings.TrimSpace(c.Query("search")),
	}, p)
	if err != nil {
		a.respondError(c, err)
		return
	}
	respondPage(c, p, items, total)
}

func (a *api) getCompraHandler(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	v, err := a.compras.Get(c.Request.Context(), id)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (a *api) createCompraHandler(c *gin.Context) {
	var in services.CompraInput
	if !bind(c, &in) {
		return
	}
	if in.TicketID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ticket_id is required"})
		return
	}
	v, err := a.compras.Create(c.Request.Context(), in)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (a *api) updateCompraHandler(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in services.CompraUpdate
	if !bind(c, &in) {
		return
	}
	v, err := a.compras.Update(c.Request.Context(), id, in)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// deleteCompraHandler removes a purchase without payments and reopens its ticket.
func (a *api) deleteCompraHandler(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := a.compras.Delete(c.Request.Context(), id); err != nil {
		a.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *api) compraPagamentosHandler(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	items, err := a.compras.Pagamentos(c.Request.Context(), id)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}
