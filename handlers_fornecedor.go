package main

import (
	"net/http"
	"strings"

	"github.com/FagnerMenezes/app-ubata-cacau-sub001/models"
	"github.com/FagnerMenezes/app-ubata-cacau-sub001/pkg/ledger"
	"github.com/FagnerMenezes/app-ubata-cacau-sub001/services"
	"github.com/gin-gonic/gin"
)

func (a *api) listFornecedoresHandler(c *gin.Context) {
	ativo, ok := queryBool(c, "ativo")
	if !ok {
		return
	}
	p := pageFromQuery(c)
	items, total, err := a.fornecedores.List(c.Request.Context(), services.FornecedorFilter{
		Search: strings.TrimSpace(c.Query("search")),
		Ativo:  ativo,
	}, p)
	if err != nil {
		a.respondError(c, err)
		return
	}
	respondPage(c, p, items, total)
}

// getFornecedorHandler returns the supplier together with its balance.
func (a *api) getFornecedorHandler(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	f, err := a.fornecedores.Get(c.Request.Context(), id)
	if err != nil {
		a.respondError(c, err)
		return
	}
	saldo, err := a.fornecedores.Saldo(c.Request.Context(), id)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, struct {
		*models.Fornecedor
		Saldo *models.SaldoFornecedor `json:"saldo"`
	}{f, saldo})
}

func (a *api) createFornecedorHandler(c *gin.Context) {
	var in services.FornecedorInput
	if !bind(c, &in) {
		return
	}
	f, err := a.fornecedores.Create(c.Request.Context(), in)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, f)
}

func (a *api) updateFornecedorHandler(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in services.FornecedorInput
	if !bind(c, &in) {
		return
	}
	f, err := a.fornecedores.Update(c.Request.Context(), id, in)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (a *api) setFornecedorStatusHandler(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Ativo *bool `json:"ativo" binding:"required"`
	}
	if !bind(c, &req) {
		return
	}
	f, err := a.fornecedores.SetAtivo(c.Request.Context(), id, *req.Ativo)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (a *api) deleteFornecedorHandler(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := a.fornecedores.Delete(c.Request.Context(), id); err != nil {
		a.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *api) fornecedorComprasHandler(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if _, err := a.fornecedores.Get(c.Request.Context(), id); err != nil {
		a.respondError(c, err)
		return
	}
	status := ledger.PaymentStatus(strings.ToUpper(c.Query("status_pagamento")))
	if status != "" && !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status_pagamento"})
		return
	}
	p := pageFromQuery(c)
	items, total, err := a.compras.List(c.Request.Context(), services.CompraFilter{FornecedorID: id, Status: status}, p)
	if err != nil {
		a.respondError(c, err)
		return
	}
	respondPage(c, p, items, total)
}

func (a *api) fornecedorSaldoHandler(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	s, err := a.fornecedores.Saldo(c.Request.Context(), id)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}
