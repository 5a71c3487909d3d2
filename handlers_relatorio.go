package main

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/FagnerMenezes/app-ubata-cacau-sub001/pkg/export"
	"github.com/gin-gonic/gin"
)

func (a *api) dashboardHandler(c *gin.Context) {
	period, ok := a.queryPeriod(c)
	if !ok {
		return
	}
	d, err := a.relatorios.Dashboard(c.Request.Context(), period, a.now())
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (a *api) cashFlowHandler(c *gin.Context) {
	period, ok := a.queryPeriod(c)
	if !ok {
		return
	}
	cf, err := a.relatorios.CashFlow(c.Request.Context(), period)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cf)
}

func (a *api) statementHandler(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	period, ok := a.queryPeriod(c)
	if !ok {
		return
	}
	st, err := a.relatorios.Statement(c.Request.Context(), id, period)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (a *api) exportCashFlowHandler(c *gin.Context) {
	period, ok := a.queryPeriod(c)
	if !ok {
		return
	}
	cf, err := a.relatorios.CashFlow(c.Request.Context(), period)
	if err != nil {
		a.respondError(c, err)
		return
	}
	title := fmt.Sprintf("Fluxo de caixa %s a %s", cf.Periodo.Inicio, cf.Periodo.Fim)
	var buf bytes.Buffer
	if err := export.CashFlow(&buf, title, cf.CashFlow); err != nil {
		a.respondError(c, err)
		return
	}
	sendWorkbook(c, fmt.Sprintf("fluxo-caixa_%s_%s.xlsx", cf.Periodo.Inicio, cf.Periodo.Fim), buf.Bytes())
}

func (a *api) exportStatementHandler(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	period, ok := a.queryPeriod(c)
	if !ok {
		return
	}
	st, err := a.relatorios.Statement(c.Request.Context(), id, period)
	if err != nil {
		a.respondError(c, err)
		return
	}
	title := "Extrato " + st.Fornecedor.Nome
	if st.Periodo.Inicio != "" || st.Periodo.Fim != "" {
		title += fmt.Sprintf(" (%s a %s)", st.Periodo.Inicio, st.Periodo.Fim)
	}
	var buf bytes.Buffer
	if err := export.Statement(&buf, title, st.Statement); err != nil {
		a.respondError(c, err)
		return
	}
	sendWorkbook(c, fmt.Sprintf("extrato_fornecedor_%d.xlsx", id), buf.Bytes())
}

// sendWorkbook writes the rendered workbook as an attachment. The workbook is
// rendered to memory first so failures still produce a JSON error.
func sendWorkbook(c *gin.Context, filename string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, export.ContentType, data)
}
