package main

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/FagnerMenezes/app-ubata-cacau-sub001/pkg/ledger"
	"github.com/FagnerMenezes/app-ubata-cacau-sub001/pkg/ocr"
	"github.com/FagnerMenezes/app-ubata-cacau-sub001/services"
	"github.com/gin-gonic/gin"
)

// maxUploadBytes bounds scale-ticket photos.
const maxUploadBytes = 5 << 20

func (a *api) listTicketsHandler(c *gin.Context) {
	fornecedorID, ok := queryID(c, "fornecedor_id")
	if !ok {
		return
	}
	period, ok := a.queryPeriod(c)
	if !ok {
		return
	}
	status := ledger.TicketStatus(strings.ToUpper(c.Query("status")))
	if status != "" && !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}
	p := pageFromQuery(c)
	items, total, err := a.tickets.List(c.Request.Context(), services.TicketFilter{
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

func (a *api) getTicketHandler(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	t, err := a.tickets.Get(c.Request.Context(), id)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (a *api) createTicketHandler(c *gin.Context) {
	var in services.TicketInput
	if !bind(c, &in) {
		return
	}
	t, err := a.tickets.Create(c.Request.Context(), in)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (a *api) updateTicketHandler(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in services.TicketInput
	if !bind(c, &in) {
		return
	}
	t, err := a.tickets.Update(c.Request.Context(), id, in)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (a *api) cancelTicketHandler(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	t, err := a.tickets.Cancel(c.Request.Context(), id)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (a *api) deleteTicketHandler(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := a.tickets.Delete(c.Request.Context(), id); err != nil {
		a.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// convertTicketHandler turns the ticket into a purchase.
func (a *api) convertTicketHandler(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in services.CompraInput
	if !bind(c, &in) {
		return
	}
	in.TicketID = id
	compra, err := a.compras.Create(c.Request.Context(), in)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, compra)
}

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".tif": true, ".tiff": true, ".bmp": true}

// readTicketImageHandler OCRs an uploaded scale-ticket photo and returns the
// suggested weights. Nothing is stored.
func (a *api) readTicketImageHandler(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes+1<<20)
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file missing"})
		return
	}
	if file.Size > maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large (max 5MB)"})
		return
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !imageExts[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported file type " + ext})
		return
	}
	tmp, err := os.CreateTemp(a.uploadDir, "ticket-*"+ext)
	if err != nil {
		a.respondError(c, err)
		return
	}
	path := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(path)
	if err := c.SaveUploadedFile(file, path); err != nil {
		a.respondError(c, err)
		return
	}
	w, err := a.readWeights(path)
	if errors.Is(err, ocr.ErrNoWeight) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no weight could be read from the image"})
		return
	}
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}
