package main

import (
	"net/http"

	"github.com/FagnerMenezes/app-ubata-cacau-sub001/services"
	"github.com/gin-gonic/gin"
)

func (a *api) listUsersHandler(c *gin.Context) {
	p := pageFromQuery(c)
	items, total, err := a.users.List(c.Request.Context(), c.Query("search"), p)
	if err != nil {
		a.respondError(c, err)
		return
	}
	out := make([]userJSON, 0, len(items))
	for i := range items {
		out = append(out, toUserJSON(&items[i]))
	}
	respondPage(c, p, out, total)
}

func (a *api) getUserHandler(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	u, err := a.users.Get(c.Request.Context(), id)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserJSON(u))
}

func (a *api) createUserHandler(c *gin.Context) {
	var in services.UserInput
	if !bind(c, &in) {
		return
	}
	u, err := a.users.Create(c.Request.Context(), in)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUserJSON(u))
}

func (a *api) updateUserHandler(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in services.UserUpdate
	if !bind(c, &in) {
		return
	}
	u, err := a.users.Update(c.Request.Context(), currentUserID(c), id, in)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserJSON(u))
}

func (a *api) resetPasswordHandler(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Senha string `json:"senha" binding:"required"`
	}
	if !bind(c, &req) {
		return
	}
	if err := a.users.ResetPassword(c.Request.Context(), id, req.Senha); err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password reset"})
}

// deactivateUserHandler sets ativo=false; accounts are never hard deleted.
func (a *api) deactivateUserHandler(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := a.users.Deactivate(c.Request.Context(), currentUserID(c), id); err != nil {
		a.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
