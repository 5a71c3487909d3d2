package main

import (
	"net/http"

	"github.com/FagnerMenezes/app-ubata-cacau-sub001/models"
	"github.com/gin-gonic/gin"
)

// userJSON is the public view of a user.
type userJSON struct {
	ID       uint     `json:"id"`
	Username string   `json:"username"`
	Nome     string   `json:"nome"`
	Role     string   `json:"role"`
	Modulos  []string `json:"modulos"`
	Ativo    bool     `json:"ativo"`
}

func toUserJSON(u *models.User) userJSON {
	mods := u.Modulos
	if u.IsAdmin() {
		mods = models.AllModules
	}
	if mods == nil {
		mods = []string{}
	}
	return userJSON{ID: u.ID, Username: u.Username, Nome: u.Nome, Role: u.Role.Name, Modulos: mods, Ativo: u.Ativo}
}

type tokenResponse struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	User         *userJSON `json:"user,omitempty"`
}

func (a *api) issueTokens(u *models.User, refresh string) (tokenResponse, error) {
	view := toUserJSON(u)
	token, err := a.tokens.Issue(u.ID, u.Username, view.Role, view.Modulos)
	if err != nil {
		return tokenResponse{}, err
	}
	return tokenResponse{
		Token:        token,
		RefreshToken: refresh,
		ExpiresIn:    int64(a.tokens.TTL().Seconds()),
		User:         &view,
	}, nil
}

func (a *api) loginHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if !bind(c, &req) {
		return
	}
	user, err := a.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		a.respondError(c, err)
		return
	}
	refresh, err := a.users.IssueRefreshToken(c.Request.Context(), user.ID, a.refreshTTL)
	if err != nil {
		a.respondError(c, err)
		return
	}
	resp, err := a.issueTokens(user, refresh)
	if err != nil {
		a.respondError(c, err)
		return
	}
	a.log.Info("login", "user_id", user.ID, "username", user.Username)
	c.JSON(http.StatusOK, resp)
}

// refreshHandler exchanges a refresh token for a new access token and rotates the refresh token.
func (a *api) refreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if !bind(c, &req) {
		return
	}
	user, next, err := a.users.RotateRefreshToken(c.Request.Context(), req.RefreshToken, a.refreshTTL)
	if err != nil {
		a.respondError(c, err)
		return
	}
	resp, err := a.issueTokens(user, next)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// logoutHandler revokes the given refresh token.
func (a *api) logoutHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if !bind(c, &req) {
		return
	}
	if err := a.users.RevokeRefreshToken(c.Request.Context(), req.RefreshToken); err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "refresh token revoked"})
}

func (a *api) meHandler(c *gin.Context) {
	u, err := a.users.Get(c.Request.Context(), currentUserID(c))
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserJSON(u))
}

func (a *api) changePasswordHandler(c *gin.Context) {
	var req struct {
		SenhaAtual string `json:"senha_atual" binding:"required"`
		NovaSenha  string `json:"nova_senha" binding:"required"`
	}
	if !bind(c, &req) {
		return
	}
	if err := a.users.ChangePassword(c.Request.Context(), currentUserID(c), req.SenhaAtual, req.NovaSenha); err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password changed"})
}
