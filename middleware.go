package main

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/FagnerMenezes/app-ubata-cacau-sub001/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Context keys set by the middlewares.
const (
	ctxRequestID = "request_id"
	ctxUserID    = "user_id"
	ctxUsername  = "username"
	ctxRole      = "role"
	ctxModulos   = "modulos"
)

// requestLogger tags every request with an X-Request-ID and logs it once
// it completes.
func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header("X-Request-ID", id)
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"request_id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if u := c.GetString(ctxUsername); u != "" {
			attrs = append(attrs, "user", u)
		}
		switch {
		case status >= 500:
			log.Error("http request", attrs...)
		case status >= 400:
			log.Warn("http request", attrs...)
		default:
			log.Info("http request", attrs...)
		}
	}
}

// cors answers preflight requests and sets the allow headers for the
// configured origins. "*" allows any origin.
func cors(origins []string) gin.HandlerFunc {
	all := false
	allowed := map[string]bool{}
	for _, o := range origins {
		if o == "*" {
			all = true
		}
		allowed[o] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (all || allowed[origin]) {
			if all {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
			c.Header("Access-Control-Expose-Headers", "X-Request-ID, Content-Disposition")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (a *api) jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if len(authHeader) < 8 || !strings.EqualFold(authHeader[:7], "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			return
		}
		claims, err := a.tokens.Parse(strings.TrimSpace(authHeader[7:]))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		id, _ := claims.UserID()
		c.Set(ctxUserID, id)
		c.Set(ctxUsername, claims.Username)
		c.Set(ctxRole, claims.Role)
		c.Set(ctxModulos, claims.Modulos)
		c.Next()
	}
}

func currentUserID(c *gin.Context) uint {
	return c.GetUint(ctxUserID)
}

// requireRole lets through only the listed roles.
func requireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ctxRole)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
	}
}

// requireModule lets through administrators and users granted module m.
func requireModule(m string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxRole) == models.RoleAdministrador {
			c.Next()
			return
		}
		for _, granted := range c.GetStringSlice(ctxModulos) {
			if granted == m {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access to module " + m + " denied"})
	}
}
