package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"saldoya/internal/db"
)

const (
	ctxUser  = "authUser"
	ctxToken = "authToken"
)

// authRequired resolves the bearer token (or session cookie) to a user and
// stores both on the context.
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			token = strings.TrimPrefix(h, "Bearer ")
		} else if cookie, err := c.Cookie("session"); err == nil {
			token = cookie
		}

		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{
				"code": "UNAUTHORIZED", "message": "Debes iniciar sesión.",
			}})
			return
		}

		user, err := s.svc.ResolveSession(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{
				"code": "UNAUTHORIZED", "message": "Tu sesión ha expirado.",
			}})
			return
		}

		c.Set(ctxUser, user)
		c.Set(ctxToken, token)
		c.Next()
	}
}

// roleRequired gates a route group to the given roles. Must run after
// authRequired.
func roleRequired(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": gin.H{
			"code": "FORBIDDEN", "message": "No tienes permisos para esta operación.",
		}})
	}
}

func currentUser(c *gin.Context) *db.User {
	return c.MustGet(ctxUser).(*db.User)
}

func currentToken(c *gin.Context) string {
	return c.GetString(ctxToken)
}
