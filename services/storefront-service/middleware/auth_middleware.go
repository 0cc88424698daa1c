package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/services"
)

const (
	WorkspaceContextKey = "workspace"
	UserContextKey      = "userID"
)

// WorkspaceOpener resolves a bearer token to the user's workspace
type WorkspaceOpener interface {
	Open(ctx context.Context, token string) (*services.Workspace, error)
}

func AuthMiddleware(opener WorkspaceOpener) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Missing token", "relogin": true})
			return
		}

		ws, err := opener.Open(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Your session has expired. Please log in again.", "relogin": true})
			return
		}

		c.Set(WorkspaceContextKey, ws)
		c.Set(UserContextKey, ws.UserID)
		c.Next()
	}
}

// BearerToken reads the Authorization header, falling back to the access_token cookie
func BearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if v, err := c.Cookie("access_token"); err == nil && v != "" {
		return v
	}
	return ""
}

func GetWorkspace(c *gin.Context) (*services.Workspace, error) {
	val, exists := c.Get(WorkspaceContextKey)
	if !exists {
		return nil, errors.New("workspace not found in context")
	}
	ws, ok := val.(*services.Workspace)
	if !ok || ws == nil {
		return nil, errors.New("workspace has invalid type in context")
	}
	return ws, nil
}
