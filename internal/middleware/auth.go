package middleware

import (
	"net/http"
	"strings"

	user "chattr.app/backend/internal/modules/user/service"
	"chattr.app/backend/pkg/response"
	"github.com/gin-gonic/gin"
)

type AuthMiddleware struct {
	auth user.AuthService
}

func NewAuthMiddleware(auth user.AuthService) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")

		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		// Fallback to query parameter "token" (useful for WebSockets)
		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			response.Error(c, http.StatusUnauthorized, "Authorization required.")
			c.Abort()
			return
		}

		u, err := m.auth.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			// a store failure answers 500, a bad token 401
			response.ResponseError(c, err)
			c.Abort()
			return
		}

		c.Set("user_id", u.ID)
		c.Set("user", u)
		c.Set("token", tokenString)
		c.Next()
	}
}
