package middleware

import (
	realtime "chattr.app/backend/internal/modules/realtime/service"
	"chattr.app/backend/pkg/response"
	"github.com/gin-gonic/gin"
)

// SocketID carries the X-Socket-ID header into the request context so broadcasts
// triggered by this request skip the caller's own connection.
func SocketID() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := response.GetSocketID(c); id != "" {
			c.Request = c.Request.WithContext(realtime.WithSocketID(c.Request.Context(), id))
		}
		c.Next()
	}
}
