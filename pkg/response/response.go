package response

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"chattr.app/backend/pkg/apperror"
	"chattr.app/backend/pkg/ratelimiter"
	"chattr.app/backend/pkg/validator"
	"github.com/gin-gonic/gin"
)

const author = "Chattr"

// Envelope is the uniform response body of every endpoint.
type Envelope struct {
	Author  string      `json:"author"`
	Msg     string      `json:"msg"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

// GetUserID retrieves the authenticated user ID from the context
func GetUserID(c *gin.Context) (uint, error) {
	val, exists := c.Get("user_id")
	if !exists {
		return 0, apperror.ErrUnauthorized
	}

	userID, ok := val.(uint)
	if !ok || userID == 0 {
		return 0, apperror.ErrUnauthorized
	}

	return userID, nil
}

// GetSocketID returns the websocket connection id the caller wants excluded from its own broadcasts.
func GetSocketID(c *gin.Context) string {
	return c.GetHeader("X-Socket-ID")
}

func Success(c *gin.Context, code int, msg string, data interface{}) {
	c.JSON(code, Envelope{Author: author, Msg: msg, Success: true, Data: data})
}

func Error(c *gin.Context, code int, msg string) {
	c.JSON(code, Envelope{Author: author, Msg: msg, Success: false})
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	var rateLimitErr *ratelimiter.RateLimitError
	if errors.As(err, &rateLimitErr) {
		c.Header("Retry-After", fmt.Sprintf("%.0f", rateLimitErr.RetryAfter.Seconds()))
	}

	// Log internal errors
	if code == http.StatusInternalServerError {
		log.Printf("[Internal Error]: %v", err)
		Error(c, code, "Something went wrong. Please try again later.")
		return
	}

	Error(c, code, err.Error())
}

// BindingError answers a failed ShouldBind* call with the first violated rule.
func BindingError(c *gin.Context, err error) {
	Error(c, http.StatusUnprocessableEntity, validator.FirstError(err))
}

// ParamID parses a numeric path parameter and answers 404 with notFound when it cannot name a row.
func ParamID(c *gin.Context, param, notFound string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		Error(c, http.StatusNotFound, notFound)
		return 0, false
	}
	return uint(id), true
}
