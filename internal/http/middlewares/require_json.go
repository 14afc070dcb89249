package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ngeni/portal/internal/apperr"
	"github.com/ngeni/portal/internal/http/handlers"
)

// RequireJSON rejects POST bodies that are not declared as JSON. Empty bodies pass.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodPost && c.Request.ContentLength != 0 {
			ct := c.GetHeader("Content-Type")
			// allow "application/json; charset=utf-8"
			if !strings.HasPrefix(strings.ToLower(ct), "application/json") {
				handlers.RespondError(c, apperr.BadRequest("Content-Type must be application/json."))
				c.Abort()
				return
			}
		}
		c.Next()
	}
}
