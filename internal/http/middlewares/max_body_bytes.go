package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ngeni/portal/internal/apperr"
	"github.com/ngeni/portal/internal/http/handlers"
)

// MaxBodyBytes refuses declared oversize bodies up front and caps the rest while they are read.
func MaxBodyBytes(max int64) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if max <= 0 {
			ctx.Next()
			return
		}
		if ctx.Request.ContentLength > max {
			handlers.RespondError(ctx, apperr.BadRequest("Request body too large."))
			ctx.Abort()
			return
		}
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, max)

		ctx.Next()
	}
}
