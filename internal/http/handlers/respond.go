package handlers

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/ngeni/portal/internal/apperr"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	if s := ctx.GetString("request_id"); s != "" {
		return s
	}
	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

// RespondError writes the error envelope. Internal causes are logged, never sent.
func RespondError(ctx *gin.Context, err error) {
	e := apperr.From(err)
	if e.Kind == apperr.KindInternal {
		slog.Default().ErrorContext(ctx.Request.Context(), "request failed",
			"request_id", requestIDFrom(ctx),
			"path", ctx.Request.URL.Path,
			"err", e.Err,
		)
	}

	ctx.JSON(e.Kind.HTTPStatus(), gin.H{
		"error": APIError{
			Code:      e.Kind.Code(),
			Message:   e.Message,
			RequestID: requestIDFrom(ctx),
			Details:   e.Details,
		},
	})
}

// result is the success envelope.
type result struct {
	Result any `json:"result"`
}
