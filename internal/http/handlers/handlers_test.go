package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/ngeni/portal/internal/apperr"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestIfNoneMatchMatches(t *testing.T) {
	tests := []struct {
		name   string
		header string
		etag   string
		want   bool
	}{
		{"empty header", "", `W/"abc"`, false},
		{"wildcard", "*", `W/"abc"`, true},
		{"exact", `W/"abc"`, `W/"abc"`, true},
		{"strong form of weak tag", `"abc"`, `W/"abc"`, true},
		{"in a list", `"x", W/"abc"`, `W/"abc"`, true},
		{"different", `"abd"`, `W/"abc"`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ifNoneMatchMatches(tt.header, tt.etag); got != tt.want {
				t.Fatalf("ifNoneMatchMatches(%q, %q) = %v, want %v", tt.header, tt.etag, got, tt.want)
			}
		})
	}
}

func TestRespondErrorHidesInternalCause(t *testing.T) {
	r := gin.New()
	r.GET("/boom", func(ctx *gin.Context) {
		ctx.Set("request_id", "req-1")
		RespondError(ctx, errors.New("pq: password authentication failed"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	want := `{"error":{"code":"INTERNAL_SERVER_ERROR","message":"Something went wrong.","requestId":"req-1"}}`
	if w.Body.String() != want {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestRespondErrorKinds(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{apperr.BadRequest("x"), http.StatusBadRequest},
		{apperr.Unauthorized("x"), http.StatusUnauthorized},
		{apperr.Forbidden("x"), http.StatusForbidden},
		{apperr.NotFound("x"), http.StatusNotFound},
		{apperr.Conflict("x"), http.StatusConflict},
		{apperr.TooManyRequests("x"), http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(w)
		ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		RespondError(ctx, tt.err)
		if w.Code != tt.status {
			t.Errorf("%v: status = %d, want %d", tt.err, w.Code, tt.status)
		}
	}
}

func TestReadyzDrains(t *testing.T) {
	h := NewHealthHandler(map[string]Check{
		"postgres": func(context.Context) error { return nil },
	})
	r := gin.New()
	r.GET("/readyz", h.Readyz)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("ready = %d", w.Code)
	}

	h.Drain()
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("draining = %d", w.Code)
	}
}
