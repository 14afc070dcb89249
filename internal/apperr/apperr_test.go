package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindMapping(t *testing.T) {
	tests := []struct {
		kind   Kind
		code   string
		status int
	}{
		{KindBadRequest, "BAD_REQUEST", http.StatusBadRequest},
		{KindUnauthorized, "UNAUTHORIZED", http.StatusUnauthorized},
		{KindForbidden, "FORBIDDEN", http.StatusForbidden},
		{KindNotFound, "NOT_FOUND", http.StatusNotFound},
		{KindConflict, "CONFLICT", http.StatusConflict},
		{KindTooManyRequests, "TOO_MANY_REQUESTS", http.StatusTooManyRequests},
		{KindMethodNotSupported, "METHOD_NOT_SUPPORTED", http.StatusMethodNotAllowed},
		{KindInternal, "INTERNAL_SERVER_ERROR", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := tt.kind.Code(); got != tt.code {
			t.Errorf("Code() = %s, want %s", got, tt.code)
		}
		if got := tt.kind.HTTPStatus(); got != tt.status {
			t.Errorf("HTTPStatus() = %d, want %d", got, tt.status)
		}
	}
}

func TestFromWrapsForeignErrors(t *testing.T) {
	cause := errors.New("db down")

	got := From(cause)
	if got.Kind != KindInternal {
		t.Fatalf("kind = %v, want internal", got.Kind)
	}
	if !errors.Is(got, cause) {
		t.Fatalf("wrapped error should unwrap to the cause")
	}
	if got.Message == cause.Error() {
		t.Fatalf("internal message must not expose the cause")
	}
}

func TestKindOfSeesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("load project: %w", NotFound("Project not found."))

	if KindOf(err) != KindNotFound {
		t.Fatalf("KindOf = %v, want not found", KindOf(err))
	}
	if From(err).Message != "Project not found." {
		t.Fatalf("unexpected message %q", From(err).Message)
	}
}
