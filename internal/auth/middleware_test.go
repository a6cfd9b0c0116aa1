package auth

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestStaticAPIKeyValidatorParsing(t *testing.T) {
	validator, err := NewStaticAPIKeyValidator("k1:analyst:query_reader|sql_writer")
	if err != nil {
		t.Fatalf("NewStaticAPIKeyValidator() error = %v", err)
	}
	identity, ok := validator.Validate(context.Background(), "k1")
	if !ok {
		t.Fatal("expected key to be valid")
	}
	if identity.Subject != "analyst" {
		t.Fatalf("Subject = %q", identity.Subject)
	}
	if !identity.HasRole(RoleQueryReader) || !identity.HasRole(RoleSQLWriter) {
		t.Fatalf("Roles = %v", identity.Roles)
	}
}

func TestStaticAPIKeyValidatorRejectsBadSpec(t *testing.T) {
	for _, spec := range []string{"invalid", "k1::query_reader", "k1:analyst:"} {
		if _, err := NewStaticAPIKeyValidator(spec); err == nil {
			t.Fatalf("NewStaticAPIKeyValidator(%q) accepted a bad spec", spec)
		}
	}
}

func TestStaticAPIKeyValidatorErrorNeverEchoesKey(t *testing.T) {
	_, err := NewStaticAPIKeyValidator("supersecretkey:bad")
	if err == nil {
		t.Fatal("expected parse error")
	}
	if strings.Contains(err.Error(), "supersecretkey") {
		t.Fatalf("error leaks key material: %q", err)
	}
}

func TestMiddlewareRequiresKey(t *testing.T) {
	validator, err := NewStaticAPIKeyValidator("k1:analyst:query_reader")
	if err != nil {
		t.Fatalf("validator setup: %v", err)
	}

	mw := Middleware(slog.New(slog.NewJSONHandler(io.Discard, nil)), validator)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/schema", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestMiddlewareAcceptsHeaderAndBearer(t *testing.T) {
	validator, err := NewStaticAPIKeyValidator("k1:analyst:query_reader")
	if err != nil {
		t.Fatalf("validator setup: %v", err)
	}

	var seen Identity
	mw := Middleware(nil, validator)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/schema", nil)
	req.Header.Set("X-API-Key", "k1")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("X-API-Key status = %d", rr.Code)
	}
	if seen.Subject != "analyst" {
		t.Fatalf("identity not propagated: %+v", seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/schema", nil)
	req.Header.Set("Authorization", "Bearer k1")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("Bearer status = %d", rr.Code)
	}
}
