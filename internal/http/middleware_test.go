package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Goodnews119/Marketplacesite/internal/auth"
	"github.com/Goodnews119/Marketplacesite/internal/domain"
	"github.com/Goodnews119/Marketplacesite/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVerifier() MockVerifier {
	return MockVerifier{claims: map[string]*auth.Claims{
		"admin-token": {Role: domain.RoleAdmin},
		"user-token":  {Role: domain.RoleUser},
	}}
}

func adminChain() http.Handler {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"role": getClaims(r.Context()).Role})
	})
	return Authenticate(testVerifier())(RequireRole(domain.RoleAdmin)(ok))
}

func TestAuthenticate(t *testing.T) {
	tests := []struct {
		name         string
		header       string
		expectedHTTP int
		expectedCode string
	}{
		{"no header", "", http.StatusUnauthorized, "unauthorized"},
		{"not bearer", "Basic abc", http.StatusUnauthorized, "unauthorized"},
		{"empty bearer", "Bearer ", http.StatusUnauthorized, "unauthorized"},
		{"unknown token", "Bearer nope", http.StatusUnauthorized, "unauthorized"},
		{"wrong role", "Bearer user-token", http.StatusForbidden, "forbidden"},
		{"admin", "Bearer admin-token", http.StatusOK, ""},
		{"lowercase scheme", "bearer admin-token", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/products", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			adminChain().ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedHTTP, rec.Code)
			if tt.expectedCode != "" {
				var resp ErrorResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.Equal(t, tt.expectedCode, resp.Code)
				assert.NotEmpty(t, resp.Error)
			}
		})
	}
}

func TestRequireRole_WithoutAuthenticate(t *testing.T) {
	h := RequireRole(domain.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = getRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc", seen)
	assert.Equal(t, "abc", rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, strings.HasPrefix(seen, "req-"))
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
}

func TestMaxBodySize(t *testing.T) {
	h := MaxBodySize(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var v map[string]string
		if !decodeJSON(w, r, &v) {
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"k":"a long value"}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedHTTP int
		expectedCode string
		expectedMsg  string
	}{
		{"bad request", &service.Error{Kind: service.ErrBadRequest, Message: "title is required"}, http.StatusBadRequest, "bad_request", "title is required"},
		{"signature", &service.Error{Kind: service.ErrSignatureInvalid, Message: "bad sig"}, http.StatusBadRequest, "signature_invalid", "bad sig"},
		{"unauthorized", &service.Error{Kind: service.ErrUnauthorized, Message: "no"}, http.StatusUnauthorized, "unauthorized", "no"},
		{"forbidden", &service.Error{Kind: service.ErrForbidden, Message: "no"}, http.StatusForbidden, "forbidden", "no"},
		{"not found", &service.Error{Kind: service.ErrNotFound, Message: "product not found"}, http.StatusNotFound, "not_found", "product not found"},
		{"conflict", &service.Error{Kind: service.ErrConflict, Message: "dup"}, http.StatusConflict, "conflict", "dup"},
		{"upstream", &service.Error{Kind: service.ErrUpstreamFailure, Message: "stripe down", Err: errors.New("503")}, http.StatusBadGateway, "upstream_failure", "stripe down"},
		{"wrapped kind", fmt.Errorf("outer: %w", &service.Error{Kind: service.ErrNotFound, Message: "gone"}), http.StatusNotFound, "not_found", "gone"},
		{"plain error", errors.New("pq: connection refused"), http.StatusInternalServerError, "internal_error", "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleServiceError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.expectedHTTP, rec.Code)
			var resp ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.expectedCode, resp.Code)
			assert.Equal(t, tt.expectedMsg, resp.Error)
		})
	}
}
