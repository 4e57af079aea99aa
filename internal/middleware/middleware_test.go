package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccournoyer/firesale-backend/internal/auth"
	"github.com/ccournoyer/firesale-backend/internal/domain"
	"github.com/ccournoyer/firesale-backend/internal/handler"
	"github.com/ccournoyer/firesale-backend/internal/repository"
)

const testSecret = "test-jwt-secret"

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.RespondSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestAuth(t *testing.T) {
	accountID := uuid.New()
	token, err := auth.GenerateToken(accountID, "buyer@test.com", domain.RoleBuyer, testSecret, time.Hour)
	require.NoError(t, err)

	var seen auth.Session
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.SessionFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	wrapped := Auth(testSecret)(inner)

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		wrapped.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, accountID, seen.AccountID)
		assert.Equal(t, domain.RoleBuyer, seen.Role)
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		wrapped.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "MISSING_TOKEN", errorCode(t, rec))
	})

	t.Run("not a bearer token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		rec := httptest.NewRecorder()

		wrapped.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "INVALID_TOKEN", errorCode(t, rec))
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")
		rec := httptest.NewRecorder()

		wrapped.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	wrapped := RequireRole(domain.RoleSeller)(okHandler())

	t.Run("matching role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := auth.ContextWithSession(req.Context(), auth.Session{AccountID: uuid.New(), Role: domain.RoleSeller})
		rec := httptest.NewRecorder()

		wrapped.ServeHTTP(rec, req.WithContext(ctx))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("wrong role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := auth.ContextWithSession(req.Context(), auth.Session{AccountID: uuid.New(), Role: domain.RoleBuyer})
		rec := httptest.NewRecorder()

		wrapped.ServeHTTP(rec, req.WithContext(ctx))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "FORBIDDEN", errorCode(t, rec))
	})

	t.Run("no session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		wrapped.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestTracing(t *testing.T) {
	var gotTraceID string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTraceID = TraceIDFromContext(r.Context())
	})
	wrapped := Tracing(inner)

	t.Run("generates id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		wrapped.ServeHTTP(rec, req)

		require.NotEmpty(t, gotTraceID)
		assert.Equal(t, gotTraceID, rec.Header().Get("X-Request-ID"))
	})

	t.Run("propagates caller id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "caller-supplied")
		rec := httptest.NewRecorder()

		wrapped.ServeHTTP(rec, req)

		assert.Equal(t, "caller-supplied", gotTraceID)
	})
}

type mockIdempotencyRepo struct {
	entries map[string]*repository.IdempotencyCacheEntry
}

func newMockIdempotencyRepo() *mockIdempotencyRepo {
	return &mockIdempotencyRepo{entries: make(map[string]*repository.IdempotencyCacheEntry)}
}

func (m *mockIdempotencyRepo) Get(_ context.Context, key string, accountID uuid.UUID) (*repository.IdempotencyCacheEntry, error) {
	return m.entries[key+accountID.String()], nil
}

func (m *mockIdempotencyRepo) Set(_ context.Context, entry *repository.IdempotencyCacheEntry) error {
	m.entries[entry.Key+entry.AccountID.String()] = entry
	return nil
}

func TestIdempotency(t *testing.T) {
	accountID := uuid.New()
	session := auth.Session{AccountID: accountID, Role: domain.RoleBuyer}

	newRequest := func(key, body string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader(body))
		if key != "" {
			req.Header.Set("Idempotency-Key", key)
		}
		return req.WithContext(auth.ContextWithSession(req.Context(), session))
	}

	t.Run("missing key rejected", func(t *testing.T) {
		wrapped := Idempotency(newMockIdempotencyRepo())(okHandler())
		rec := httptest.NewRecorder()

		wrapped.ServeHTTP(rec, newRequest("", `{}`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "MISSING_IDEMPOTENCY_KEY", errorCode(t, rec))
	})

	t.Run("first call executes, second replays", func(t *testing.T) {
		calls := 0
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			handler.RespondSuccess(w, http.StatusCreated, map[string]int{"call": calls})
		})
		wrapped := Idempotency(newMockIdempotencyRepo())(inner)

		first := httptest.NewRecorder()
		wrapped.ServeHTTP(first, newRequest("key-1", `{"item_id":"x"}`))
		require.Equal(t, http.StatusCreated, first.Code)

		second := httptest.NewRecorder()
		wrapped.ServeHTTP(second, newRequest("key-1", `{"item_id":"x"}`))

		assert.Equal(t, 1, calls, "handler must run once")
		assert.Equal(t, http.StatusCreated, second.Code)
		assert.Equal(t, first.Body.String(), second.Body.String())
		assert.Equal(t, "true", second.Header().Get("X-Idempotent-Replayed"))
	})

	t.Run("same key different body conflicts", func(t *testing.T) {
		wrapped := Idempotency(newMockIdempotencyRepo())(okHandler())

		first := httptest.NewRecorder()
		wrapped.ServeHTTP(first, newRequest("key-2", `{"item_id":"x"}`))
		require.Equal(t, http.StatusOK, first.Code)

		second := httptest.NewRecorder()
		wrapped.ServeHTTP(second, newRequest("key-2", `{"item_id":"y"}`))

		assert.Equal(t, http.StatusUnprocessableEntity, second.Code)
		assert.Equal(t, "IDEMPOTENCY_CONFLICT", errorCode(t, second))
	})

	t.Run("GET passes through without key", func(t *testing.T) {
		wrapped := Idempotency(newMockIdempotencyRepo())(okHandler())
		req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
		rec := httptest.NewRecorder()

		wrapped.ServeHTTP(rec, req.WithContext(auth.ContextWithSession(req.Context(), session)))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
