package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cidadao-inteligente/api/internal/auth"
)

func testToken(t *testing.T, v *auth.Verifier, userID uuid.UUID) string {
	t.Helper()
	token, err := v.Generate(auth.Claims{
		Subject:   userID.String(),
		Email:     "user@example.com",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)
	return token
}

func TestRequireIdentity(t *testing.T) {
	t.Parallel()

	v, err := auth.NewVerifier(testSecret)
	require.NoError(t, err)

	var captured *auth.Identity
	handler := auth.RequireIdentity(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := auth.IdentityFromContext(r.Context()); ok {
			captured = &id
		}
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("ValidToken", func(t *testing.T) {
		captured = nil
		userID := uuid.New()

		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.Header.Set("Authorization", "Bearer "+testToken(t, v, userID))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, r)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, captured)
		assert.Equal(t, userID, captured.UserID)
		assert.Equal(t, "user@example.com", captured.Email)
	})

	t.Run("MissingHeader", func(t *testing.T) {
		captured = nil
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, r)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "AUTH_REQUIRED")
		assert.Nil(t, captured)
	})

	t.Run("GarbageToken", func(t *testing.T) {
		captured = nil
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, r)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestOptionalIdentity(t *testing.T) {
	t.Parallel()

	v, err := auth.NewVerifier(testSecret)
	require.NoError(t, err)

	handler := auth.OptionalIdentity(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.IdentityFromContext(r.Context()); ok {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("AnonymousPassesThrough", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, r)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("ValidTokenSetsIdentity", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+testToken(t, v, uuid.New()))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, r)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("InvalidTokenStaysAnonymous", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer bogus")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, r)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
