package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTokenStore is a mock implementation of TokenStoreInterface.
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

func newGateServer(creds *Credentials, mw echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.GET("/protected", func(c echo.Context) error {
		id, ok := IdentityFrom(c)
		if !ok {
			return c.String(http.StatusOK, "anonymous")
		}
		return c.String(http.StatusOK, id.String())
	}, mw)
	return e
}

func TestRequireAuth(t *testing.T) {
	jwtService := NewJWTService("test-secret", time.Hour)
	userID := uuid.New()
	validToken, err := jwtService.IssueToken(userID)
	require.NoError(t, err)

	tests := []struct {
		name       string
		cookie     *http.Cookie
		revoked    bool
		wantStatus int
		wantBody   string
	}{
		{
			name:       "missing token",
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"msg":"Not authorized to go here"}`,
		},
		{
			name:       "invalid token",
			cookie:     &http.Cookie{Name: TokenCookie, Value: "garbage"},
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"msg":"Token is not valid"}`,
		},
		{
			name:       "revoked token",
			cookie:     &http.Cookie{Name: TokenCookie, Value: validToken},
			revoked:    true,
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"msg":"Token is not valid"}`,
		},
		{
			name:       "valid token",
			cookie:     &http.Cookie{Name: TokenCookie, Value: validToken},
			wantStatus: http.StatusOK,
			wantBody:   userID.String(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockTokenStore)
			store.On("IsRevoked", mock.Anything, mock.Anything).Return(tt.revoked, nil).Maybe()
			creds := NewCredentials(jwtService, store)
			e := newGateServer(creds, RequireAuth(creds))

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			} else {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestRequireAuth_IgnoresUnsignedIDCookie(t *testing.T) {
	jwtService := NewJWTService("test-secret", time.Hour)
	creds := NewCredentials(jwtService, nil)
	e := newGateServer(creds, RequireAuth(creds))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: IDCookie, Value: uuid.NewString()})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalAuth(t *testing.T) {
	jwtService := NewJWTService("test-secret", time.Hour)
	creds := NewCredentials(jwtService, nil)
	userID := uuid.New()
	token, err := jwtService.IssueToken(userID)
	require.NoError(t, err)

	e := newGateServer(creds, OptionalAuth(creds))

	t.Run("anonymous", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "anonymous", rec.Body.String())
	})

	t.Run("invalid token falls back to anonymous", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.AddCookie(&http.Cookie{Name: TokenCookie, Value: "garbage"})
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "anonymous", rec.Body.String())
	})

	t.Run("authenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.AddCookie(&http.Cookie{Name: TokenCookie, Value: token})
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, userID.String(), rec.Body.String())
	})
}

func TestCredentials_Revoke(t *testing.T) {
	jwtService := NewJWTService("test-secret", time.Hour)
	store := new(MockTokenStore)
	creds := NewCredentials(jwtService, store)

	token, err := creds.Issue(uuid.New())
	require.NoError(t, err)
	claims, err := jwtService.VerifyToken(token)
	require.NoError(t, err)

	store.On("Revoke", mock.Anything, claims.ID, mock.AnythingOfType("time.Duration")).Return(nil)
	require.NoError(t, creds.Revoke(context.Background(), token))

	// unverifiable tokens are ignored
	require.NoError(t, creds.Revoke(context.Background(), "garbage"))
	store.AssertNumberOfCalls(t, "Revoke", 1)
}
