package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parkpass/parking-pass-api/api"
	"github.com/parkpass/parking-pass-api/api/testhelpers"
	"github.com/parkpass/parking-pass-api/identity"
	"github.com/parkpass/parking-pass-api/models"
)

func newSession(t *testing.T) api.Session {
	svc := identity.NewService(testhelpers.NewUserStore())
	assert.NoError(t, svc.SeedDemoAccounts(context.Background()))

	session := api.Session{Identity: svc}
	session.SetupGoGuardian()
	return session
}

func TestMiddlewareBasicAuth(t *testing.T) {
	session := newSession(t)

	handler := session.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := api.PrincipalFromContext(r.Context())
		assert.True(t, ok)
		assert.Equal(t, identity.DemoUserEmail, principal.Email)
		assert.Equal(t, models.RoleUser, principal.Role)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/applications/mine", nil)
	req.SetBasicAuth(identity.DemoUserEmail, "user123")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestMiddlewareRejectsBadCredentials(t *testing.T) {
	session := newSession(t)

	handler := session.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for bad credentials")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/applications/mine", nil)
	req.SetBasicAuth(identity.DemoUserEmail, "wrong")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestIssuedBearerTokenAuthenticates(t *testing.T) {
	session := newSession(t)

	principal, err := session.Identity.Login(context.Background(), identity.DemoUserEmail, "user123")
	assert.NoError(t, err)

	issueReq := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", nil)
	token := api.IssueToken(issueReq, principal.Email, principal.ID)
	assert.NotEmpty(t, token)

	handler := session.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := api.PrincipalFromContext(r.Context())
		assert.True(t, ok)
		assert.Equal(t, principal, got)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRevokedTokenStopsAuthenticating(t *testing.T) {
	session := newSession(t)

	principal, err := session.Identity.Login(context.Background(), identity.DemoUserEmail, "user123")
	assert.NoError(t, err)

	issueReq := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", nil)
	token := api.IssueToken(issueReq, principal.Email, principal.ID)

	revokeReq := httptest.NewRequest(http.MethodDelete, "/api/v1/auth/logout", nil)
	revokeReq.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	api.RevokeToken(rr, revokeReq)
	assert.Equal(t, http.StatusOK, rr.Code)

	handler := session.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for a revoked token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
