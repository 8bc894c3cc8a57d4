package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parkpass/parking-pass-api/api"
	"github.com/parkpass/parking-pass-api/models"
)

var secret = []byte("test-secret")

func principalEcho(t *testing.T, want models.Principal) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := api.PrincipalFromContext(r.Context())
		assert.True(t, ok)
		assert.Equal(t, want, principal)
		w.WriteHeader(http.StatusOK)
	})
}

func TestAdminTokenRoundTrip(t *testing.T) {
	admin := models.Principal{
		ID:    "abc123",
		Email: "admin@parking.com",
		Name:  "Parking Admin",
		Role:  models.RoleAdmin,
	}

	token, err := api.IssueAdminToken(secret, admin)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	handler := api.AdminMiddleware(secret)(principalEcho(t, admin))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/applications", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAdminMiddlewareRejectsUserRoleToken(t *testing.T) {
	user := models.Principal{
		ID:    "def456",
		Email: "user@parking.com",
		Name:  "Demo User",
		Role:  models.RoleUser,
	}

	token, err := api.IssueAdminToken(secret, user)
	assert.NoError(t, err)

	handler := api.AdminMiddleware(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for a non-admin token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/applications", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdminMiddlewareRejectsMissingOrGarbageToken(t *testing.T) {
	handler := api.AdminMiddleware(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a valid token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/applications", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/applications", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdminMiddlewareRejectsWrongSecret(t *testing.T) {
	admin := models.Principal{ID: "abc123", Role: models.RoleAdmin}

	token, err := api.IssueAdminToken([]byte("other-secret"), admin)
	assert.NoError(t, err)

	handler := api.AdminMiddleware(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for a token signed with another secret")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/applications", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
