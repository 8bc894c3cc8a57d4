package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/basic"
	"github.com/shaj13/go-guardian/auth/strategies/bearer"
	"github.com/shaj13/go-guardian/store"
	"go.uber.org/zap"

	"github.com/parkpass/parking-pass-api/identity"
)

// Session wires the go-guardian authenticator to the identity component.
type Session struct {
	Identity *identity.Service
}

var authenticator auth.Authenticator
var cache store.Cache

// SetupGoGuardian sets up the go-guardian middleware with a basic strategy
// backed by the identity component and a cached bearer-token strategy for
// issued session tokens.
func (s Session) SetupGoGuardian() {
	authenticator = auth.New()
	cache = store.NewFIFO(context.Background(), time.Hour*24)
	basicStrategy := basic.New(s.validateUser, cache)
	tokenStrategy := bearer.New(bearer.NoOpAuthenticate, cache)

	authenticator.EnableStrategy(basic.StrategyKey, basicStrategy)
	authenticator.EnableStrategy(bearer.CachedStrategyKey, tokenStrategy)
}

// Middleware authenticates the request, resolves the acting principal and
// stores it in the request context for the handlers.
func (s Session) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		user, err := authenticator.Authenticate(r)
		if err != nil {
			zap.S().Errorw("unauthorized",
				"url", r.URL)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}

		principal, err := s.Identity.PrincipalByEmail(r.Context(), user.UserName())
		if err != nil {
			zap.S().Errorw("failed to resolve principal", "email", user.UserName())
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}

		zap.S().Debugf("user %s authenticated", principal.Email)
		next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
	})
}

func (s Session) validateUser(ctx context.Context, r *http.Request, email, password string) (auth.Info, error) {
	principal, err := s.Identity.VerifyCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return auth.NewDefaultUser(principal.Email, principal.ID, nil, nil), nil
}

// IssueToken creates a new bearer session token for the principal email/id
// pair and registers it with the cached token strategy.
func IssueToken(r *http.Request, email, id string) string {
	token := uuid.New().String()
	authUser := auth.NewDefaultUser(email, id, nil, nil)
	tokenStrategy := authenticator.Strategy(bearer.CachedStrategyKey)
	auth.Append(tokenStrategy, token, authUser, r)
	return token
}

// RevokeToken revokes a token; revoking an unknown token is a no-op, so
// logout stays idempotent.
func RevokeToken(w http.ResponseWriter, r *http.Request) {
	reqToken := r.Header.Get("Authorization")
	splitToken := strings.Split(reqToken, "Bearer ")
	if len(splitToken) < 2 {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "missing bearer token"}`))
		return
	}
	reqToken = splitToken[1]

	tokenStrategy := authenticator.Strategy(bearer.CachedStrategyKey)
	auth.Revoke(tokenStrategy, reqToken, r)
	w.Write([]byte(`{"revoked": true}`))
}
