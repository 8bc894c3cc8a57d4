package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/parkpass/parking-pass-api/models"
)

const adminTokenTTL = 24 * time.Hour

// IssueAdminToken signs an HS256 JWT for an admin dashboard session.
func IssueAdminToken(secret []byte, principal models.Principal) (string, error) {
	claims := jwt.MapClaims{
		"sub":   principal.ID,
		"email": principal.Email,
		"name":  principal.Name,
		"role":  principal.Role,
		"scope": "admin",
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(adminTokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// AdminMiddleware verifies the admin JWT and stores the admin principal in
// the request context.
func AdminMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")

			principal, err := parseAdminToken(secret, r)
			if err != nil {
				zap.S().Errorw("admin token rejected",
					"url", r.URL,
					"error", err)
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error": "unauthorized"}`))
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

func parseAdminToken(secret []byte, r *http.Request) (models.Principal, error) {
	header := r.Header.Get("Authorization")
	parts := strings.Split(header, "Bearer ")
	if len(parts) < 2 {
		return models.Principal{}, fmt.Errorf("missing bearer token")
	}

	token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return models.Principal{}, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Principal{}, fmt.Errorf("unexpected claims type")
	}
	role, _ := claims["role"].(string)
	if role != models.RoleAdmin {
		return models.Principal{}, fmt.Errorf("token is not an admin token")
	}

	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	return models.Principal{ID: sub, Email: email, Name: name, Role: role}, nil
}
