package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/parkpass/parking-pass-api/api"
	"github.com/parkpass/parking-pass-api/config"
	"github.com/parkpass/parking-pass-api/identity"
	"github.com/parkpass/parking-pass-api/models"
)

// Auth bundles the identity service for the auth endpoints
type Auth struct {
	Identity  *identity.Service
	JWTSecret []byte
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type adminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type adminLoginResponse struct {
	Token string           `json:"token"`
	Admin models.Principal `json:"admin"`
}

// RegisterHandler creates a new user account and opens a session for it
func (h Auth) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	principal, err := h.Identity.Register(ctx, req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, identity.ErrDuplicateEmail) {
			config.ErrorStatus("email already exists", http.StatusConflict, w, err)
			return
		}
		config.ErrorStatus("failed to register user", http.StatusInternalServerError, w, err)
		return
	}

	token := api.IssueToken(r, principal.Email, principal.ID)

	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"token": token,
		"user":  principal,
	})
}

// CreateTokenHandler exchanges basic-auth credentials for a bearer session token
func (h Auth) CreateTokenHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	email, password, ok := r.BasicAuth()
	if !ok {
		config.ErrorStatus("basic auth failed", http.StatusUnauthorized, w, errors.New("missing basic auth"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	principal, err := h.Identity.Login(ctx, email, password)
	if err != nil {
		config.ErrorStatus("invalid credentials", http.StatusUnauthorized, w, identity.ErrInvalidCredentials)
		return
	}

	token := api.IssueToken(r, principal.Email, principal.ID)

	_ = json.NewEncoder(w).Encode(map[string]string{
		"token": token,
		"_id":   principal.ID,
		"role":  principal.Role,
	})
}

// LogoutHandler revokes the presented bearer token and clears the session;
// calling it twice is harmless
func (h Auth) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	h.Identity.Logout()
	api.RevokeToken(w, r)
}

// MeHandler returns the current principal for the presented session
func (h Auth) MeHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := api.PrincipalFromContext(r.Context())
	if !ok {
		config.ErrorStatus("no session", http.StatusUnauthorized, w, errors.New("anonymous"))
		return
	}
	_ = json.NewEncoder(w).Encode(principal)
}

// AdminLoginHandler handles admin login via email/password and returns a JWT
func (h Auth) AdminLoginHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		config.ErrorStatus("email and password required", http.StatusBadRequest, w, errors.New("missing credentials"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	principal, err := h.Identity.VerifyCredentials(ctx, email, req.Password)
	if err != nil || principal.Role != models.RoleAdmin {
		// a non-admin account gets the same answer as a bad password
		config.ErrorStatus("invalid credentials", http.StatusUnauthorized, w, identity.ErrInvalidCredentials)
		return
	}

	if len(h.JWTSecret) == 0 {
		config.ErrorStatus("server misconfigured", http.StatusInternalServerError, w, errors.New("jwt secret is not set"))
		return
	}

	signed, err := api.IssueAdminToken(h.JWTSecret, principal)
	if err != nil {
		config.ErrorStatus("token generation failed", http.StatusInternalServerError, w, err)
		return
	}

	zap.S().Infow("admin logged in", "email", principal.Email)
	_ = json.NewEncoder(w).Encode(adminLoginResponse{Token: signed, Admin: principal})
}
