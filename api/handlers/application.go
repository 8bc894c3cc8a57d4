package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/parkpass/parking-pass-api/api"
	"github.com/parkpass/parking-pass-api/config"
	"github.com/parkpass/parking-pass-api/models"
	"github.com/parkpass/parking-pass-api/registry"
)

// Application exported for testing purposes
type Application struct {
	Registry *registry.Service
}

type reviewRequest struct {
	Decision string `json:"decision"`
	Comment  string `json:"comment"`
}

// SubmitHandler creates a new pending application for the acting principal
func (a Application) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := api.PrincipalFromContext(r.Context())
	if !ok {
		config.ErrorStatus("no session", http.StatusUnauthorized, w, errors.New("anonymous"))
		return
	}

	var fields registry.Submission
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	app, err := a.Registry.Submit(ctx, principal, fields)
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(app)
}

// ListAllHandler returns every application in submission order, admins only
func (a Application) ListAllHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := api.PrincipalFromContext(r.Context())
	if !ok {
		config.ErrorStatus("no session", http.StatusUnauthorized, w, errors.New("anonymous"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	apps, err := a.Registry.ListAll(ctx, principal)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeApplications(w, apps)
}

// ListMineHandler returns the acting principal's own applications
func (a Application) ListMineHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := api.PrincipalFromContext(r.Context())
	if !ok {
		config.ErrorStatus("no session", http.StatusUnauthorized, w, errors.New("anonymous"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	apps, err := a.Registry.ListOwnedBy(ctx, principal)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeApplications(w, apps)
}

// ReviewHandler approves or rejects a pending application, admins only
func (a Application) ReviewHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := api.PrincipalFromContext(r.Context())
	if !ok {
		config.ErrorStatus("no session", http.StatusUnauthorized, w, errors.New("anonymous"))
		return
	}
	applicationID := mux.Vars(r)["application_id"]

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	app, err := a.Registry.Review(ctx, principal, applicationID, req.Decision, req.Comment)
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(app)
}

// CountsHandler returns the derived pending/approved/rejected totals, admins only
func (a Application) CountsHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := api.PrincipalFromContext(r.Context())
	if !ok {
		config.ErrorStatus("no session", http.StatusUnauthorized, w, errors.New("anonymous"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	counts, err := a.Registry.Counts(ctx, principal)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(counts)
}

// writeApplications marshals a listing. Because the frontend requires that
// the data elements exist, if len == 0 then we will just return an empty
// data object
func writeApplications(w http.ResponseWriter, apps []models.Application) {
	if len(apps) == 0 {
		apps = []models.Application{}
	}
	b, err := json.Marshal(apps)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// writeRegistryError maps the registry's typed errors onto HTTP statuses.
func writeRegistryError(w http.ResponseWriter, err error) {
	var vErr *registry.ValidationError
	switch {
	case errors.As(err, &vErr):
		config.ErrorStatus("validation failed", http.StatusBadRequest, w, err)
	case errors.Is(err, registry.ErrUnauthorized):
		config.ErrorStatus("forbidden", http.StatusForbidden, w, err)
	case errors.Is(err, registry.ErrNotFound):
		config.ErrorStatus("application not found", http.StatusNotFound, w, err)
	case errors.Is(err, registry.ErrInvalidTransition):
		config.ErrorStatus("application already reviewed", http.StatusConflict, w, err)
	default:
		config.ErrorStatus("internal error", http.StatusInternalServerError, w, err)
	}
}
