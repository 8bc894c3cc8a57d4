package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/parkpass/parking-pass-api/api"
	"github.com/parkpass/parking-pass-api/api/handlers"
	"github.com/parkpass/parking-pass-api/api/testhelpers"
	"github.com/parkpass/parking-pass-api/models"
	"github.com/parkpass/parking-pass-api/registry"
)

var (
	testUser = models.Principal{
		ID:    primitive.NewObjectID().Hex(),
		Email: "alice@parking.com",
		Name:  "Alice",
		Role:  models.RoleUser,
	}
	testAdmin = models.Principal{
		ID:    primitive.NewObjectID().Hex(),
		Email: "admin@parking.com",
		Name:  "Parking Admin",
		Role:  models.RoleAdmin,
	}
)

func submissionBody() []byte {
	b, _ := json.Marshal(registry.Submission{
		VehicleMake:         "Toyota",
		VehicleModel:        "Corolla",
		VehicleYear:         2021,
		LicensePlate:        "XYZ-789",
		VehicleColor:        "blue",
		Reason:              "resident parking",
		IDDocument:          "id-doc.pdf",
		VehicleRegistration: "registration.pdf",
	})
	return b
}

func requestAs(method, target string, body []byte, principal models.Principal) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	return req.WithContext(api.ContextWithPrincipal(context.Background(), principal))
}

func newApplicationHandler() (handlers.Application, *testhelpers.ApplicationStore) {
	store := testhelpers.NewApplicationStore()
	return handlers.Application{Registry: registry.NewService(store, nil, nil)}, store
}

func TestSubmitHandlerCreated(t *testing.T) {
	a, _ := newApplicationHandler()

	req := requestAs(http.MethodPost, "/api/v1/applications", submissionBody(), testUser)
	rr := httptest.NewRecorder()

	a.SubmitHandler(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var app models.Application
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &app))
	assert.Equal(t, models.StatusPending, app.Details.Status)
	assert.Equal(t, testUser.ID, app.Details.UserID)
}

func TestSubmitHandlerAnonymous(t *testing.T) {
	a, _ := newApplicationHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/applications", bytes.NewReader(submissionBody()))
	rr := httptest.NewRecorder()

	a.SubmitHandler(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSubmitHandlerValidation(t *testing.T) {
	a, store := newApplicationHandler()

	body := []byte(`{"vehicleMake": "Toyota"}`)
	req := requestAs(http.MethodPost, "/api/v1/applications", body, testUser)
	rr := httptest.NewRecorder()

	a.SubmitHandler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, 0, store.Len())
}

func TestSubmitHandlerAdminForbidden(t *testing.T) {
	a, _ := newApplicationHandler()

	req := requestAs(http.MethodPost, "/api/v1/applications", submissionBody(), testAdmin)
	rr := httptest.NewRecorder()

	a.SubmitHandler(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestListAllHandlerEmpty(t *testing.T) {
	a, _ := newApplicationHandler()

	req := requestAs(http.MethodGet, "/api/v1/applications", nil, testAdmin)
	rr := httptest.NewRecorder()

	a.ListAllHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]", rr.Body.String())
}

func TestListAllHandlerForbiddenForUsers(t *testing.T) {
	a, _ := newApplicationHandler()

	req := requestAs(http.MethodGet, "/api/v1/applications", nil, testUser)
	rr := httptest.NewRecorder()

	a.ListAllHandler(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestListMineHandler(t *testing.T) {
	a, _ := newApplicationHandler()

	rr := httptest.NewRecorder()
	a.SubmitHandler(rr, requestAs(http.MethodPost, "/api/v1/applications", submissionBody(), testUser))
	assert.Equal(t, http.StatusCreated, rr.Code)

	rr = httptest.NewRecorder()
	a.ListMineHandler(rr, requestAs(http.MethodGet, "/api/v1/applications/mine", nil, testUser))

	assert.Equal(t, http.StatusOK, rr.Code)

	var apps []models.Application
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &apps))
	assert.Len(t, apps, 1)
	assert.Equal(t, testUser.ID, apps[0].Details.UserID)
}

func reviewRouter(a handlers.Application) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/applications/{application_id}/review", a.ReviewHandler).Methods("PUT")
	return r
}

func TestReviewHandler(t *testing.T) {
	a, _ := newApplicationHandler()

	rr := httptest.NewRecorder()
	a.SubmitHandler(rr, requestAs(http.MethodPost, "/api/v1/applications", submissionBody(), testUser))
	var submitted models.Application
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &submitted))

	body := []byte(`{"decision": "approved", "comment": "OK"}`)
	req := requestAs(http.MethodPut, "/api/v1/applications/"+submitted.ID.Hex()+"/review", body, testAdmin)
	rr = httptest.NewRecorder()

	reviewRouter(a).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var reviewed models.Application
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &reviewed))
	assert.Equal(t, models.StatusApproved, reviewed.Details.Status)
	assert.Equal(t, "OK", reviewed.Details.AdminComment)
}

func TestReviewHandlerConflictOnSecondReview(t *testing.T) {
	a, _ := newApplicationHandler()

	rr := httptest.NewRecorder()
	a.SubmitHandler(rr, requestAs(http.MethodPost, "/api/v1/applications", submissionBody(), testUser))
	var submitted models.Application
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &submitted))

	router := reviewRouter(a)
	target := "/api/v1/applications/" + submitted.ID.Hex() + "/review"

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, requestAs(http.MethodPut, target, []byte(`{"decision": "rejected"}`), testAdmin))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, requestAs(http.MethodPut, target, []byte(`{"decision": "approved"}`), testAdmin))
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestReviewHandlerNotFound(t *testing.T) {
	a, _ := newApplicationHandler()

	target := "/api/v1/applications/" + primitive.NewObjectID().Hex() + "/review"
	req := requestAs(http.MethodPut, target, []byte(`{"decision": "approved"}`), testAdmin)
	rr := httptest.NewRecorder()

	reviewRouter(a).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestReviewHandlerInvalidDecision(t *testing.T) {
	a, _ := newApplicationHandler()

	rr := httptest.NewRecorder()
	a.SubmitHandler(rr, requestAs(http.MethodPost, "/api/v1/applications", submissionBody(), testUser))
	var submitted models.Application
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &submitted))

	target := "/api/v1/applications/" + submitted.ID.Hex() + "/review"
	req := requestAs(http.MethodPut, target, []byte(`{"decision": "maybe"}`), testAdmin)
	rr = httptest.NewRecorder()

	reviewRouter(a).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCountsHandler(t *testing.T) {
	a, _ := newApplicationHandler()

	router := reviewRouter(a)
	var ids []string
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		a.SubmitHandler(rr, requestAs(http.MethodPost, "/api/v1/applications", submissionBody(), testUser))
		var app models.Application
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &app))
		ids = append(ids, app.ID.Hex())
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, requestAs(http.MethodPut, "/api/v1/applications/"+ids[0]+"/review", []byte(`{"decision": "approved"}`), testAdmin))
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, requestAs(http.MethodPut, "/api/v1/applications/"+ids[1]+"/review", []byte(`{"decision": "rejected"}`), testAdmin))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	a.CountsHandler(rr, requestAs(http.MethodGet, "/api/v1/applications/counts", nil, testAdmin))

	assert.Equal(t, http.StatusOK, rr.Code)

	var counts models.ApplicationCounts
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &counts))
	assert.Equal(t, models.ApplicationCounts{Pending: 1, Approved: 1, Rejected: 1}, counts)
}

func TestCountsHandlerForbiddenForUsers(t *testing.T) {
	a, _ := newApplicationHandler()

	rr := httptest.NewRecorder()
	a.CountsHandler(rr, requestAs(http.MethodGet, "/api/v1/applications/counts", nil, testUser))

	assert.Equal(t, http.StatusForbidden, rr.Code)
}
