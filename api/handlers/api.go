package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/parkpass/parking-pass-api/api"
	"github.com/parkpass/parking-pass-api/api/scheduler"
	"github.com/parkpass/parking-pass-api/config"
	"github.com/parkpass/parking-pass-api/databases"
	"github.com/parkpass/parking-pass-api/identity"
	"github.com/parkpass/parking-pass-api/mail"
	"github.com/parkpass/parking-pass-api/models"
	"github.com/parkpass/parking-pass-api/registry"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	dbHelper  databases.DatabaseHelper
	scheduler *scheduler.Scheduler
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	identitySvc := identity.NewService(databases.NewUserDatabase(a.dbHelper))
	hub := api.NewHub()
	mailer := mail.New(a.Config.SendgridAPIKey)
	registrySvc := registry.NewService(databases.NewApplicationDatabase(a.dbHelper), hub, mailer)

	// setup go-guardian for middleware
	s := api.Session{Identity: identitySvc}
	s.SetupGoGuardian()

	auth := Auth{Identity: identitySvc, JWTSecret: []byte(a.Config.JWTSecret)}
	app := Application{Registry: registrySvc}
	docs := Documents{UploadPreset: a.Config.CloudinaryPreset, APISecret: a.Config.CloudinarySecret}
	adminGate := api.AdminMiddleware([]byte(a.Config.JWTSecret))

	r := mux.NewRouter()

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	// long-lived admin event feed, registered outside the timeout group
	r.Handle("/api/v1/events", adminGate(http.HandlerFunc(hub.ServeWS))).Methods("GET")

	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	apiCreate.Use(api.TimeoutMiddleware(30 * time.Second))

	apiCreate.Handle("/auth/register", http.HandlerFunc(auth.RegisterHandler)).Methods("POST")
	apiCreate.Handle("/auth/token", http.HandlerFunc(auth.CreateTokenHandler)).Methods("POST")
	apiCreate.Handle("/auth/logout", http.HandlerFunc(auth.LogoutHandler)).Methods("DELETE")
	apiCreate.Handle("/auth/me", s.Middleware(http.HandlerFunc(auth.MeHandler))).Methods("GET")
	apiCreate.Handle("/admin/login", http.HandlerFunc(auth.AdminLoginHandler)).Methods("POST")

	apiCreate.Handle("/applications", s.Middleware(http.HandlerFunc(app.SubmitHandler))).Methods("POST")
	apiCreate.Handle("/applications", s.Middleware(http.HandlerFunc(app.ListAllHandler))).Methods("GET")
	apiCreate.Handle("/applications/mine", s.Middleware(http.HandlerFunc(app.ListMineHandler))).Methods("GET")
	apiCreate.Handle("/applications/counts", s.Middleware(http.HandlerFunc(app.CountsHandler))).Methods("GET")
	apiCreate.Handle("/applications/{application_id}/review", s.Middleware(http.HandlerFunc(app.ReviewHandler))).Methods("PUT")

	// admin dashboard surface, gated by the admin JWT; the registry enforces
	// the role again underneath
	admin := apiCreate.PathPrefix("/admin").Subrouter()
	admin.Use(adminGate)
	admin.Handle("/applications", http.HandlerFunc(app.ListAllHandler)).Methods("GET")
	admin.Handle("/applications/counts", http.HandlerFunc(app.CountsHandler)).Methods("GET")
	admin.Handle("/applications/{application_id}/review", http.HandlerFunc(app.ReviewHandler)).Methods("PUT")

	apiCreate.Handle("/documents/signature", s.Middleware(http.HandlerFunc(docs.GenerateSignature))).Methods("POST")

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("parking-pass-api has connected to the database")

	// make sure the demo accounts exist before the first login
	identitySvc := identity.NewService(databases.NewUserDatabase(a.dbHelper))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := identitySvc.SeedDemoAccounts(ctx); err != nil {
		zap.S().With(err).Error("failed to seed demo accounts")
		return err
	}

	a.scheduler = scheduler.NewScheduler(
		databases.NewApplicationDatabase(a.dbHelper),
		mail.New(a.Config.SendgridAPIKey),
		a.Config.AdminNotifyEmail,
		time.Duration(a.Config.PendingReminderAge)*time.Hour,
	)
	a.scheduler.Start()

	// initialize api router
	a.initializeRoutes()
	return nil

}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
