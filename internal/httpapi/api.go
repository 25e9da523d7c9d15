// Package httpapi exposes the service over HTTP: authentication, patient and
// doctor records, the break-the-glass workflow, and the AI analysis proxy.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"medvault.org/internal/ai"
	"medvault.org/internal/audit"
	"medvault.org/internal/auth"
	"medvault.org/internal/emergency"
	"medvault.org/internal/obs"
	"medvault.org/internal/records"
	"medvault.org/internal/token"
)

// ReadyProbe checks dependencies for the readiness endpoint.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Config wires the API's collaborators.
type Config struct {
	Auth     *auth.Service
	Codec    *token.Codec
	Engine   *emergency.Engine
	Records  *records.Service
	AI       *ai.Client
	Sink     audit.Recorder
	Probe    ReadyProbe
	Version  string
	TokenTTL time.Duration
}

// API is the HTTP layer.
type API struct {
	router   chi.Router
	auth     *auth.Service
	codec    *token.Codec
	engine   *emergency.Engine
	records  *records.Service
	ai       *ai.Client
	sink     audit.Recorder
	probe    ReadyProbe
	version  string
	tokenTTL time.Duration
}

// New builds the router with the full middleware chain and all routes.
func New(cfg Config) *API {
	a := &API{
		router:   chi.NewRouter(),
		auth:     cfg.Auth,
		codec:    cfg.Codec,
		engine:   cfg.Engine,
		records:  cfg.Records,
		ai:       cfg.AI,
		sink:     cfg.Sink,
		probe:    cfg.Probe,
		version:  cfg.Version,
		tokenTTL: cfg.TokenTTL,
	}
	if a.tokenTTL <= 0 {
		a.tokenTTL = 24 * time.Hour
	}

	r := a.router
	r.Use(RequestID)
	r.Use(Metrics)
	r.Use(Recovery)
	r.Use(Logging)
	r.Use(SecurityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           600,
	}))
	r.Use(RateLimit(20, 10))
	r.Use(a.withIdentity)

	// Probes and operational surface.
	r.Get("/healthz", a.Healthz)
	r.Get("/readyz", a.Ready)
	r.Get("/v1/info", a.Info)
	r.Handle("/metrics", obs.Handler())

	// Authentication.
	r.Post("/auth/register", a.handleRegister)
	r.Post("/auth/login", a.handleLogin)

	// Patient records.
	r.Route("/patients", func(r chi.Router) {
		r.With(RequireRole(auth.RoleAdmin, auth.RoleClinician)).Post("/", a.handleCreatePatient)
		r.With(RequireAuthenticated).Get("/", a.handleListPatients)
		r.With(RequireAuthenticated).Get("/{patientID}", a.handleGetPatient)
		r.With(RequireAuthenticated).Get("/{patientID}/reports", a.handleReportsForPatient)
		r.With(RequireRole(auth.RoleAdmin, auth.RoleClinician)).Post("/{patientID}/reports", a.handleCreateReport)

		// Break-the-glass, nested route shape.
		r.Route("/{patientID}/emergency-access", func(r chi.Router) {
			r.Post("/", a.handleEmergencyRequest)
			r.With(RequireAuthenticated).Get("/", a.handleEmergencyActive)
			r.With(RequireRole(auth.RoleAdmin, auth.RoleClinician)).Post("/{requestID}/approve", a.handleEmergencyApprove)
			r.With(RequireRole(auth.RoleAdmin, auth.RoleClinician)).Post("/{requestID}/deny", a.handleEmergencyDeny)
		})
	})

	// Break-the-glass, flat route shape. Same handlers as the nested form.
	r.Route("/emergency", func(r chi.Router) {
		r.With(RequireAuthenticated).Get("/{requestID}", a.handleEmergencyGet)
		r.With(RequireRole(auth.RoleAdmin, auth.RoleClinician)).Post("/{requestID}/approve", a.handleEmergencyApprove)
		r.With(RequireRole(auth.RoleAdmin, auth.RoleClinician)).Post("/{requestID}/deny", a.handleEmergencyDeny)
	})

	// Doctors.
	r.Route("/doctors", func(r chi.Router) {
		r.With(RequireRole(auth.RoleAdmin)).Post("/", a.handleCreateDoctor)
		r.With(RequireAuthenticated).Get("/{doctorID}", a.handleGetDoctor)
	})

	// Single report lookup.
	r.With(RequireAuthenticated).Get("/reports/{reportID}", a.handleGetReport)

	// Account administration.
	r.With(RequireRole(auth.RoleAdmin)).Post("/users/{userID}/deactivate", a.handleDeactivateUser)

	// AI analysis proxy.
	r.Route("/ai", func(r chi.Router) {
		r.Use(RequireAuthenticated)
		r.Post("/analyze-report", a.handleAnalyzeReport)
		r.Post("/chat", a.handleChat)
		r.Post("/predict/symptoms", a.handlePredictSymptoms)
	})

	return a
}

// Handler returns the root handler. Metrics instrumentation runs inside the
// middleware chain so it can resolve the matched chi route pattern.
func (a *API) Handler() http.Handler {
	return a.router
}
