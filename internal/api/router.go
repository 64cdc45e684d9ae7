package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/eventsphere/internal/api/apierr"
	"github.com/mcoot/eventsphere/internal/api/handler"
	"github.com/mcoot/eventsphere/internal/api/middleware"
	"github.com/mcoot/eventsphere/internal/metrics"
	"github.com/mcoot/eventsphere/internal/services/auth"
	"github.com/mcoot/eventsphere/internal/services/checkin"
	"github.com/mcoot/eventsphere/internal/services/registration"
	"github.com/mcoot/eventsphere/internal/services/stats"
)

// DefaultCookieName is the admin session cookie
const DefaultCookieName = "eventsphere.sid"

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger              *slog.Logger
	Metrics             *metrics.Metrics
	AuthService         *auth.Service
	RegistrationService *registration.Service
	CheckInService      *checkin.Service
	StatsService        *stats.Service
	Cookie              handler.CookieConfig
	AllowedOrigins      []string
}

// NewRouter creates the HTTP handler with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Cookie.Name == "" {
		cfg.Cookie.Name = DefaultCookieName
	}

	// Match raw paths; scanned ids may contain "/", "." or ".."
	r := mux.NewRouter().SkipClean(true).UseEncodedPath()

	// Create handlers
	participantHandler := handler.NewParticipantHandler(cfg.RegistrationService, cfg.Logger)
	checkInHandler := handler.NewCheckInHandler(cfg.CheckInService, cfg.Logger)
	statsHandler := handler.NewStatsHandler(cfg.StatsService, cfg.Logger)
	authHandler := handler.NewAuthHandler(cfg.AuthService, cfg.Cookie, cfg.Logger)

	requireAdmin := middleware.RequireAdmin(cfg.AuthService, cfg.Cookie.Name, cfg.Logger)

	r.Use(middleware.Metrics(cfg.Metrics))
	r.NotFoundHandler = errorHandler(apierr.NewNotFoundError())
	r.MethodNotAllowedHandler = errorHandler(apierr.NewMethodNotAllowedError())

	// Public routes
	r.HandleFunc("/register", participantHandler.Register).Methods(http.MethodPost)
	r.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)
	r.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodPost)
	r.HandleFunc("/health", handler.Health).Methods(http.MethodGet)
	r.Handle("/metrics", cfg.Metrics.Handler()).Methods(http.MethodGet)

	// Admin routes
	admin := r.NewRoute().Subrouter()
	admin.Use(requireAdmin)
	admin.HandleFunc("/session", authHandler.Session).Methods(http.MethodGet)
	admin.HandleFunc("/participants", participantHandler.List).Methods(http.MethodGet)
	admin.HandleFunc("/checkin/{id}", checkInHandler.CheckIn).Methods(http.MethodPost)
	admin.HandleFunc("/stats", statsHandler.Get).Methods(http.MethodGet)

	// CORS runs before routing so preflights never reach method matching
	var h http.Handler = r
	h = middleware.CORS(cfg.AllowedOrigins)(h)
	h = middleware.Logging(cfg.Logger)(h)
	h = middleware.Recovery(cfg.Logger)(h)
	return h
}

func errorHandler(err error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apierr.WriteError(w, r, nil, err)
	})
}
