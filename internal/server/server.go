package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/barhop/internal/activity"
	"github.com/dukerupert/barhop/internal/checkin"
	"github.com/dukerupert/barhop/internal/config"
	"github.com/dukerupert/barhop/internal/device"
	"github.com/dukerupert/barhop/internal/handler"
	"github.com/dukerupert/barhop/internal/metrics"
	"github.com/dukerupert/barhop/internal/middleware"
	"github.com/dukerupert/barhop/internal/store"
	ws "github.com/dukerupert/barhop/internal/websocket"
	"github.com/dukerupert/barhop/web"
)

type Server struct {
	db              *sql.DB
	hub             *ws.Hub
	activityH       *handler.ActivityHandler
	checkinH        *handler.CheckinHandler
	templateHandler *handler.TemplateHandler
	deviceStore     *store.DeviceStore
	resolver        *device.Resolver
	rateLimiter     *middleware.RateLimiter
	metrics         *metrics.Metrics
	logger          *slog.Logger
}

func New(db *sql.DB, cfg config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))
	m := metrics.New(hub.ClientCount)

	activityStore := store.NewActivityStore(db)
	checkinStore := store.NewCheckinStore(db)
	deviceStore := store.NewDeviceStore(db)

	verifier := checkin.NewVerifier(activityStore, checkinStore, deviceStore)
	format := activity.Formatter{Location: cfg.Timezone}

	return &Server{
		db:              db,
		hub:             hub,
		activityH:       handler.NewActivityHandler(activityStore, logger.With("component", "activity")),
		checkinH:        handler.NewCheckinHandler(checkinStore, verifier, hub, m, logger.With("component", "checkin")),
		templateHandler: handler.NewTemplateHandler(activityStore, checkinStore, verifier, hub, m, format, logger.With("component", "template")),
		deviceStore:     deviceStore,
		resolver:        device.NewResolver(deviceStore, cfg.SecureCookies, logger.With("component", "device")),
		rateLimiter:     middleware.NewRateLimiter(cfg.CheckinRateLimit, cfg.CheckinRateWindow),
		metrics:         m,
		logger:          logger,
	}
}

// DeviceStore returns the device store for cleanup tasks.
func (s *Server) DeviceStore() *store.DeviceStore {
	return s.deviceStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(web.StaticFS)))
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.HandleFunc("GET /ws", s.hub.HandleWebSocket)

	withDevice := device.Middleware(s.resolver, s.logger.With("component", "device"))
	limited := func(h http.HandlerFunc) http.Handler {
		return withDevice(middleware.RateLimit(s.rateLimiter, rateLimitKey)(h))
	}

	// Pages
	mux.HandleFunc("GET /{$}", s.templateHandler.Index)
	mux.Handle("GET /activities/{activity_id}", withDevice(http.HandlerFunc(s.templateHandler.ActivityDetail)))
	mux.HandleFunc("GET /checkin_verify", s.templateHandler.CheckinVerifyPage)

	// Partials (HTMX)
	mux.Handle("GET /partials/activities/{activity_id}/progress", withDevice(http.HandlerFunc(s.templateHandler.ActivityProgress)))
	mux.Handle("GET /partials/checkin_verify", withDevice(http.HandlerFunc(s.templateHandler.CheckinVerifyContent)))
	mux.Handle("POST /partials/checkin_verify", limited(s.templateHandler.CheckinVerifySubmit))

	// API
	mux.HandleFunc("GET /api/activities", s.activityH.List)
	mux.HandleFunc("GET /api/activities/{id}", s.activityH.Get)
	mux.Handle("GET /api/activities/{id}/checkins", withDevice(http.HandlerFunc(s.checkinH.List)))
	mux.Handle("POST /api/activities/{id}/checkins", limited(s.checkinH.Create))

	// Metrics must wrap the mux directly so the matched pattern is visible
	// after the inner handler returns.
	return middleware.RequestLogger(s.logger.With("component", "http"))(middleware.Metrics(s.metrics)(mux))
}

// rateLimitKey limits check-ins per returning device. Requests that arrive
// without a known device cookie, including ones that were just issued an
// id, share their client IP's budget.
func rateLimitKey(r *http.Request) string {
	id, err := device.FromContext(r.Context()).Identity(r.Context())
	if err == nil && id.ID != "" && !id.Issued {
		return "device:" + id.ID
	}
	return "ip:" + middleware.RealIP(r)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.db.PingContext(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
