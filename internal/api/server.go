// Package api is the HTTP transport: the public site endpoints, the admin
// dashboard API and the booking email function.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"bamboowoods/internal/clock"
	"bamboowoods/internal/config"
	"bamboowoods/internal/domain"
	"bamboowoods/internal/service"

	"github.com/rs/zerolog"
)

// ReviewsSource returns the venue's place details as raw JSON.
type ReviewsSource interface {
	Details(ctx context.Context) (json.RawMessage, error)
}

// FullSyncer rewrites the spreadsheet mirror for a date range.
type FullSyncer interface {
	EnqueueFullSync(ctx context.Context, start, end time.Time) error
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	Bookings  *service.BookingService
	Menu      *service.MenuService
	Auth      *service.AuthService
	Dashboard *service.DashboardService
	Notifier  domain.Notifier
	Reviews   ReviewsSource
	Sync      FullSyncer
	DB        Pinger
	Clock     clock.Clock
}

type Server struct {
	cfg            config.HTTPConfig
	session        config.SessionConfig
	functionKeyEnv string
	deps           Deps
	limiter        *rateLimiter
	lookupEnv      func(string) (string, bool)
	logger         *zerolog.Logger
	handler        http.Handler
	server         *http.Server
}

func NewServer(cfg *config.Config, deps Deps, logger *zerolog.Logger) *Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if deps.Clock == nil {
		deps.Clock = clock.NewSystem()
	}

	s := &Server{
		cfg:            cfg.HTTP,
		session:        cfg.Session,
		functionKeyEnv: cfg.Email.FunctionKeyEnv,
		deps:           deps,
		limiter:        newRateLimiter(cfg.HTTP.RateLimit),
		lookupEnv:      os.LookupEnv,
		logger:         logger,
	}

	mux := http.NewServeMux()
	s.routes(mux)
	s.handler = s.recoverer(s.requestID(s.accessLog(s.cors(mux))))

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/bookings", s.rateLimited(s.handleSubmitBooking))
	mux.HandleFunc("GET /api/booking-types", s.handleBookingTypes)
	mux.HandleFunc("GET /api/menu", s.handlePublicMenu)
	mux.HandleFunc("GET /api/reviews", s.rateLimited(s.handleReviews))

	mux.HandleFunc("OPTIONS "+functionPath, s.handleFunctionPreflight)
	mux.HandleFunc("POST "+functionPath, s.rateLimited(s.handleBookingEmail))

	mux.HandleFunc("POST /api/admin/login", s.rateLimited(s.handleLogin))
	mux.Handle("POST /api/admin/logout", s.requireSession(s.handleLogout))
	mux.Handle("GET /api/admin/me", s.requireSession(s.handleMe))
	mux.Handle("POST /api/admin/password", s.requireSession(s.handleChangePassword))

	mux.Handle("GET /api/admin/dashboard", s.requireSession(s.handleDashboardState))
	mux.Handle("PUT /api/admin/dashboard/tab", s.requireSession(s.handleSelectTab))

	mux.Handle("GET /api/admin/bookings", s.requireSession(s.handleListBookings))
	mux.Handle("GET /api/admin/bookings/export.xlsx", s.requireSession(s.handleExportBookings))
	mux.Handle("GET /api/admin/bookings/{id}", s.requireSession(s.handleGetBooking))
	mux.Handle("POST /api/admin/bookings/{id}/confirm", s.requireSession(s.handleConfirm))
	mux.Handle("GET /api/admin/bookings/{id}/rejection", s.requireSession(s.handlePreviewRejection))
	mux.Handle("POST /api/admin/bookings/{id}/reject", s.requireSession(s.handleReject))
	mux.Handle("POST /api/admin/bookings/{id}/undo", s.requireSession(s.handleUndo))

	mux.Handle("POST /api/admin/sync", s.requireSession(s.handleFullSync))

	mux.Handle("GET /api/admin/menu", s.requireSession(s.handleAdminMenu))
	mux.Handle("POST /api/admin/menu", s.requireSession(s.handleCreateMenuItem))
	mux.Handle("PUT /api/admin/menu/{id}", s.requireSession(s.handleUpdateMenuItem))
	mux.Handle("PATCH /api/admin/menu/{id}/availability", s.requireSession(s.handleMenuAvailability))
	mux.Handle("DELETE /api/admin/menu/{id}", s.requireSession(s.handleDeleteMenuItem))
}

// Handler returns the fully wrapped handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.DB.PingContext(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("readiness check failed")
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
