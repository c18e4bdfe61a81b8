package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"bamboowoods/internal/clock"
	"bamboowoods/internal/config"
	"bamboowoods/internal/database"
	"bamboowoods/internal/events"
	"bamboowoods/internal/models"
	"bamboowoods/internal/notification"
	"bamboowoods/internal/repository"
	"bamboowoods/internal/service"

	"github.com/stretchr/testify/require"
)

const (
	adminEmail    = "ops@bamboowoods.example"
	adminPassword = "correct-horse-battery"
)

// fakeNotifier records every message and answers with reply or err.
type fakeNotifier struct {
	mu    sync.Mutex
	sent  []notification.Message
	reply json.RawMessage
	err   error
}

func (f *fakeNotifier) Notify(_ context.Context, msg notification.Message) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeReviews struct {
	result json.RawMessage
	err    error
}

func (f fakeReviews) Details(context.Context) (json.RawMessage, error) {
	return f.result, f.err
}

type testEnv struct {
	t        *testing.T
	db       *database.DB
	server   *Server
	notifier *fakeNotifier
	env      map[string]string
}

func newTestEnv(t *testing.T, mutate ...func(*config.Config, *Deps)) *testEnv {
	t.Helper()

	db, err := database.NewDB(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := &config.Config{Database: config.DatabaseConfig{Path: ":memory:"}}
	cfg.HTTP.AllowedOrigins = []string{"https://bamboowoods.example"}
	cfg.Dashboard.PageSize = 5
	cfg.Session.CookieName = "bw_session"
	cfg.Session.TTL = time.Hour
	cfg.Email.FunctionKeyEnv = "BOOKING_EMAIL_FUNCTION_KEY"

	clk := clock.NewSystem()
	state := repository.NewMemoryStateRepository(time.Hour)
	notifier := &fakeNotifier{reply: json.RawMessage(`{"id":"email_1"}`)}

	bookings := service.NewBookingService(db, notifier, events.NewEventBus(nil), nil, clk, cfg.Dashboard.PageSize, nil)
	auth := service.NewAuthService(db, state, clk, cfg.Session.TTL, nil)
	_, err = auth.EnsureAdmin(context.Background(), adminEmail, adminPassword)
	require.NoError(t, err)

	deps := Deps{
		Bookings:  bookings,
		Menu:      service.NewMenuService(db, nil),
		Auth:      auth,
		Dashboard: service.NewDashboardService(state, bookings, cfg.Dashboard.PageSize, nil),
		Notifier:  notifier,
		Reviews:   fakeReviews{result: json.RawMessage(`{"status":"OK","result":{"rating":4.7}}`)},
		DB:        db,
		Clock:     clk,
	}
	for _, m := range mutate {
		m(cfg, &deps)
	}

	e := &testEnv{t: t, db: db, notifier: notifier, env: map[string]string{}}
	e.server = NewServer(cfg, deps, nil)
	e.server.lookupEnv = func(key string) (string, bool) {
		v, ok := e.env[key]
		return v, ok
	}
	return e
}

func (e *testEnv) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login() string {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/api/admin/login", loginRequest{Email: adminEmail, Password: adminPassword}, "")
	require.Equal(e.t, http.StatusOK, rec.Code, rec.Body.String())

	var session models.Session
	require.NoError(e.t, json.Unmarshal(rec.Body.Bytes(), &session))
	require.NotEmpty(e.t, session.Token)
	return session.Token
}

func (e *testEnv) seedBooking(name string, daysFromToday int) *models.Booking {
	e.t.Helper()
	b := &models.Booking{
		Name:   name,
		Email:  "guest@example.com",
		Phone:  "0712345678",
		Type:   "Wedding",
		Date:   clock.Today(clock.NewSystem()).AddDate(0, 0, daysFromToday),
		Guests: 40,
	}
	require.NoError(e.t, e.db.CreateBooking(context.Background(), b))
	return b
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
