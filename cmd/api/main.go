package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"bamboowoods/internal/api"
	"bamboowoods/internal/clock"
	"bamboowoods/internal/config"
	"bamboowoods/internal/database"
	"bamboowoods/internal/domain"
	"bamboowoods/internal/events"
	"bamboowoods/internal/google"
	"bamboowoods/internal/logging"
	"bamboowoods/internal/metrics"
	"bamboowoods/internal/models"
	"bamboowoods/internal/notification"
	"bamboowoods/internal/places"
	"bamboowoods/internal/repository"
	"bamboowoods/internal/service"
	"bamboowoods/internal/telegram"
	"bamboowoods/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.Database, logging.Component(logger, "database"))
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.Database.Driver).Msg("init database")
		return err
	}
	defer db.Close()

	if err := seedMenu(ctx, db, logger); err != nil {
		return err
	}

	redisClient := initRedis(ctx, cfg, logger)
	defer func() { _ = repository.Close(redisClient) }()

	var state domain.StateRepository = repository.NewMemoryStateRepository(models.DashboardStateTTL)
	if redisClient != nil {
		state = repository.NewFailoverStateRepository(
			repository.NewRedisStateRepository(redisClient, models.DashboardStateTTL),
			state,
			logging.Component(logger, "state"),
		)
	}

	bus := events.NewEventBus(logging.Component(logger, "events"))
	var wg sync.WaitGroup
	loc, err := cfg.App.Location()
	if err != nil {
		return err
	}
	clk := clock.InLocation(clock.NewSystem(), loc)

	initTelegram(ctx, cfg, bus, db, clk, &wg, logger)

	sheetsWorker := initSheetsSync(ctx, cfg, db, redisClient, clk, &wg, logger)
	var syncer domain.SyncWorker
	var fullSync api.FullSyncer
	if sheetsWorker != nil {
		syncer, fullSync = sheetsWorker, sheetsWorker
	}

	notifier := notification.NewService(
		notification.NewRenderer(cfg.Email.From, cfg.Email.VenueLocation),
		notification.NewResendClient(cfg.Email),
		logging.Component(logger, "notification"),
	)

	bookings := service.NewBookingService(db, notifier, bus, syncer, clk, cfg.Dashboard.PageSize, logging.Component(logger, "bookings"))
	auth := service.NewAuthService(db, state, clk, cfg.Session.TTL, logging.Component(logger, "auth"))
	if err := ensureAdmin(ctx, cfg, auth, logger); err != nil {
		return err
	}

	reviews := places.NewClient(cfg.Places, logging.Component(logger, "places"))
	if redisClient != nil {
		reviews.UseRedisCache(redisClient, cfg.Places.CacheTTL)
	}

	httpServer := api.NewServer(cfg, api.Deps{
		Bookings:  bookings,
		Menu:      service.NewMenuService(db, logging.Component(logger, "menu")),
		Auth:      auth,
		Dashboard: service.NewDashboardService(state, bookings, cfg.Dashboard.PageSize, logging.Component(logger, "dashboard")),
		Notifier:  notifier,
		Reviews:   reviews,
		Sync:      fullSync,
		DB:        db,
		Clock:     clk,
	}, logging.Component(logger, "http"))

	backup := database.NewBackupService(db, cfg.Backup, logging.Component(logger, "backup"))
	wg.Add(1)
	go func() {
		defer wg.Done()
		backup.Start(ctx)
	}()

	startMetrics(ctx, cfg, logger)

	err = serve(ctx, httpServer, logger)
	stop()
	wg.Wait()
	return err
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logging.Component(baseLogger, "api-main"), closer, nil
}

// seedMenu fills an empty menu table from MENU_PATH. A missing file is not
// an error.
func seedMenu(ctx context.Context, db *database.DB, logger *zerolog.Logger) error {
	menuPath := os.Getenv("MENU_PATH")
	if menuPath == "" {
		menuPath = "configs/menu.yaml"
	}
	data, err := os.ReadFile(menuPath)
	if errors.Is(err, os.ErrNotExist) {
		logger.Info().Str("menu_path", menuPath).Msg("no menu seed file")
		return nil
	}
	if err != nil {
		logger.Error().Err(err).Str("menu_path", menuPath).Msg("read menu")
		return err
	}

	var menuConfig struct {
		Items []models.MenuItem `yaml:"items"`
	}
	if err := yaml.Unmarshal(data, &menuConfig); err != nil {
		logger.Error().Err(err).Str("menu_path", menuPath).Msg("parse menu")
		return err
	}

	n, err := db.SeedMenu(ctx, menuConfig.Items)
	if err != nil {
		return fmt.Errorf("seed menu: %w", err)
	}
	if n > 0 {
		logger.Info().Int("items", n).Msg("menu seeded")
	}
	return nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := repository.Ping(pingCtx, client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = client.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return client
}

func initTelegram(
	ctx context.Context,
	cfg *config.Config,
	bus *events.EventBus,
	db *database.DB,
	clk clock.Clock,
	wg *sync.WaitGroup,
	logger *zerolog.Logger,
) {
	if cfg.Telegram.BotToken == "" || len(cfg.Telegram.ManagerChatIDs) == 0 {
		return
	}

	bot, err := telegram.NewBotSender(cfg.Telegram)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, continuing without alerts")
		return
	}
	tgLogger := logging.Component(logger, "telegram")
	alerter := telegram.NewAlerter(bot, cfg.Telegram.ManagerChatIDs, tgLogger)
	alerter.Subscribe(bus)
	wg.Add(1)
	go func() {
		defer wg.Done()
		alerter.Run(ctx)
	}()

	digest, err := telegram.NewDigest(alerter, db, clk, cfg.Telegram.DigestTime, tgLogger)
	if err != nil {
		logger.Warn().Err(err).Msg("daily digest disabled")
	} else {
		wg.Add(1)
		go func() {
			defer wg.Done()
			digest.Start(ctx)
		}()
	}
	logger.Info().Int("chats", len(cfg.Telegram.ManagerChatIDs)).Msg("telegram alerts enabled")
}

// initSheetsSync starts the spreadsheet mirror when Google credentials are
// configured and returns nil otherwise.
func initSheetsSync(
	ctx context.Context,
	cfg *config.Config,
	db *database.DB,
	redisClient *redis.Client,
	clk clock.Clock,
	wg *sync.WaitGroup,
	logger *zerolog.Logger,
) *worker.SheetsWorker {
	if cfg.Google.GoogleCredentialsFile == "" || cfg.Google.BookingSpreadSheetID == "" {
		return nil
	}

	sheetsLogger := logging.Component(logger, "sheets")
	sheetsService, err := google.NewSheetsService(ctx, cfg.Google.GoogleCredentialsFile, cfg.Google.BookingSpreadSheetID, sheetsLogger)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}
	if err := sheetsService.TestConnection(ctx); err != nil {
		email, _ := google.ServiceAccountEmail(cfg.Google.GoogleCredentialsFile)
		logger.Warn().Err(err).Str("service_account", email).Msg("spreadsheet not reachable, share it with the service account")
	}

	w := worker.NewSheetsWorker(db, sheetsService, db, redisClient, worker.RetryPolicy{}, logging.Component(logger, "sheets-worker"))

	wg.Add(2)
	go func() {
		defer wg.Done()
		sheetsService.StartCacheRefresh(ctx, 10*time.Minute)
	}()
	go func() {
		defer wg.Done()
		w.Start(ctx)
	}()

	if failed, err := db.GetFailedSyncTasks(ctx); err == nil && len(failed) > 0 {
		logger.Warn().Int("tasks", len(failed)).Msg("sheets sync has failed tasks, run a full sync to repair the mirror")
	}

	today := clock.Today(clk)
	if err := w.EnqueueFullSync(ctx, today.AddDate(0, -3, 0), today.AddDate(1, 0, 0)); err != nil {
		logger.Warn().Err(err).Msg("initial sheets sync not scheduled")
	}

	logger.Info().Msg("google sheets connected")
	return w
}

func ensureAdmin(ctx context.Context, cfg *config.Config, auth *service.AuthService, logger *zerolog.Logger) error {
	created, err := auth.EnsureAdmin(ctx, os.Getenv(cfg.Admin.EmailEnv), os.Getenv(cfg.Admin.PasswordEnv))
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	if created {
		logger.Info().Str("email_env", cfg.Admin.EmailEnv).Msg("admin account created")
	}
	return nil
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	metrics.Register()
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func serve(ctx context.Context, httpServer *api.Server, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			return err
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
