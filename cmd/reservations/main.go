package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/equipment-reservation/internal/application"
	"github.com/example/equipment-reservation/internal/auth"
	"github.com/example/equipment-reservation/internal/config"
	"github.com/example/equipment-reservation/internal/domain"
	httptransport "github.com/example/equipment-reservation/internal/http"
	"github.com/example/equipment-reservation/internal/logging"
	"github.com/example/equipment-reservation/internal/metrics"
	"github.com/example/equipment-reservation/internal/persistence/sqlstore"
)

func main() {
	bootstrap := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		bootstrap.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		bootstrap.Error("failed to configure logging", "error", err)
		os.Exit(1)
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	handler, err := buildHandler(cfg, store, metrics.NewRecorder(true), time.Now, logger)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("reservation API listening", "addr", server.Addr, "db_driver", cfg.DBDriver)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// openStore connects to the configured database and applies pending migrations.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (*sqlstore.Store, error) {
	storeConfig := sqlstore.DefaultSQLiteConfig(cfg.DBDSN)
	if sqlstore.Driver(cfg.DBDriver) == sqlstore.DriverPostgres {
		storeConfig = sqlstore.DefaultPostgresConfig(cfg.DBDSN)
	}

	store, err := sqlstore.Open(ctx, storeConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return store, nil
}

// buildHandler wires services over store into the HTTP router.
func buildHandler(cfg config.Config, store *sqlstore.Store, recorder *metrics.Recorder, now func() time.Time, logger *slog.Logger) (http.Handler, error) {
	tokens, err := auth.NewTokenManager(cfg.TokenSecret, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("configure tokens: %w", err)
	}

	repos := store.Repositories()
	idGenerator := domain.NewID
	hasher := application.NewArgon2idHasher(application.DefaultArgon2idParams)

	locationService := application.NewLocationServiceWithLogger(repos.Buildings, repos.Floors, repos.Rooms, idGenerator, now, logger)
	equipmentService := application.NewEquipmentServiceWithLogger(repos.Equipment, repos.Users, idGenerator, now, logger)
	categoryService := application.NewCategoryServiceWithLogger(repos.Categories, idGenerator, now, logger)
	reservationService := application.NewReservationServiceWithLogger(repos.Reservations, repos.Equipment, idGenerator, now, logger)
	maintenanceService := application.NewMaintenanceServiceWithLogger(repos.Maintenance, repos.Equipment, idGenerator, now, logger)
	commentService := application.NewCommentServiceWithLogger(repos.Comments, repos.Equipment, idGenerator, now, logger)
	userService := application.NewUserServiceWithLogger(repos.Users, hasher, idGenerator, now, logger)
	authService := application.NewAuthServiceWithLogger(repos.Users, hasher, tokens, now, logger)
	settingService := application.NewSettingServiceWithLogger(repos.Settings, cfg.SettingsCacheTTL, cfg.DefaultTimezone, idGenerator, now, logger)

	if recorder != nil {
		locationService.SetMetrics(recorder)
		equipmentService.SetMetrics(recorder)
		categoryService.SetMetrics(recorder)
		reservationService.SetMetrics(recorder)
		maintenanceService.SetMetrics(recorder)
		commentService.SetMetrics(recorder)
		userService.SetMetrics(recorder)
		authService.SetMetrics(recorder)
		settingService.SetMetrics(recorder)
	}

	routerConfig := httptransport.RouterConfig{
		Sessions:     httptransport.NewAuthHandler(authService, logger),
		Users:        httptransport.NewUserHandler(userService, logger),
		Locations:    httptransport.NewLocationHandler(locationService, logger),
		Equipment:    httptransport.NewEquipmentHandler(equipmentService, categoryService, logger),
		Reservations: httptransport.NewReservationHandler(reservationService, equipmentService, settingService, now, logger),
		Activity:     httptransport.NewActivityHandler(maintenanceService, commentService, logger),
		Settings:     httptransport.NewSettingHandler(settingService, logger),
		RequireAuth:  httptransport.RequireAuth(authService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.Recoverer(logger),
		},
	}
	if recorder != nil {
		routerConfig.Metrics = recorder.Handler()
	}
	return httptransport.NewRouter(routerConfig), nil
}
