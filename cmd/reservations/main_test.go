package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/equipment-reservation/internal/config"
	"github.com/example/equipment-reservation/internal/metrics"
	"github.com/example/equipment-reservation/internal/testfixtures"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		HTTPPort:         0,
		DBDriver:         "sqlite",
		DBDSN:            filepath.Join(t.TempDir(), "reservations.db"),
		TokenSecret:      "0123456789abcdef0123456789abcdef",
		TokenTTL:         time.Hour,
		SettingsCacheTTL: time.Minute,
		DefaultTimezone:  time.UTC,
	}
}

func TestOpenStore_AppliesMigrations(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)
	cfg := testConfig(t)

	store, err := openStore(ctx, cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Ping(ctx))
	status, err := store.MigrationStatus(ctx)
	require.NoError(t, err)
	assert.Zero(t, status.PendingCount)
	assert.NotEmpty(t, status.AppliedMigrations)

	// Reopening an up to date database is a no-op.
	again, err := openStore(ctx, cfg, logger)
	require.NoError(t, err)
	require.NoError(t, again.Close())
}

func TestBuildHandler(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)
	cfg := testConfig(t)
	clock := testfixtures.NewClock(time.Time{})

	store, err := openStore(ctx, cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	handler, err := buildHandler(cfg, store, metrics.NewRecorder(false), clock.NowFunc(), logger)
	require.NoError(t, err)

	post := func(path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	rec := post("/users", `{"email":"admin@example.com","password":"s3cret-pass"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"role":"ADMIN"`)

	rec = post("/sessions", `{"email":"admin@example.com","password":"s3cret-pass"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"token_type":"Bearer"`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/equipment", nil)
	unauthorized := httptest.NewRecorder()
	handler.ServeHTTP(unauthorized, req)
	assert.Equal(t, http.StatusUnauthorized, unauthorized.Code)

	metricsRec := httptest.NewRecorder()
	handler.ServeHTTP(metricsRec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, metricsRec.Code)
	assert.Contains(t, metricsRec.Body.String(), "equipment_reservation_service_operation_duration_seconds")
}

func TestBuildHandler_RejectsWeakSecret(t *testing.T) {
	cfg := testConfig(t)
	cfg.TokenSecret = "short"

	store, err := openStore(context.Background(), cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, err = buildHandler(cfg, store, nil, time.Now, slog.New(slog.DiscardHandler))
	assert.ErrorContains(t, err, "configure tokens")
}
