package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/equipment-reservation/internal/auth"
	"github.com/example/equipment-reservation/internal/metrics"
	"github.com/example/equipment-reservation/internal/testfixtures"
)

type testAPI struct {
	t       *testing.T
	factory *testfixtures.ServiceFactory
	handler http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	factory := testfixtures.NewServiceFactory()
	tokens, err := auth.NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour)
	require.NoError(t, err)

	logger := factory.Logger
	authService := factory.NewAuthService(tokens)
	settings := factory.NewSettingService(time.Minute, time.UTC)
	equipment := factory.NewEquipmentService()
	recorder := metrics.NewRecorder(false)
	reservations := factory.NewReservationService()
	reservations.SetMetrics(recorder)

	handler := NewRouter(RouterConfig{
		Sessions:     NewAuthHandler(authService, logger),
		Users:        NewUserHandler(factory.NewUserService(), logger),
		Locations:    NewLocationHandler(factory.NewLocationService(), logger),
		Equipment:    NewEquipmentHandler(equipment, factory.NewCategoryService(), logger),
		Reservations: NewReservationHandler(reservations, equipment, settings, factory.Clock.NowFunc(), logger),
		Activity:     NewActivityHandler(factory.NewMaintenanceService(), factory.NewCommentService(), logger),
		Settings:     NewSettingHandler(settings, logger),
		Metrics:      recorder.Handler(),
		RequireAuth:  RequireAuth(authService, logger),
		Middleware:   []func(http.Handler) http.Handler{RequestLogger(logger), Recoverer(logger)},
	})
	return &testAPI{t: t, factory: factory, handler: handler}
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

// register creates an account and returns a bearer token for it.
func (a *testAPI) register(email string) (string, string) {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/users", "", map[string]any{"email": email, "password": "s3cret-pass"})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	var created userResponse
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = a.do(http.MethodPost, "/sessions", "", map[string]any{"email": email, "password": "s3cret-pass"})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	var session loginResponse
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &session))
	assert.Equal(a.t, "Bearer", session.TokenType)
	return created.User.ID, session.Token
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestSessionsAndProfiles(t *testing.T) {
	api := newTestAPI(t)
	adminID, adminToken := api.register("admin@example.com")
	_, memberToken := api.register("member@example.com")

	t.Run("first account is an administrator", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/me", adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		me := decodeBody[userResponse](t, rec)
		assert.Equal(t, adminID, me.User.ID)
		assert.Equal(t, "ADMIN", me.User.Role)
	})

	t.Run("later accounts are general users", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/me", memberToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "GENERAL", decodeBody[userResponse](t, rec).User.Role)
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/sessions", "", map[string]any{"email": "admin@example.com", "password": "wrong-pass"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "INVALID_CREDENTIALS", decodeBody[errorResponse](t, rec).ErrorCode)
	})

	t.Run("protected routes require a token", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/equipment", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		rec = api.do(http.MethodGet, "/equipment", "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/users", "", map[string]any{"email": "ADMIN@example.com", "password": "s3cret-pass"})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/users", "", map[string]any{"email": "x@example.com", "password": "s3cret-pass", "role": "ADMIN"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "BAD_REQUEST", decodeBody[errorResponse](t, rec).ErrorCode)
	})

	t.Run("general users cannot list accounts", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/users", memberToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		rec = api.do(http.MethodGet, "/users", adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodeBody[listUsersResponse](t, rec).Users, 2)
	})
}

func TestLocationAndEquipmentRoutes(t *testing.T) {
	api := newTestAPI(t)
	_, adminToken := api.register("admin@example.com")
	_, memberToken := api.register("member@example.com")

	rec := api.do(http.MethodPost, "/buildings", memberToken, map[string]any{"name": "Main"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodPost, "/buildings", adminToken, map[string]any{"name": "Main", "address": "1 Lab Road"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	building := decodeBody[buildingResponse](t, rec).Building

	rec = api.do(http.MethodPost, "/floors", adminToken, map[string]any{"name": "Ground", "building_id": building.ID, "floor_number": 1})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	floor := decodeBody[floorResponse](t, rec).Floor

	rec = api.do(http.MethodPost, "/rooms", adminToken, map[string]any{"name": "Lab 1", "floor_id": floor.ID, "capacity": 12})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	room := decodeBody[roomResponse](t, rec).Room

	rec = api.do(http.MethodGet, "/buildings/"+building.ID+"/floors", memberToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[listFloorsResponse](t, rec).Floors, 1)

	rec = api.do(http.MethodPost, "/equipment", adminToken, map[string]any{
		"name":              "Microscope",
		"room_id":           room.ID,
		"installation_date": "2024-04-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	equipment := decodeBody[equipmentResponse](t, rec).Equipment
	assert.Equal(t, "OPERATIONAL", equipment.RunningState)

	rec = api.do(http.MethodGet, "/rooms/"+room.ID+"/equipment", memberToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[listEquipmentResponse](t, rec).Equipment, 1)

	rec = api.do(http.MethodPost, "/equipment", adminToken, map[string]any{"name": " "})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decodeBody[errorResponse](t, rec).Errors, "name")

	rec = api.do(http.MethodGet, "/equipment/missing", memberToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReservationRoutes(t *testing.T) {
	api := newTestAPI(t)
	adminID, adminToken := api.register("admin@example.com")
	memberID, memberToken := api.register("member@example.com")

	rec := api.do(http.MethodPost, "/equipment", adminToken, map[string]any{"name": "Spectrometer", "administrator_id": adminID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	equipmentID := decodeBody[equipmentResponse](t, rec).Equipment.ID

	start, end := api.factory.Clock.Window(2*time.Hour, time.Hour)
	rec = api.do(http.MethodPost, "/reservations", memberToken, map[string]any{
		"equipment_id": equipmentID,
		"user_id":      memberID,
		"start_time":   start.Format(time.RFC3339),
		"end_time":     end.Format(time.RFC3339),
		"comment":      "calibration run",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	booked := decodeBody[reservationResponse](t, rec).Reservation
	assert.Equal(t, formatInstant(start), booked.StartTime)
	require.NotNil(t, booked.Comment)
	assert.Equal(t, "calibration run", *booked.Comment)

	t.Run("overlapping booking reports the conflict", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/reservations", adminToken, map[string]any{
			"equipment_id": equipmentID,
			"user_id":      adminID,
			"start_time":   start.Add(30 * time.Minute).Format(time.RFC3339),
			"end_time":     end.Add(30 * time.Minute).Format(time.RFC3339),
		})
		require.Equal(t, http.StatusConflict, rec.Code)
		body := decodeBody[errorResponse](t, rec)
		assert.Equal(t, "CONFLICT", body.ErrorCode)
		assert.Equal(t, []string{booked.ID}, body.ConflictReservationIDs)
	})

	t.Run("back to back booking is accepted", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/reservations", adminToken, map[string]any{
			"equipment_id": equipmentID,
			"user_id":      adminID,
			"start_time":   end.Format(time.RFC3339),
			"end_time":     end.Add(time.Hour).Format(time.RFC3339),
		})
		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})

	t.Run("malformed timestamps are a bad request", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/reservations", memberToken, map[string]any{
			"equipment_id": equipmentID,
			"user_id":      memberID,
			"start_time":   "tomorrow",
			"end_time":     end.Format(time.RFC3339),
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("members always book for themselves", func(t *testing.T) {
		later := end.Add(24 * time.Hour)
		rec := api.do(http.MethodPost, "/reservations", memberToken, map[string]any{
			"equipment_id": equipmentID,
			"user_id":      adminID,
			"start_time":   later.Format(time.RFC3339),
			"end_time":     later.Add(time.Hour).Format(time.RFC3339),
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		created := decodeBody[reservationResponse](t, rec).Reservation
		assert.Equal(t, memberID, created.UserID)

		rec = api.do(http.MethodDelete, "/reservations/"+created.ID, adminToken, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("listing by window", func(t *testing.T) {
		path := "/equipment/" + equipmentID + "/reservations?from=" + start.Format(time.RFC3339) + "&to=" + end.Format(time.RFC3339)
		rec := api.do(http.MethodGet, path, memberToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		listed := decodeBody[listReservationsResponse](t, rec).Reservations
		require.Len(t, listed, 1)
		assert.Equal(t, booked.ID, listed[0].ID)

		rec = api.do(http.MethodGet, "/equipment/"+equipmentID+"/reservations", memberToken, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("my reservations", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/reservations", memberToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		mine := decodeBody[listReservationsResponse](t, rec).Reservations
		require.Len(t, mine, 1)
		assert.Equal(t, memberID, mine[0].UserID)
	})

	t.Run("calendar feed", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/equipment/"+equipmentID+"/calendar.ics", memberToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/calendar"))
		body := rec.Body.String()
		assert.Contains(t, body, "BEGIN:VCALENDAR")
		assert.Contains(t, body, booked.ID+"@equipment-reservation")
		assert.Contains(t, body, "Spectrometer")
	})

	t.Run("owner moves then cancels", func(t *testing.T) {
		newStart := start.Add(48 * time.Hour)
		rec := api.do(http.MethodPut, "/reservations/"+booked.ID, memberToken, map[string]any{
			"start_time": newStart.Format(time.RFC3339),
			"end_time":   newStart.Add(time.Hour).Format(time.RFC3339),
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, formatInstant(newStart), decodeBody[reservationResponse](t, rec).Reservation.StartTime)

		rec = api.do(http.MethodDelete, "/reservations/"+booked.ID, memberToken, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		rec = api.do(http.MethodGet, "/reservations/"+booked.ID, memberToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("metrics are exposed without authentication", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/metrics", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "equipment_reservation_reservation_conflicts_total 1")
	})
}

func TestActivityAndSettingRoutes(t *testing.T) {
	api := newTestAPI(t)
	adminID, adminToken := api.register("admin@example.com")
	_, memberToken := api.register("member@example.com")

	rec := api.do(http.MethodPost, "/equipment", adminToken, map[string]any{"name": "Centrifuge", "administrator_id": adminID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	equipmentID := decodeBody[equipmentResponse](t, rec).Equipment.ID

	t.Run("maintenance history", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/maintenance", memberToken, map[string]any{
			"equipment_id": equipmentID,
			"record_date":  "2025-02-28",
			"description":  "replaced rotor",
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = api.do(http.MethodPost, "/maintenance", adminToken, map[string]any{
			"equipment_id": equipmentID,
			"record_date":  "2025-02-28",
			"description":  "replaced rotor",
			"cost":         12000,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		record := decodeBody[maintenanceResponse](t, rec).Record
		assert.Equal(t, "2025-02-28", record.RecordDate)
		assert.Equal(t, adminID, record.PerformedBy)

		rec = api.do(http.MethodGet, "/equipment/"+equipmentID+"/maintenance", memberToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodeBody[listMaintenanceResponse](t, rec).Records, 1)
	})

	t.Run("comments", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/comments", memberToken, map[string]any{"equipment_id": equipmentID, "content": "Makes a rattling noise"})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		comment := decodeBody[commentResponse](t, rec).Comment

		rec = api.do(http.MethodGet, "/equipment/"+equipmentID+"/comments", adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodeBody[listCommentsResponse](t, rec).Comments, 1)

		rec = api.do(http.MethodDelete, "/comments/"+comment.ID, adminToken, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("settings are administrator controlled", func(t *testing.T) {
		rec := api.do(http.MethodPut, "/settings/timezone", memberToken, map[string]any{"value": "UTC"})
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = api.do(http.MethodPut, "/settings/timezone", adminToken, map[string]any{"value": "Not/AZone"})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		rec = api.do(http.MethodPut, "/settings/timezone", adminToken, map[string]any{"value": "UTC"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		setting := decodeBody[settingResponse](t, rec).Setting
		require.NotNil(t, setting.UpdatedBy)
		assert.Equal(t, adminID, *setting.UpdatedBy)

		rec = api.do(http.MethodGet, "/settings/timezone", memberToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "UTC", decodeBody[settingResponse](t, rec).Setting.Value)
	})
}
