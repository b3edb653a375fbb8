package http

import (
	"net/http"
)

type RouterConfig struct {
	Sessions     *AuthHandler
	Users        *UserHandler
	Locations    *LocationHandler
	Equipment    *EquipmentHandler
	Reservations *ReservationHandler
	Activity     *ActivityHandler
	Settings     *SettingHandler
	// Metrics is served unauthenticated at GET /metrics when set.
	Metrics http.Handler
	// RequireAuth wraps every route except session creation, registration
	// and metrics. Nil leaves those routes open.
	RequireAuth func(http.Handler) http.Handler
	Middleware  []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	protect := func(h http.HandlerFunc) http.Handler {
		if cfg.RequireAuth == nil {
			return h
		}
		return cfg.RequireAuth(h)
	}
	route := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, protect(h))
	}

	if cfg.Sessions != nil {
		mux.HandleFunc("POST /sessions", cfg.Sessions.CreateSession)
	}

	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	if cfg.Users != nil {
		mux.HandleFunc("POST /users", cfg.Users.Register)
		route("GET /me", cfg.Users.Me)
		route("GET /users", cfg.Users.List)
		route("GET /users/{id}", cfg.Users.Get)
		route("PUT /users/{id}", cfg.Users.Update)
		route("PUT /users/{id}/role", cfg.Users.ChangeRole)
		route("DELETE /users/{id}", cfg.Users.Delete)
	}

	if cfg.Locations != nil {
		route("GET /buildings", cfg.Locations.ListBuildings)
		route("POST /buildings", cfg.Locations.CreateBuilding)
		route("GET /buildings/{id}", cfg.Locations.GetBuilding)
		route("PUT /buildings/{id}", cfg.Locations.UpdateBuilding)
		route("DELETE /buildings/{id}", cfg.Locations.DeleteBuilding)
		route("GET /buildings/{id}/floors", cfg.Locations.ListFloors)
		route("POST /floors", cfg.Locations.CreateFloor)
		route("PUT /floors/{id}", cfg.Locations.UpdateFloor)
		route("DELETE /floors/{id}", cfg.Locations.DeleteFloor)
		route("GET /floors/{id}/rooms", cfg.Locations.ListRooms)
		route("POST /rooms", cfg.Locations.CreateRoom)
		route("PUT /rooms/{id}", cfg.Locations.UpdateRoom)
		route("DELETE /rooms/{id}", cfg.Locations.DeleteRoom)
	}

	if cfg.Equipment != nil {
		route("GET /equipment", cfg.Equipment.List)
		route("POST /equipment", cfg.Equipment.Create)
		route("GET /equipment/recent", cfg.Equipment.RecentlyUsed)
		route("GET /equipment/{id}", cfg.Equipment.Get)
		route("PUT /equipment/{id}", cfg.Equipment.Update)
		route("PUT /equipment/{id}/management", cfg.Equipment.UpdateManagement)
		route("DELETE /equipment/{id}", cfg.Equipment.Delete)
		route("GET /rooms/{id}/equipment", cfg.Equipment.ListByRoom)
		route("GET /categories", cfg.Equipment.ListCategories)
		route("POST /categories", cfg.Equipment.CreateCategory)
		route("PUT /categories/{id}", cfg.Equipment.UpdateCategory)
		route("DELETE /categories/{id}", cfg.Equipment.DeleteCategory)
	}

	if cfg.Reservations != nil {
		route("GET /reservations", cfg.Reservations.ListMine)
		route("POST /reservations", cfg.Reservations.Create)
		route("GET /reservations/{id}", cfg.Reservations.Get)
		route("PUT /reservations/{id}", cfg.Reservations.Update)
		route("DELETE /reservations/{id}", cfg.Reservations.Delete)
		route("GET /equipment/{id}/reservations", cfg.Reservations.ListForEquipment)
		route("GET /equipment/{id}/calendar.ics", cfg.Reservations.Calendar)
	}

	if cfg.Activity != nil {
		route("POST /maintenance", cfg.Activity.CreateMaintenance)
		route("PUT /maintenance/{id}", cfg.Activity.UpdateMaintenance)
		route("DELETE /maintenance/{id}", cfg.Activity.DeleteMaintenance)
		route("GET /equipment/{id}/maintenance", cfg.Activity.ListMaintenance)
		route("POST /comments", cfg.Activity.CreateComment)
		route("DELETE /comments/{id}", cfg.Activity.DeleteComment)
		route("GET /equipment/{id}/comments", cfg.Activity.ListComments)
	}

	if cfg.Settings != nil {
		route("GET /settings", cfg.Settings.List)
		route("GET /settings/{key}", cfg.Settings.Get)
		route("PUT /settings/{key}", cfg.Settings.Set)
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	return handler
}
