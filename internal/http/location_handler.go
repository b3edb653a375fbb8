package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/equipment-reservation/internal/application"
	"github.com/example/equipment-reservation/internal/domain"
)

type locationService interface {
	CreateBuilding(ctx context.Context, params application.CreateBuildingParams) (domain.Building, error)
	UpdateBuilding(ctx context.Context, params application.UpdateBuildingParams) (domain.Building, error)
	DeleteBuilding(ctx context.Context, principal application.Principal, buildingID string) error
	GetBuilding(ctx context.Context, principal application.Principal, buildingID string) (domain.Building, error)
	ListBuildings(ctx context.Context, principal application.Principal) ([]domain.Building, error)
	CreateFloor(ctx context.Context, params application.CreateFloorParams) (domain.Floor, error)
	UpdateFloor(ctx context.Context, params application.UpdateFloorParams) (domain.Floor, error)
	DeleteFloor(ctx context.Context, principal application.Principal, floorID string) error
	ListFloors(ctx context.Context, principal application.Principal, buildingID string) ([]domain.Floor, error)
	CreateRoom(ctx context.Context, params application.CreateRoomParams) (domain.Room, error)
	UpdateRoom(ctx context.Context, params application.UpdateRoomParams) (domain.Room, error)
	DeleteRoom(ctx context.Context, principal application.Principal, roomID string) error
	ListRooms(ctx context.Context, principal application.Principal, floorID string) ([]domain.Room, error)
}

// LocationHandler serves the building, floor and room hierarchy.
type LocationHandler struct {
	handlerBase
	service locationService
}

func NewLocationHandler(service locationService, logger *slog.Logger) *LocationHandler {
	return &LocationHandler{handlerBase: newHandlerBase("LocationHandler", logger), service: service}
}

func (h *LocationHandler) CreateBuilding(w http.ResponseWriter, r *http.Request) {
	var req buildingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(r.Context(), w, "CreateBuilding", err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "CreateBuilding")
	building, err := h.service.CreateBuilding(r.Context(), application.CreateBuildingParams{Principal: principal, Input: req.toInput()})
	if err != nil {
		h.fail(r.Context(), w, logger, "building creation failed", err)
		return
	}

	logger.InfoContext(r.Context(), "building created", "building_id", building.ID())
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, buildingResponse{Building: toBuildingDTO(building)})
}

func (h *LocationHandler) UpdateBuilding(w http.ResponseWriter, r *http.Request) {
	buildingID := r.PathValue("id")
	var req buildingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(r.Context(), w, "UpdateBuilding", err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "UpdateBuilding", "building_id", buildingID)
	building, err := h.service.UpdateBuilding(r.Context(), application.UpdateBuildingParams{
		Principal:  principal,
		BuildingID: buildingID,
		Input:      req.toInput(),
	})
	if err != nil {
		h.fail(r.Context(), w, logger, "building update failed", err)
		return
	}

	logger.InfoContext(r.Context(), "building updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, buildingResponse{Building: toBuildingDTO(building)})
}

func (h *LocationHandler) DeleteBuilding(w http.ResponseWriter, r *http.Request) {
	buildingID := r.PathValue("id")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "DeleteBuilding", "building_id", buildingID)
	if err := h.service.DeleteBuilding(r.Context(), principal, buildingID); err != nil {
		h.fail(r.Context(), w, logger, "building delete failed", err)
		return
	}
	logger.InfoContext(r.Context(), "building deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *LocationHandler) GetBuilding(w http.ResponseWriter, r *http.Request) {
	buildingID := r.PathValue("id")
	principal, _ := PrincipalFromContext(r.Context())
	building, err := h.service.GetBuilding(r.Context(), principal, buildingID)
	if err != nil {
		h.fail(r.Context(), w, h.log(r.Context(), "GetBuilding", "building_id", buildingID), "building lookup failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, buildingResponse{Building: toBuildingDTO(building)})
}

func (h *LocationHandler) ListBuildings(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	buildings, err := h.service.ListBuildings(r.Context(), principal)
	if err != nil {
		h.fail(r.Context(), w, h.log(r.Context(), "ListBuildings"), "building list failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBuildingsResponse{Buildings: mapSlice(buildings, toBuildingDTO)})
}

func (h *LocationHandler) CreateFloor(w http.ResponseWriter, r *http.Request) {
	var req floorRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(r.Context(), w, "CreateFloor", err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "CreateFloor", "building_id", req.BuildingID)
	floor, err := h.service.CreateFloor(r.Context(), application.CreateFloorParams{Principal: principal, Input: req.toInput()})
	if err != nil {
		h.fail(r.Context(), w, logger, "floor creation failed", err)
		return
	}

	logger.InfoContext(r.Context(), "floor created", "floor_id", floor.ID())
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, floorResponse{Floor: toFloorDTO(floor)})
}

func (h *LocationHandler) UpdateFloor(w http.ResponseWriter, r *http.Request) {
	floorID := r.PathValue("id")
	var req floorRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(r.Context(), w, "UpdateFloor", err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "UpdateFloor", "floor_id", floorID)
	floor, err := h.service.UpdateFloor(r.Context(), application.UpdateFloorParams{Principal: principal, FloorID: floorID, Input: req.toInput()})
	if err != nil {
		h.fail(r.Context(), w, logger, "floor update failed", err)
		return
	}

	logger.InfoContext(r.Context(), "floor updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, floorResponse{Floor: toFloorDTO(floor)})
}

func (h *LocationHandler) DeleteFloor(w http.ResponseWriter, r *http.Request) {
	floorID := r.PathValue("id")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "DeleteFloor", "floor_id", floorID)
	if err := h.service.DeleteFloor(r.Context(), principal, floorID); err != nil {
		h.fail(r.Context(), w, logger, "floor delete failed", err)
		return
	}
	logger.InfoContext(r.Context(), "floor deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// ListFloors handles GET /buildings/{id}/floors.
func (h *LocationHandler) ListFloors(w http.ResponseWriter, r *http.Request) {
	buildingID := r.PathValue("id")
	principal, _ := PrincipalFromContext(r.Context())
	floors, err := h.service.ListFloors(r.Context(), principal, buildingID)
	if err != nil {
		h.fail(r.Context(), w, h.log(r.Context(), "ListFloors", "building_id", buildingID), "floor list failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listFloorsResponse{Floors: mapSlice(floors, toFloorDTO)})
}

func (h *LocationHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req roomRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(r.Context(), w, "CreateRoom", err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "CreateRoom", "floor_id", req.FloorID)
	room, err := h.service.CreateRoom(r.Context(), application.CreateRoomParams{Principal: principal, Input: req.toInput()})
	if err != nil {
		h.fail(r.Context(), w, logger, "room creation failed", err)
		return
	}

	logger.InfoContext(r.Context(), "room created", "room_id", room.ID())
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, roomResponse{Room: toRoomDTO(room)})
}

func (h *LocationHandler) UpdateRoom(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")
	var req roomRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(r.Context(), w, "UpdateRoom", err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "UpdateRoom", "room_id", roomID)
	room, err := h.service.UpdateRoom(r.Context(), application.UpdateRoomParams{Principal: principal, RoomID: roomID, Input: req.toInput()})
	if err != nil {
		h.fail(r.Context(), w, logger, "room update failed", err)
		return
	}

	logger.InfoContext(r.Context(), "room updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, roomResponse{Room: toRoomDTO(room)})
}

func (h *LocationHandler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "DeleteRoom", "room_id", roomID)
	if err := h.service.DeleteRoom(r.Context(), principal, roomID); err != nil {
		h.fail(r.Context(), w, logger, "room delete failed", err)
		return
	}
	logger.InfoContext(r.Context(), "room deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// ListRooms handles GET /floors/{id}/rooms.
func (h *LocationHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	floorID := r.PathValue("id")
	principal, _ := PrincipalFromContext(r.Context())
	rooms, err := h.service.ListRooms(r.Context(), principal, floorID)
	if err != nil {
		h.fail(r.Context(), w, h.log(r.Context(), "ListRooms", "floor_id", floorID), "room list failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listRoomsResponse{Rooms: mapSlice(rooms, toRoomDTO)})
}

type buildingRequest struct {
	Name    string  `json:"name"`
	Address *string `json:"address"`
}

func (r buildingRequest) toInput() domain.BuildingInput {
	return domain.BuildingInput{Name: strings.TrimSpace(r.Name), Address: trimmedPtr(r.Address)}
}

type floorRequest struct {
	Name        string `json:"name"`
	BuildingID  string `json:"building_id"`
	FloorNumber *int   `json:"floor_number"`
}

func (r floorRequest) toInput() domain.FloorInput {
	return domain.FloorInput{
		Name:        strings.TrimSpace(r.Name),
		BuildingID:  strings.TrimSpace(r.BuildingID),
		FloorNumber: r.FloorNumber,
	}
}

type roomRequest struct {
	Name     string `json:"name"`
	FloorID  string `json:"floor_id"`
	Capacity *int   `json:"capacity"`
}

func (r roomRequest) toInput() domain.RoomInput {
	return domain.RoomInput{
		Name:     strings.TrimSpace(r.Name),
		FloorID:  strings.TrimSpace(r.FloorID),
		Capacity: r.Capacity,
	}
}

type buildingDTO struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Address *string `json:"address,omitempty"`
}

type buildingResponse struct {
	Building buildingDTO `json:"building"`
}

type listBuildingsResponse struct {
	Buildings []buildingDTO `json:"buildings"`
}

func toBuildingDTO(b domain.Building) buildingDTO {
	return buildingDTO{ID: b.ID(), Name: b.Name(), Address: optional(b.Address())}
}

type floorDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	BuildingID  string `json:"building_id"`
	FloorNumber *int   `json:"floor_number,omitempty"`
}

type floorResponse struct {
	Floor floorDTO `json:"floor"`
}

type listFloorsResponse struct {
	Floors []floorDTO `json:"floors"`
}

func toFloorDTO(f domain.Floor) floorDTO {
	return floorDTO{ID: f.ID(), Name: f.Name(), BuildingID: f.BuildingID(), FloorNumber: optional(f.FloorNumber())}
}

type roomDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	FloorID  string `json:"floor_id"`
	Capacity *int   `json:"capacity,omitempty"`
}

type roomResponse struct {
	Room roomDTO `json:"room"`
}

type listRoomsResponse struct {
	Rooms []roomDTO `json:"rooms"`
}

func toRoomDTO(r domain.Room) roomDTO {
	return roomDTO{ID: r.ID(), Name: r.Name(), FloorID: r.FloorID(), Capacity: optional(r.Capacity())}
}

// mapSlice converts every element, returning an empty (non-nil) slice for
// empty input so lists encode as [].
func mapSlice[T, U any](in []T, convert func(T) U) []U {
	out := make([]U, 0, len(in))
	for _, v := range in {
		out = append(out, convert(v))
	}
	return out
}
