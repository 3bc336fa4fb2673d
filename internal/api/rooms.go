package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ifcecaucaia/einventario/internal/model"
	"github.com/ifcecaucaia/einventario/internal/store"
)

// RoomsHandler handles the room catalog endpoints.
type RoomsHandler struct {
	DB *sql.DB
}

type createRoomRequest struct {
	Name     string `json:"name"`
	Building string `json:"building,omitempty"`
}

// List handles GET /api/rooms.
func (h *RoomsHandler) List(w http.ResponseWriter, r *http.Request) {
	rooms, err := store.ListRooms(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list rooms", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list rooms")
		return
	}
	if rooms == nil {
		rooms = []model.Room{}
	}
	jsonResponse(w, http.StatusOK, rooms)
}

// Create handles POST /api/rooms. Idempotent on (name, building).
func (h *RoomsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Building = strings.TrimSpace(req.Building)
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "room name required")
		return
	}

	room, err := store.UpsertRoom(r.Context(), h.DB, req.Name, req.Building)
	if err != nil {
		slog.Error("failed to create room", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create room")
		return
	}
	jsonResponse(w, http.StatusCreated, room)
}
