package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ifcecaucaia/einventario/internal/importer"
	"github.com/ifcecaucaia/einventario/internal/model"
	"github.com/ifcecaucaia/einventario/internal/store"
)

// AssetsHandler handles registry asset endpoints.
type AssetsHandler struct {
	DB *sql.DB
}

// List handles GET /api/assets?status=&building=&q=&limit=.
func (h *AssetsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.AssetFilter{
		Status:   q.Get("status"),
		Building: q.Get("building"),
		Query:    q.Get("q"),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			jsonError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = limit
	}

	assets, err := store.ListAssets(r.Context(), h.DB, filter)
	if err != nil {
		slog.Error("failed to list assets", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list assets")
		return
	}
	if assets == nil {
		assets = []model.Asset{}
	}
	jsonResponse(w, http.StatusOK, assets)
}

// Get handles GET /api/assets/{tag}.
func (h *AssetsHandler) Get(w http.ResponseWriter, r *http.Request) {
	asset, err := store.GetAssetByTag(r.Context(), h.DB, r.PathValue("tag"))
	if err != nil {
		slog.Error("failed to get asset", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get asset")
		return
	}
	if asset == nil {
		jsonError(w, http.StatusNotFound, "asset not found")
		return
	}
	jsonResponse(w, http.StatusOK, asset)
}

// Import handles POST /api/assets/import with a multipart "file" field (or a
// raw CSV body). Partial success: the response reports per-row errors.
func (h *AssetsHandler) Import(w http.ResponseWriter, r *http.Request) {
	body := r.Body
	if file, _, err := r.FormFile("file"); err == nil {
		defer file.Close()
		body = file
	}

	result, err := importer.Import(r.Context(), h.DB, body)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Refresh the room catalog from whatever locations just arrived.
	if _, err := store.SeedRoomsFromAssets(r.Context(), h.DB); err != nil {
		slog.Error("failed to seed rooms after import", "error", err)
	}

	claims := GetClaims(r.Context())
	slog.Info("registry imported", "user", claims.Username,
		"created", result.Created, "updated", result.Updated, "errors", len(result.Errors))
	jsonResponse(w, http.StatusOK, result)
}
