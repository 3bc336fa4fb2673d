package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/ifcecaucaia/einventario/internal/imaging"
	"github.com/ifcecaucaia/einventario/internal/model"
	"github.com/ifcecaucaia/einventario/internal/store"
)

// ExtrasHandler handles findings with no registry counterpart.
type ExtrasHandler struct {
	DB *sql.DB
}

type createExtraRequest struct {
	Description     string `json:"description"`
	RoomObsName     string `json:"room_obs_name"`
	RoomObsBuilding string `json:"room_obs_building,omitempty"`
	SerialObs       string `json:"serial_obs,omitempty"`
	ConditionObs    string `json:"condition_obs,omitempty"`
	ResponsibleObs  string `json:"responsible_obs,omitempty"`
	TagPresent      *bool  `json:"tag_present,omitempty"`
	TagCondition    string `json:"tag_condition,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

// Create handles POST /api/extras.
func (h *ExtrasHandler) Create(w http.ResponseWriter, r *http.Request) {
	campaign := activeCampaign(w, r, h.DB)
	if campaign == nil {
		return
	}

	var req createExtraRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		jsonError(w, http.StatusBadRequest, "description required")
		return
	}
	if strings.TrimSpace(req.RoomObsName) == "" {
		jsonError(w, http.StatusBadRequest, "observed room required")
		return
	}

	extra := &model.Extra{
		CampaignID:      campaign.ID,
		Description:     strings.TrimSpace(req.Description),
		RoomObsName:     strings.TrimSpace(req.RoomObsName),
		RoomObsBuilding: strings.TrimSpace(req.RoomObsBuilding),
		SerialObs:       req.SerialObs,
		ConditionObs:    req.ConditionObs,
		ResponsibleObs:  req.ResponsibleObs,
		TagPresent:      boolOr(req.TagPresent, false),
		TagCondition:    req.TagCondition,
		Notes:           req.Notes,
	}

	claims := GetClaims(r.Context())
	created, err := store.CreateExtra(r.Context(), h.DB, extra, claims.UserID)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	slog.Info("extra recorded", "user", claims.Username, "id", created.ID, "room", created.RoomObsName)
	jsonResponse(w, http.StatusCreated, created)
}

// List handles GET /api/extras for the active campaign.
func (h *ExtrasHandler) List(w http.ResponseWriter, r *http.Request) {
	campaign := activeCampaign(w, r, h.DB)
	if campaign == nil {
		return
	}

	extras, err := store.ListExtras(r.Context(), h.DB, campaign.ID)
	if err != nil {
		slog.Error("failed to list extras", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list extras")
		return
	}
	if extras == nil {
		extras = []model.Extra{}
	}
	jsonResponse(w, http.StatusOK, extras)
}

// lookupExtra resolves {id} within the active campaign or writes the error.
func (h *ExtrasHandler) lookupExtra(w http.ResponseWriter, r *http.Request, campaignID int64) *model.Extra {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid id")
		return nil
	}
	extra, err := store.GetExtra(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return nil
	}
	if extra == nil || extra.CampaignID != campaignID {
		jsonError(w, http.StatusNotFound, "extra not found")
		return nil
	}
	return extra
}

// UploadPhoto handles PUT /api/extras/{id}/photo. Same watermark pipeline as
// inspection photos, captioned with the observed room.
func (h *ExtrasHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	campaign := activeCampaign(w, r, h.DB)
	if campaign == nil {
		return
	}
	extra := h.lookupExtra(w, r, campaign.ID)
	if extra == nil {
		return
	}

	body := r.Body
	if file, _, err := r.FormFile("photo"); err == nil {
		defer file.Close()
		body = file
	}

	caption := "Sem registro - " + extra.RoomObsName
	if extra.RoomObsBuilding != "" {
		caption += " (" + extra.RoomObsBuilding + ")"
	}
	processed, err := imaging.Watermark(body, caption)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetExtraPhoto(r.Context(), h.DB, extra.ID, processed.Data, processed.MIME); err != nil {
		slog.Error("failed to store photo", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to store photo")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "photo stored"})
}

// GetPhoto handles GET /api/extras/{id}/photo.
func (h *ExtrasHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	campaign := activeCampaign(w, r, h.DB)
	if campaign == nil {
		return
	}
	extra := h.lookupExtra(w, r, campaign.ID)
	if extra == nil {
		return
	}

	photo, mime, err := store.GetExtraPhoto(r.Context(), h.DB, extra.ID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if len(photo) == 0 {
		jsonError(w, http.StatusNotFound, "no photo uploaded")
		return
	}
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(photo)))
	w.Write(photo)
}
