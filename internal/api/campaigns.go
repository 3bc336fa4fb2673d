package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ifcecaucaia/einventario/internal/model"
	"github.com/ifcecaucaia/einventario/internal/store"
)

// CampaignsHandler handles inventory campaign endpoints.
type CampaignsHandler struct {
	DB *sql.DB
}

type createCampaignRequest struct {
	Year         int    `json:"year"`
	IncludeBooks bool   `json:"include_books"`
	StartsOn     string `json:"starts_on,omitempty"`
	EndsOn       string `json:"ends_on,omitempty"`
}

// List handles GET /api/campaigns.
func (h *CampaignsHandler) List(w http.ResponseWriter, r *http.Request) {
	campaigns, err := store.ListCampaigns(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list campaigns", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list campaigns")
		return
	}
	if campaigns == nil {
		campaigns = []model.Campaign{}
	}
	jsonResponse(w, http.StatusOK, campaigns)
}

// Create handles POST /api/campaigns.
func (h *CampaignsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCampaignRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Year < 2000 || req.Year > 2100 {
		jsonError(w, http.StatusBadRequest, "invalid year")
		return
	}

	campaign := &model.Campaign{Year: req.Year, IncludeBooks: req.IncludeBooks}
	if req.StartsOn != "" {
		t, err := time.Parse("2006-01-02", req.StartsOn)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid starts_on date")
			return
		}
		campaign.StartsOn = &t
	}
	if req.EndsOn != "" {
		t, err := time.Parse("2006-01-02", req.EndsOn)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid ends_on date")
			return
		}
		campaign.EndsOn = &t
	}
	if claims := GetClaims(r.Context()); claims != nil {
		campaign.CreatedBy = &claims.UserID
	}

	created, err := store.CreateCampaign(r.Context(), h.DB, campaign)
	if err != nil {
		jsonError(w, http.StatusConflict, "campaign for this year already exists")
		return
	}

	slog.Info("campaign created", "year", created.Year)
	jsonResponse(w, http.StatusCreated, created)
}

// Activate handles POST /api/campaigns/{id}/activate.
func (h *CampaignsHandler) Activate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid campaign id")
		return
	}

	if err := store.ActivateCampaign(r.Context(), h.DB, id); err != nil {
		jsonError(w, http.StatusNotFound, "campaign not found")
		return
	}

	campaign, err := store.GetCampaign(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	slog.Info("campaign activated", "year", campaign.Year)
	jsonResponse(w, http.StatusOK, campaign)
}

// GetActive handles GET /api/campaigns/active.
func (h *CampaignsHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	campaign, err := store.GetActiveCampaign(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to get active campaign", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if campaign == nil {
		jsonError(w, http.StatusNotFound, "no active campaign")
		return
	}
	jsonResponse(w, http.StatusOK, campaign)
}

// activeCampaign loads the active campaign or writes a 409 and returns nil.
// Every inspection and report endpoint binds to it.
func activeCampaign(w http.ResponseWriter, r *http.Request, db *sql.DB) *model.Campaign {
	campaign, err := store.GetActiveCampaign(r.Context(), db)
	if err != nil {
		slog.Error("failed to get active campaign", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return nil
	}
	if campaign == nil {
		jsonError(w, http.StatusConflict, "no active campaign")
		return nil
	}
	return campaign
}
