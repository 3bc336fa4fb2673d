package api

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ifcecaucaia/einventario/internal/imaging"
	"github.com/ifcecaucaia/einventario/internal/model"
	"github.com/ifcecaucaia/einventario/internal/recon"
	"github.com/ifcecaucaia/einventario/internal/store"
)

// InspectionsHandler handles inspection endpoints. All of them bind to the
// active campaign; the asset is addressed by tag.
type InspectionsHandler struct {
	DB *sql.DB
}

type inspectionRequest struct {
	Status             string `json:"status"`
	MatchesDescription *bool  `json:"matches_description,omitempty"`
	MatchesSerial      *bool  `json:"matches_serial,omitempty"`
	MatchesLocation    *bool  `json:"matches_location,omitempty"`
	MatchesCondition   *bool  `json:"matches_condition,omitempty"`
	MatchesResponsible *bool  `json:"matches_responsible,omitempty"`
	DescriptionObs     string `json:"description_obs,omitempty"`
	SerialObs          string `json:"serial_obs,omitempty"`
	RoomObsName        string `json:"room_obs_name,omitempty"`
	RoomObsBuilding    string `json:"room_obs_building,omitempty"`
	ConditionObs       string `json:"condition_obs,omitempty"`
	ResponsibleObs     string `json:"responsible_obs,omitempty"`
	TagPresent         *bool  `json:"tag_present,omitempty"`
	TagCondition       string `json:"tag_condition,omitempty"`
	Damage             string `json:"damage,omitempty"`
	Notes              string `json:"notes,omitempty"`
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// lookupAsset resolves {tag} or writes the error response.
func (h *InspectionsHandler) lookupAsset(w http.ResponseWriter, r *http.Request) *model.Asset {
	asset, err := store.GetAssetByTag(r.Context(), h.DB, r.PathValue("tag"))
	if err != nil {
		slog.Error("failed to get asset", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return nil
	}
	if asset == nil {
		jsonError(w, http.StatusNotFound, "asset not found")
		return nil
	}
	return asset
}

// Upsert handles PUT /api/inspections/{tag}. A second submission for the same
// asset overwrites the first.
func (h *InspectionsHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	campaign := activeCampaign(w, r, h.DB)
	if campaign == nil {
		return
	}
	asset := h.lookupAsset(w, r)
	if asset == nil {
		return
	}

	var req inspectionRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status == "" {
		req.Status = model.InspectionFound
	}

	insp := &model.Inspection{
		Status:             req.Status,
		MatchesDescription: boolOr(req.MatchesDescription, true),
		MatchesSerial:      boolOr(req.MatchesSerial, true),
		MatchesLocation:    boolOr(req.MatchesLocation, true),
		MatchesCondition:   boolOr(req.MatchesCondition, true),
		MatchesResponsible: boolOr(req.MatchesResponsible, true),
		DescriptionObs:     req.DescriptionObs,
		SerialObs:          req.SerialObs,
		RoomObsName:        req.RoomObsName,
		RoomObsBuilding:    req.RoomObsBuilding,
		ConditionObs:       req.ConditionObs,
		ResponsibleObs:     req.ResponsibleObs,
		TagPresent:         boolOr(req.TagPresent, true),
		TagCondition:       req.TagCondition,
		Damage:             req.Damage,
		Notes:              req.Notes,
	}

	claims := GetClaims(r.Context())
	saved, err := store.UpsertInspection(r.Context(), h.DB, campaign, asset, insp, claims.UserID)
	if errors.Is(err, store.ErrNotEligible) {
		jsonError(w, http.StatusUnprocessableEntity, "asset is not eligible for this campaign")
		return
	}
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	slog.Info("inspection recorded", "user", claims.Username, "tag", asset.Tag,
		"status", saved.Status, "divergent", saved.Divergent)
	jsonResponse(w, http.StatusOK, saved)
}

// Get handles GET /api/inspections/{tag}.
func (h *InspectionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	campaign := activeCampaign(w, r, h.DB)
	if campaign == nil {
		return
	}
	asset := h.lookupAsset(w, r)
	if asset == nil {
		return
	}

	insp, err := store.GetInspection(r.Context(), h.DB, campaign.ID, asset.ID)
	if err != nil {
		slog.Error("failed to get inspection", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if insp == nil {
		jsonError(w, http.StatusNotFound, "asset not inspected yet")
		return
	}
	jsonResponse(w, http.StatusOK, insp)
}

// Delete handles DELETE /api/inspections/{tag}.
func (h *InspectionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	campaign := activeCampaign(w, r, h.DB)
	if campaign == nil {
		return
	}
	asset := h.lookupAsset(w, r)
	if asset == nil {
		return
	}

	if err := store.DeleteInspection(r.Context(), h.DB, campaign.ID, asset.ID); err != nil {
		slog.Error("failed to delete inspection", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "inspection removed"})
}

type diffResponse struct {
	Tag            string       `json:"tag"`
	Classification string       `json:"classification"`
	Severity       string       `json:"severity,omitempty"`
	Result         recon.Result `json:"result"`
}

// Diff handles GET /api/inspections/{tag}/diff: the reconciliation detail,
// computed on demand so current rules apply to old inspections.
func (h *InspectionsHandler) Diff(w http.ResponseWriter, r *http.Request) {
	campaign := activeCampaign(w, r, h.DB)
	if campaign == nil {
		return
	}
	asset := h.lookupAsset(w, r)
	if asset == nil {
		return
	}

	insp, err := store.GetInspection(r.Context(), h.DB, campaign.ID, asset.ID)
	if err != nil {
		slog.Error("failed to get inspection", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	res := recon.Reconcile(asset, insp)
	resp := diffResponse{Tag: asset.Tag, Result: res}
	if insp != nil {
		resp.Classification = recon.Classify(res)
		if resp.Classification != recon.ClassOK {
			resp.Severity = recon.Severity(res)
		}
	}
	jsonResponse(w, http.StatusOK, resp)
}

// UploadPhoto handles PUT /api/inspections/{tag}/photo. The upload is
// watermarked with the asset caption before storage; the raw file is
// discarded.
func (h *InspectionsHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	campaign := activeCampaign(w, r, h.DB)
	if campaign == nil {
		return
	}
	asset := h.lookupAsset(w, r)
	if asset == nil {
		return
	}
	insp, err := store.GetInspection(r.Context(), h.DB, campaign.ID, asset.ID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if insp == nil {
		jsonError(w, http.StatusConflict, "inspect the asset before uploading a photo")
		return
	}

	body := r.Body
	if file, _, err := r.FormFile("photo"); err == nil {
		defer file.Close()
		body = file
	}

	caption := fmt.Sprintf("Tombamento %s", asset.Tag)
	if asset.Location != "" {
		caption += " - " + asset.Location
	}
	processed, err := imaging.Watermark(body, caption)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetInspectionPhoto(r.Context(), h.DB, insp.ID, processed.Data, processed.MIME); err != nil {
		slog.Error("failed to store photo", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to store photo")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "photo stored"})
}

// GetPhoto handles GET /api/inspections/{tag}/photo.
func (h *InspectionsHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	campaign := activeCampaign(w, r, h.DB)
	if campaign == nil {
		return
	}
	asset := h.lookupAsset(w, r)
	if asset == nil {
		return
	}
	insp, err := store.GetInspection(r.Context(), h.DB, campaign.ID, asset.ID)
	if err != nil || insp == nil {
		jsonError(w, http.StatusNotFound, "no inspection for this asset")
		return
	}

	photo, mime, err := store.GetInspectionPhoto(r.Context(), h.DB, insp.ID)
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

// List handles GET /api/inspections: all inspections of the active campaign
// with asset context.
func (h *InspectionsHandler) List(w http.ResponseWriter, r *http.Request) {
	campaign := activeCampaign(w, r, h.DB)
	if campaign == nil {
		return
	}

	inspections, err := store.ListInspections(r.Context(), h.DB, campaign.ID)
	if err != nil {
		slog.Error("failed to list inspections", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list inspections")
		return
	}
	if inspections == nil {
		inspections = []model.Inspection{}
	}
	jsonResponse(w, http.StatusOK, inspections)
}
