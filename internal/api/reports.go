package api

import (
	"archive/zip"
	"database/sql"
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ifcecaucaia/einventario/internal/model"
	"github.com/ifcecaucaia/einventario/internal/report"
	"github.com/ifcecaucaia/einventario/internal/store"
)

// ReportsHandler serves the campaign reports. Every report is computed on
// demand from the current registry and inspection state; nothing is cached.
type ReportsHandler struct {
	DB *sql.DB
}

// loadCampaignData gathers the inputs every report needs. Returns ok=false
// after writing the error response.
func (h *ReportsHandler) loadCampaignData(w http.ResponseWriter, r *http.Request) (*model.Campaign, []model.Asset, map[int64]*model.Inspection, bool) {
	campaign := activeCampaign(w, r, h.DB)
	if campaign == nil {
		return nil, nil, nil, false
	}
	assets, err := store.EligibleAssets(r.Context(), h.DB, campaign)
	if err != nil {
		slog.Error("failed to load eligible assets", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return nil, nil, nil, false
	}
	inspections, err := store.InspectionMap(r.Context(), h.DB, campaign.ID)
	if err != nil {
		slog.Error("failed to load inspections", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return nil, nil, nil, false
	}
	return campaign, assets, inspections, true
}

func (h *ReportsHandler) loadExtras(w http.ResponseWriter, r *http.Request, campaignID int64) ([]model.Extra, bool) {
	extras, err := store.ListExtras(r.Context(), h.DB, campaignID)
	if err != nil {
		slog.Error("failed to load extras", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return nil, false
	}
	return extras, true
}

// csvResponse writes rows as a CSV attachment.
func csvResponse(w http.ResponseWriter, name string, rows [][]string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	cw := csv.NewWriter(w)
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			slog.Error("failed to write csv", "error", err)
			return
		}
	}
	cw.Flush()
}

func wantsCSV(r *http.Request) bool {
	return r.URL.Query().Get("export") == "csv"
}

// Final handles GET /api/reports/final. ?export=csv returns the accounts
// table instead of the JSON payload.
func (h *ReportsHandler) Final(w http.ResponseWriter, r *http.Request) {
	campaign, assets, inspections, ok := h.loadCampaignData(w, r)
	if !ok {
		return
	}
	extras, ok := h.loadExtras(w, r, campaign.ID)
	if !ok {
		return
	}

	rep := report.AssembleFinal(*campaign, assets, inspections, len(extras))
	if wantsCSV(r) {
		name := fmt.Sprintf("inventario-%d-contas.csv", campaign.Year)
		csvResponse(w, name, report.AccountsCSV(rep.Accounts, rep.Totals))
		return
	}
	jsonResponse(w, http.StatusOK, rep)
}

type accountsReport struct {
	Accounts []report.AccountRow `json:"accounts"`
	Totals   report.AccountRow   `json:"totals"`
}

// Accounts handles GET /api/reports/accounts: just the per-account table and
// its totals row, without the rest of the executive payload.
func (h *ReportsHandler) Accounts(w http.ResponseWriter, r *http.Request) {
	campaign, assets, inspections, ok := h.loadCampaignData(w, r)
	if !ok {
		return
	}

	rep := report.AssembleFinal(*campaign, assets, inspections, 0)
	if wantsCSV(r) {
		name := fmt.Sprintf("inventario-%d-contas.csv", campaign.Year)
		csvResponse(w, name, report.AccountsCSV(rep.Accounts, rep.Totals))
		return
	}
	jsonResponse(w, http.StatusOK, accountsReport{Accounts: rep.Accounts, Totals: rep.Totals})
}

// NCMap handles GET /api/reports/ncmap: the flat non-conformance map.
func (h *ReportsHandler) NCMap(w http.ResponseWriter, r *http.Request) {
	campaign, assets, inspections, ok := h.loadCampaignData(w, r)
	if !ok {
		return
	}

	rows := report.NonConformance(assets, inspections)
	if wantsCSV(r) {
		name := fmt.Sprintf("inventario-%d-nao-conformidades.csv", campaign.Year)
		csvResponse(w, name, report.NCMapCSV(rows))
		return
	}
	if rows == nil {
		rows = []report.NCRow{}
	}
	jsonResponse(w, http.StatusOK, rows)
}

// executionOptions parses ?ini=&fim=&meta=&u= into report options.
func executionOptions(r *http.Request, campaign *model.Campaign) (report.ExecutionOptions, error) {
	opts := report.ExecutionOptions{Now: time.Now()}
	if campaign.StartsOn != nil {
		opts.From = *campaign.StartsOn
	}
	if campaign.EndsOn != nil {
		opts.To = *campaign.EndsOn
	}

	q := r.URL.Query()
	if raw := q.Get("ini"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return opts, fmt.Errorf("invalid ini date")
		}
		opts.From = t
	}
	if raw := q.Get("fim"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return opts, fmt.Errorf("invalid fim date")
		}
		opts.To = t
	}
	if raw := q.Get("meta"); raw != "" {
		goal, err := strconv.Atoi(raw)
		if err != nil || goal < 0 {
			return opts, fmt.Errorf("invalid meta")
		}
		opts.DailyGoal = goal
	}
	if raw := q.Get("u"); raw != "" {
		uid, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return opts, fmt.Errorf("invalid u")
		}
		opts.UserID = uid
	}
	return opts, nil
}

// Execution handles GET /api/reports/execution?ini=&fim=&meta=&u=. ?export=csv
// returns the daily series.
func (h *ReportsHandler) Execution(w http.ResponseWriter, r *http.Request) {
	campaign, assets, inspections, ok := h.loadCampaignData(w, r)
	if !ok {
		return
	}
	opts, err := executionOptions(r, campaign)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list users", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	usernames := make(map[int64]string, len(users))
	for _, u := range users {
		usernames[u.ID] = u.Username
	}

	rep := report.AssembleExecution(assets, inspections, usernames, opts)
	if wantsCSV(r) {
		name := fmt.Sprintf("inventario-%d-execucao.csv", campaign.Year)
		csvResponse(w, name, report.SeriesCSV(rep.Daily))
		return
	}
	jsonResponse(w, http.StatusOK, rep)
}

// Buildings handles GET /api/reports/buildings: one card per building.
func (h *ReportsHandler) Buildings(w http.ResponseWriter, r *http.Request) {
	campaign, assets, inspections, ok := h.loadCampaignData(w, r)
	if !ok {
		return
	}
	extras, ok := h.loadExtras(w, r, campaign.ID)
	if !ok {
		return
	}

	cards := report.Buildings(assets, inspections, extras)
	if wantsCSV(r) {
		name := fmt.Sprintf("inventario-%d-blocos.csv", campaign.Year)
		csvResponse(w, name, report.BuildingsCSV(cards))
		return
	}
	jsonResponse(w, http.StatusOK, cards)
}

// Rooms handles GET /api/reports/buildings/{building}/rooms.
func (h *ReportsHandler) Rooms(w http.ResponseWriter, r *http.Request) {
	campaign, assets, inspections, ok := h.loadCampaignData(w, r)
	if !ok {
		return
	}
	extras, ok := h.loadExtras(w, r, campaign.ID)
	if !ok {
		return
	}

	building := r.PathValue("building")
	rooms := report.RoomsOfBuilding(building, assets, inspections, extras)
	if wantsCSV(r) {
		name := fmt.Sprintf("inventario-%d-salas.csv", campaign.Year)
		csvResponse(w, name, report.RoomsCSV(building, rooms))
		return
	}
	jsonResponse(w, http.StatusOK, rooms)
}

// Room handles GET /api/reports/buildings/{building}/rooms/{room}: the
// wall-list of one room.
func (h *ReportsHandler) Room(w http.ResponseWriter, r *http.Request) {
	campaign, assets, inspections, ok := h.loadCampaignData(w, r)
	if !ok {
		return
	}
	extras, ok := h.loadExtras(w, r, campaign.ID)
	if !ok {
		return
	}

	listing := report.ListRoom(r.PathValue("building"), r.PathValue("room"), assets, inspections, extras)
	jsonResponse(w, http.StatusOK, listing)
}

// PhotosZip handles GET /api/reports/photos.zip: every stored photo of the
// active campaign, inspections under bens/ and extras under extras/.
func (h *ReportsHandler) PhotosZip(w http.ResponseWriter, r *http.Request) {
	campaign := activeCampaign(w, r, h.DB)
	if campaign == nil {
		return
	}

	inspPhotos, err := store.ListInspectionPhotos(r.Context(), h.DB, campaign.ID)
	if err != nil {
		slog.Error("failed to list inspection photos", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	extraPhotos, err := store.ListExtraPhotos(r.Context(), h.DB, campaign.ID)
	if err != nil {
		slog.Error("failed to list extra photos", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	name := fmt.Sprintf("inventario-%d-fotos.zip", campaign.Year)
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))

	zw := zip.NewWriter(w)
	defer zw.Close()
	for _, p := range inspPhotos {
		f, err := zw.Create("bens/" + p.Name + ".jpg")
		if err != nil {
			slog.Error("failed to write zip entry", "error", err)
			return
		}
		if _, err := f.Write(p.Photo); err != nil {
			slog.Error("failed to write zip entry", "error", err)
			return
		}
	}
	for _, p := range extraPhotos {
		f, err := zw.Create("extras/" + p.Name + ".jpg")
		if err != nil {
			slog.Error("failed to write zip entry", "error", err)
			return
		}
		if _, err := f.Write(p.Photo); err != nil {
			slog.Error("failed to write zip entry", "error", err)
			return
		}
	}
}
