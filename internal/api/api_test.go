package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/ifcecaucaia/einventario/internal/auth"
	"github.com/ifcecaucaia/einventario/internal/db"
	"github.com/ifcecaucaia/einventario/internal/model"
	"github.com/ifcecaucaia/einventario/internal/store"
)

const testJWTSecret = "test-secret"

func setupTestServer(t *testing.T) (*httptest.Server, *sql.DB, string) {
	t.Helper()
	database := db.NewTestDB(t)
	router := NewRouter(database, testJWTSecret)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	// Create admin user.
	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	store.CreateUser(ctx, database, "admin", string(hash), model.RoleAdmin)

	// Get token.
	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "password"})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var loginResp map[string]string
	json.NewDecoder(resp.Body).Decode(&loginResp)
	token := loginResp["token"]
	if token == "" {
		t.Fatal("empty token from login")
	}

	return server, database, token
}

// seedCampaign creates and activates a campaign and registers one asset.
func seedCampaign(t *testing.T, database *sql.DB) *model.Asset {
	t.Helper()
	ctx := context.Background()

	campaign, err := store.CreateCampaign(ctx, database, &model.Campaign{Year: 2025})
	if err != nil {
		t.Fatalf("create campaign: %v", err)
	}
	if err := store.ActivateCampaign(ctx, database, campaign.ID); err != nil {
		t.Fatalf("activate campaign: %v", err)
	}

	asset := &model.Asset{
		Tag:         "2025001234",
		Description: "CADEIRA GIRATORIA",
		Location:    "SALA 10 (BLOCO A)",
		Status:      "ativo",
	}
	if _, err := store.UpsertAsset(ctx, database, asset); err != nil {
		t.Fatalf("upsert asset: %v", err)
	}
	stored, err := store.GetAssetByTag(ctx, database, asset.Tag)
	if err != nil || stored == nil {
		t.Fatalf("get asset: %v", err)
	}
	return stored
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func TestLoginEndpoint(t *testing.T) {
	server, _, _ := setupTestServer(t)

	// Test invalid credentials.
	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	resp, _ := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLogoutRevokesToken(t *testing.T) {
	server, _, token := setupTestServer(t)

	req, _ := authRequest("POST", server.URL+"/api/auth/logout", token, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for logout, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// The same token must no longer work.
	req, _ = authRequest("GET", server.URL+"/api/assets", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestInspectionAPIFlow(t *testing.T) {
	server, database, token := setupTestServer(t)
	asset := seedCampaign(t, database)

	// Record an inspection with a location divergence.
	req, _ := authRequest("PUT", server.URL+"/api/inspections/"+asset.Tag, token, map[string]any{
		"status":            model.InspectionFound,
		"matches_location":  false,
		"room_obs_name":     "SALA 12",
		"room_obs_building": "BLOCO A",
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for inspection upsert, got %d", resp.StatusCode)
	}
	var insp model.Inspection
	json.NewDecoder(resp.Body).Decode(&insp)
	resp.Body.Close()
	if !insp.Divergent {
		t.Error("expected inspection to be divergent")
	}

	// The diff endpoint reports the divergence detail.
	req, _ = authRequest("GET", server.URL+"/api/inspections/"+asset.Tag+"/diff", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for diff, got %d", resp.StatusCode)
	}
	var diff struct {
		Classification string `json:"classification"`
		Severity       string `json:"severity"`
	}
	json.NewDecoder(resp.Body).Decode(&diff)
	resp.Body.Close()
	if diff.Classification != "DIVERGENT" {
		t.Errorf("expected DIVERGENT, got %q", diff.Classification)
	}
	if diff.Severity != "P2" {
		t.Errorf("expected P2 for location divergence, got %q", diff.Severity)
	}

	// A second submission overwrites the first.
	req, _ = authRequest("PUT", server.URL+"/api/inspections/"+asset.Tag, token, map[string]any{
		"status": model.InspectionFound,
	})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for second upsert, got %d", resp.StatusCode)
	}
	json.NewDecoder(resp.Body).Decode(&insp)
	resp.Body.Close()
	if insp.Divergent {
		t.Error("expected overwrite to clear divergence")
	}

	// Exactly one inspection exists.
	req, _ = authRequest("GET", server.URL+"/api/inspections", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	var list []model.Inspection
	json.NewDecoder(resp.Body).Decode(&list)
	resp.Body.Close()
	if len(list) != 1 {
		t.Errorf("expected 1 inspection, got %d", len(list))
	}
}

func TestInspectionRejectsIneligibleAsset(t *testing.T) {
	server, database, token := setupTestServer(t)
	seedCampaign(t, database)

	decommissioned := &model.Asset{
		Tag:         "2025009999",
		Description: "MONITOR ANTIGO",
		Status:      "Baixado",
	}
	if _, err := store.UpsertAsset(context.Background(), database, decommissioned); err != nil {
		t.Fatalf("upsert asset: %v", err)
	}

	req, _ := authRequest("PUT", server.URL+"/api/inspections/"+decommissioned.Tag, token, map[string]any{
		"status": model.InspectionFound,
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for ineligible asset, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestInspectionWithoutActiveCampaign(t *testing.T) {
	server, _, token := setupTestServer(t)

	req, _ := authRequest("PUT", server.URL+"/api/inspections/123", token, map[string]any{
		"status": model.InspectionFound,
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 without active campaign, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestCampaignAPIFlow(t *testing.T) {
	server, _, token := setupTestServer(t)

	// No active campaign yet.
	req, _ := authRequest("GET", server.URL+"/api/campaigns/active", token, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 before activation, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Create and activate.
	req, _ = authRequest("POST", server.URL+"/api/campaigns", token, map[string]any{"year": 2025})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var campaign model.Campaign
	json.NewDecoder(resp.Body).Decode(&campaign)
	resp.Body.Close()

	req, _ = authRequest("POST", server.URL+"/api/campaigns/"+strconv.FormatInt(campaign.ID, 10)+"/activate", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for activate, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	req, _ = authRequest("GET", server.URL+"/api/campaigns/active", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for active campaign, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Duplicate year rejected.
	req, _ = authRequest("POST", server.URL+"/api/campaigns", token, map[string]any{"year": 2025})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for duplicate year, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestExtrasAPIFlow(t *testing.T) {
	server, database, token := setupTestServer(t)
	seedCampaign(t, database)

	req, _ := authRequest("POST", server.URL+"/api/extras", token, map[string]any{
		"description":   "VENTILADOR SEM PLAQUETA",
		"room_obs_name": "SALA 12",
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Missing room rejected.
	req, _ = authRequest("POST", server.URL+"/api/extras", token, map[string]any{
		"description": "SEM SALA",
	})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for missing room, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	req, _ = authRequest("GET", server.URL+"/api/extras", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	var extras []model.Extra
	json.NewDecoder(resp.Body).Decode(&extras)
	resp.Body.Close()
	if len(extras) != 1 {
		t.Errorf("expected 1 extra, got %d", len(extras))
	}
}

func TestFinalReportEndpoint(t *testing.T) {
	server, database, token := setupTestServer(t)
	asset := seedCampaign(t, database)

	req, _ := authRequest("PUT", server.URL+"/api/inspections/"+asset.Tag, token, map[string]any{
		"status": model.InspectionFound,
	})
	resp, _ := http.DefaultClient.Do(req)
	resp.Body.Close()

	req, _ = authRequest("GET", server.URL+"/api/reports/final", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for final report, got %d", resp.StatusCode)
	}
	var rep struct {
		TotalItems int     `json:"total_items"`
		Inspected  int     `json:"inspected"`
		Coverage   float64 `json:"coverage"`
		OK         int     `json:"ok"`
	}
	json.NewDecoder(resp.Body).Decode(&rep)
	resp.Body.Close()
	if rep.TotalItems != 1 || rep.Inspected != 1 || rep.OK != 1 {
		t.Errorf("unexpected report counts: %+v", rep)
	}
	if rep.Coverage != 100.0 {
		t.Errorf("expected 100%% coverage, got %v", rep.Coverage)
	}

	// CSV export.
	req, _ = authRequest("GET", server.URL+"/api/reports/final?export=csv", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for csv export, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("expected text/csv content type, got %q", ct)
	}
	resp.Body.Close()
}

func TestUnauthenticatedAccess(t *testing.T) {
	database := db.NewTestDB(t)
	router := NewRouter(database, testJWTSecret)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	resp, _ := http.Get(server.URL + "/api/assets")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unauthenticated request, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRoleBasedAccess(t *testing.T) {
	database := db.NewTestDB(t)
	router := NewRouter(database, testJWTSecret)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	// Create an inspector.
	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("pass"), bcrypt.DefaultCost)
	store.CreateUser(ctx, database, "inspector1", string(hash), model.RoleInspector)

	inspectorToken, _ := auth.GenerateToken(testJWTSecret, 1, "inspector1", model.RoleInspector)

	// Inspectors cannot create campaigns (manager+ required).
	req, _ := authRequest("POST", server.URL+"/api/campaigns", inspectorToken, map[string]any{
		"year": 2025,
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for inspector creating campaign, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Inspectors cannot access /api/users.
	req, _ = authRequest("GET", server.URL+"/api/users", inspectorToken, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for inspector accessing users, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}
