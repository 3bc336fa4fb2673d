package api

import (
	"database/sql"
	"net/http"

	"github.com/ifcecaucaia/einventario/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	assetsHandler := &AssetsHandler{DB: db}
	roomsHandler := &RoomsHandler{DB: db}
	campaignsHandler := &CampaignsHandler{DB: db}
	inspectionsHandler := &InspectionsHandler{DB: db}
	extrasHandler := &ExtrasHandler{DB: db}
	reportsHandler := &ReportsHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireManager := RequireRole(model.RoleManager)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Registry assets: read (all roles), import (manager+).
	mux.Handle("GET /api/assets", authMW(http.HandlerFunc(assetsHandler.List)))
	mux.Handle("GET /api/assets/{tag}", authMW(http.HandlerFunc(assetsHandler.Get)))
	mux.Handle("POST /api/assets/import", authMW(requireManager(http.HandlerFunc(assetsHandler.Import))))

	// Rooms: read (all roles), write (manager+).
	mux.Handle("GET /api/rooms", authMW(http.HandlerFunc(roomsHandler.List)))
	mux.Handle("POST /api/rooms", authMW(requireManager(http.HandlerFunc(roomsHandler.Create))))

	// Campaigns: read (all roles), manage (manager+).
	mux.Handle("GET /api/campaigns", authMW(http.HandlerFunc(campaignsHandler.List)))
	mux.Handle("POST /api/campaigns", authMW(requireManager(http.HandlerFunc(campaignsHandler.Create))))
	mux.Handle("GET /api/campaigns/active", authMW(http.HandlerFunc(campaignsHandler.GetActive)))
	mux.Handle("POST /api/campaigns/{id}/activate", authMW(requireManager(http.HandlerFunc(campaignsHandler.Activate))))

	// Inspections (all roles): bound to the active campaign, addressed by tag.
	mux.Handle("GET /api/inspections", authMW(http.HandlerFunc(inspectionsHandler.List)))
	mux.Handle("GET /api/inspections/{tag}", authMW(http.HandlerFunc(inspectionsHandler.Get)))
	mux.Handle("PUT /api/inspections/{tag}", authMW(http.HandlerFunc(inspectionsHandler.Upsert)))
	mux.Handle("DELETE /api/inspections/{tag}", authMW(requireManager(http.HandlerFunc(inspectionsHandler.Delete))))
	mux.Handle("GET /api/inspections/{tag}/diff", authMW(http.HandlerFunc(inspectionsHandler.Diff)))
	mux.Handle("PUT /api/inspections/{tag}/photo", authMW(http.HandlerFunc(inspectionsHandler.UploadPhoto)))
	mux.Handle("GET /api/inspections/{tag}/photo", authMW(http.HandlerFunc(inspectionsHandler.GetPhoto)))

	// Extras (all roles).
	mux.Handle("POST /api/extras", authMW(http.HandlerFunc(extrasHandler.Create)))
	mux.Handle("GET /api/extras", authMW(http.HandlerFunc(extrasHandler.List)))
	mux.Handle("PUT /api/extras/{id}/photo", authMW(http.HandlerFunc(extrasHandler.UploadPhoto)))
	mux.Handle("GET /api/extras/{id}/photo", authMW(http.HandlerFunc(extrasHandler.GetPhoto)))

	// Reports (all roles).
	mux.Handle("GET /api/reports/final", authMW(http.HandlerFunc(reportsHandler.Final)))
	mux.Handle("GET /api/reports/accounts", authMW(http.HandlerFunc(reportsHandler.Accounts)))
	mux.Handle("GET /api/reports/ncmap", authMW(http.HandlerFunc(reportsHandler.NCMap)))
	mux.Handle("GET /api/reports/execution", authMW(http.HandlerFunc(reportsHandler.Execution)))
	mux.Handle("GET /api/reports/buildings", authMW(http.HandlerFunc(reportsHandler.Buildings)))
	mux.Handle("GET /api/reports/buildings/{building}/rooms", authMW(http.HandlerFunc(reportsHandler.Rooms)))
	mux.Handle("GET /api/reports/buildings/{building}/rooms/{room}", authMW(http.HandlerFunc(reportsHandler.Room)))
	mux.Handle("GET /api/reports/photos.zip", authMW(http.HandlerFunc(reportsHandler.PhotosZip)))

	return mux
}
