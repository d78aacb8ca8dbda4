package handler

import (
	"net/http"

	"github.com/pocketlearn/pocketlearn/internal/service"
)

// RegisterRoutes sets up all HTTP routes on the given mux. Every route runs
// under the session middleware; the auth and admin guards mirror the
// client-side route table of the source application.
func RegisterRoutes(
	mux *http.ServeMux,
	sessions *service.SessionManager,
	content *service.ContentService,
	progress *service.ProgressService,
	player *service.PlayerService,
	cookies *SessionCookie,
	limiter *service.LoginLimiter,
) {
	auth := NewAuthHandler(sessions, cookies, limiter)
	profile := NewProfileHandler(sessions, progress)
	modules := NewModuleHandler(sessions, content, progress)
	playback := NewPlayerHandler(sessions, player)
	admin := NewAdminHandler(sessions, content)

	private := func(h http.HandlerFunc) http.Handler { return RequireAuth(h) }
	adminOnly := func(h http.HandlerFunc) http.Handler { return RequireAdmin(h) }

	mux.HandleFunc("GET /healthz", HandleHealthz)

	// Session lifecycle.
	mux.HandleFunc("POST /api/session/login", auth.HandleLogin)
	mux.HandleFunc("POST /api/session/register", auth.HandleRegister)
	mux.HandleFunc("POST /api/session/password-reset", auth.HandleResetPassword)
	mux.Handle("POST /api/session/logout", private(auth.HandleLogout))
	mux.Handle("DELETE /api/session/account", private(auth.HandleDeleteAccount))

	// Learner routes.
	mux.Handle("GET /modules", private(modules.HandleList))
	mux.Handle("GET /modules/saved", private(modules.HandleSaved))
	mux.Handle("GET /modules/{id}", private(modules.HandleDetail))
	mux.Handle("POST /modules/{id}/save", private(modules.HandleSave))
	mux.Handle("POST /modules/{id}/unsave", private(modules.HandleUnsave))
	mux.Handle("POST /modules/{id}/player", private(playback.HandleStart))
	mux.Handle("GET /modules/{id}/player", private(playback.HandleState))
	mux.Handle("POST /modules/{id}/player/answer", private(playback.HandleAnswer))
	mux.Handle("POST /modules/{id}/player/next", private(playback.HandleNext))
	mux.Handle("DELETE /modules/{id}/player", private(playback.HandleAbandon))
	mux.Handle("GET /profile", private(profile.HandleProfile))
	mux.Handle("PUT /profile", private(profile.HandleUpdateProfile))

	// Admin routes.
	mux.Handle("GET /admin/modules", adminOnly(admin.HandleListModules))
	mux.Handle("POST /admin/modules", adminOnly(admin.HandleCreateModule))
	mux.Handle("PUT /admin/modules/{id}", adminOnly(admin.HandleUpdateModule))
	mux.Handle("DELETE /admin/modules/{id}", adminOnly(admin.HandleDeleteModule))
	mux.Handle("GET /admin/modules/{id}/pages", adminOnly(admin.HandleListPages))
	mux.Handle("POST /admin/modules/{id}/pages", adminOnly(admin.HandleCreatePage))
	mux.Handle("PUT /admin/modules/{id}/pages/{pageID}", adminOnly(admin.HandleUpdatePage))
	mux.Handle("DELETE /admin/modules/{id}/pages/{pageID}", adminOnly(admin.HandleDeletePage))
	mux.Handle("POST /admin/modules/{id}/pages/{pageID}/move", adminOnly(admin.HandleMovePage))
}
