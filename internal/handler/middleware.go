package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/pocketlearn/pocketlearn/internal/domain"
	"github.com/pocketlearn/pocketlearn/internal/service"
)

type contextKey string

const sessionContextKey contextKey = "session"

// SessionFromContext extracts the restored session from the request
// context. Returns nil for anonymous requests.
func SessionFromContext(ctx context.Context) *domain.Session {
	sess, _ := ctx.Value(sessionContextKey).(*domain.Session)
	return sess
}

// WithSession restores the session named by the request's cookie before any
// route decision is made and injects it into the context. Requests without
// a valid cookie, and sessions whose restore fails (which also clears the
// stored token pair), proceed anonymously — the guards decide what happens
// next.
func WithSession(sessions *service.SessionManager, cookies *SessionCookie, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := cookies.Read(r)
		if sessionID == "" {
			next.ServeHTTP(w, r)
			return
		}

		session, err := sessions.Restore(r.Context(), sessionID)
		if err != nil {
			slog.Error("restore session", "error", err)
			writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
			return
		}
		if session == nil {
			cookies.Clear(w)
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth guards routes that need any authenticated session,
// redirecting anonymous requests to the login route.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !SessionFromContext(r.Context()).Authenticated() {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin guards the admin route tree. Anonymous requests go to the
// login route; authenticated non-admins are sent home.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := SessionFromContext(r.Context())
		if !session.Authenticated() {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		if !session.Admin() {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SecurityHeaders sets baseline security headers on every response.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
