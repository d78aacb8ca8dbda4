package handler

import (
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/pocketlearn/pocketlearn/internal/domain"
	"github.com/pocketlearn/pocketlearn/internal/service"
)

// AuthHandler handles the session lifecycle endpoints.
type AuthHandler struct {
	sessions *service.SessionManager
	cookies  *SessionCookie
	limiter  *service.LoginLimiter
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(sessions *service.SessionManager, cookies *SessionCookie, limiter *service.LoginLimiter) *AuthHandler {
	return &AuthHandler{sessions: sessions, cookies: cookies, limiter: limiter}
}

// HandleLogin processes a JSON login request.
// POST /api/session/login
// Request:  {"email":"...","password":"..."}
// Response: {"user": {...}}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, "Too many attempts. Please wait a moment.")
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	session, err := h.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "Invalid email or password.")
			return
		}
		writeDomainError(w, err)
		return
	}

	if err := h.cookies.Issue(w, session.ID); err != nil {
		slog.Error("issue session cookie", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": toUserDTO(session.User)})
}

// HandleRegister processes a JSON registration request.
// POST /api/session/register
// Response: {"user": {...}}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email     string `json:"email"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Password  string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	session, err := h.sessions.Register(r.Context(), domain.Registration{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if err := h.cookies.Issue(w, session.ID); err != nil {
		slog.Error("issue session cookie", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user": toUserDTO(session.User)})
}

// HandleLogout clears the session and the cookie.
// POST /api/session/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if session := SessionFromContext(r.Context()); session != nil {
		if err := h.sessions.Logout(r.Context(), session.ID); err != nil {
			slog.Error("logout", "error", err)
		}
	}
	h.cookies.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleResetPassword requests a password-reset email.
// POST /api/session/password-reset
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if err := h.sessions.ResetPassword(r.Context(), req.Email); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

// HandleDeleteAccount deletes the account upstream, then clears the
// session. A failed deletion leaves the session untouched.
// DELETE /api/session/account
func (h *AuthHandler) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	if err := h.sessions.DeleteAccount(r.Context(), session); err != nil {
		writeDomainError(w, err)
		return
	}
	h.cookies.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
