package handler

import (
	"net/http"

	"github.com/pocketlearn/pocketlearn/internal/api"
	"github.com/pocketlearn/pocketlearn/internal/domain"
	"github.com/pocketlearn/pocketlearn/internal/service"
)

// ProfileHandler serves the profile view and edit endpoints.
type ProfileHandler struct {
	sessions *service.SessionManager
	progress *service.ProgressService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(sessions *service.SessionManager, progress *service.ProgressService) *ProfileHandler {
	return &ProfileHandler{sessions: sessions, progress: progress}
}

// HandleProfile returns the session user plus their progress records.
// GET /profile
func (h *ProfileHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	cred := h.sessions.Handle(session)

	records, err := h.progress.List(r.Context(), cred)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":     toUserDTO(session.User),
		"progress": toProgressDTOs(records),
	})
}

// HandleUpdateProfile submits changed profile fields.
// PUT /profile
// Request: {"email":..., "firstName":..., "lastName":..., "currentPassword":..., "newPassword":...}
func (h *ProfileHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email           string `json:"email"`
		FirstName       string `json:"firstName"`
		LastName        string `json:"lastName"`
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	session := SessionFromContext(r.Context())
	user, err := h.sessions.UpdateUser(r.Context(), session, domain.UserUpdate{
		Email:           req.Email,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": toUserDTO(user)})
}

// cred is a small helper shared by handlers that issue API calls under the
// request's session.
func cred(sessions *service.SessionManager, r *http.Request) api.Session {
	return sessions.Handle(SessionFromContext(r.Context()))
}
