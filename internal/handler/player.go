package handler

import (
	"net/http"
	"strconv"

	"github.com/pocketlearn/pocketlearn/internal/service"
)

// PlayerHandler drives module playback over HTTP. One run per
// (session, module) lives in the player service; every endpoint here just
// applies a state-machine step and renders the resulting run.
type PlayerHandler struct {
	sessions *service.SessionManager
	player   *service.PlayerService
}

// NewPlayerHandler creates a new PlayerHandler.
func NewPlayerHandler(sessions *service.SessionManager, player *service.PlayerService) *PlayerHandler {
	return &PlayerHandler{sessions: sessions, player: player}
}

// HandleStart begins (or restarts) a playback run at the first page.
// POST /modules/{id}/player
func (h *PlayerHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	moduleID, ok := h.moduleID(w, r)
	if !ok {
		return
	}

	session := SessionFromContext(r.Context())
	run, err := h.player.Start(r.Context(), h.sessions.Handle(session), session.ID, moduleID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"run": toRunDTO(run)})
}

// HandleState returns the current run.
// GET /modules/{id}/player
func (h *PlayerHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	moduleID, ok := h.moduleID(w, r)
	if !ok {
		return
	}

	session := SessionFromContext(r.Context())
	run, found := h.player.Get(session.ID, moduleID)
	if !found {
		writeError(w, http.StatusNotFound, "No playback in progress for this module.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"run": toRunDTO(run)})
}

// HandleAnswer records the learner's answer selection on the current quiz page.
// POST /modules/{id}/player/answer
// Request: {"optionIds":[1,2]}
func (h *PlayerHandler) HandleAnswer(w http.ResponseWriter, r *http.Request) {
	moduleID, ok := h.moduleID(w, r)
	if !ok {
		return
	}

	var req struct {
		OptionIDs []int64 `json:"optionIds"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	session := SessionFromContext(r.Context())
	run, err := h.player.SelectAnswer(session.ID, moduleID, req.OptionIDs)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"run": toRunDTO(run)})
}

// HandleNext applies one Next step: grade an unchecked quiz answer, or
// advance. Completing the module reports 100% progress upstream exactly
// once and returns the refreshed completed-module IDs.
// POST /modules/{id}/player/next
func (h *PlayerHandler) HandleNext(w http.ResponseWriter, r *http.Request) {
	moduleID, ok := h.moduleID(w, r)
	if !ok {
		return
	}

	session := SessionFromContext(r.Context())
	run, completed, err := h.player.Advance(r.Context(), h.sessions.Handle(session), session.ID, moduleID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	body := map[string]any{"run": toRunDTO(run)}
	if completed != nil {
		body["completed"] = completed
	}
	writeJSON(w, http.StatusOK, body)
}

// HandleAbandon drops the run without reporting any progress.
// DELETE /modules/{id}/player
func (h *PlayerHandler) HandleAbandon(w http.ResponseWriter, r *http.Request) {
	moduleID, ok := h.moduleID(w, r)
	if !ok {
		return
	}

	session := SessionFromContext(r.Context())
	h.player.Abandon(session.ID, moduleID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *PlayerHandler) moduleID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid module ID.")
		return 0, false
	}
	return id, true
}
