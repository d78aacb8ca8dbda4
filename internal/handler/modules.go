package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/pocketlearn/pocketlearn/internal/api"
	"github.com/pocketlearn/pocketlearn/internal/service"
)

// ModuleHandler serves the learner-facing module endpoints.
type ModuleHandler struct {
	sessions *service.SessionManager
	content  *service.ContentService
	progress *service.ProgressService
}

// NewModuleHandler creates a new ModuleHandler.
func NewModuleHandler(sessions *service.SessionManager, content *service.ContentService, progress *service.ProgressService) *ModuleHandler {
	return &ModuleHandler{sessions: sessions, content: content, progress: progress}
}

// HandleList returns all modules together with the user's completed-module IDs.
// GET /modules
func (h *ModuleHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	c := cred(h.sessions, r)

	modules, err := h.content.ListModules(r.Context(), c)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	completed, err := h.progress.CompletedModules(r.Context(), c)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"modules":   toModuleDTOs(modules),
		"completed": completed,
	})
}

// HandleDetail returns one module.
// GET /modules/{id}
func (h *ModuleHandler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid module ID.")
		return
	}

	module, err := h.content.GetModule(r.Context(), cred(h.sessions, r), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"module": toModuleDTO(*module)})
}

// HandleSave adds a module to the user's saved list.
// POST /modules/{id}/save
func (h *ModuleHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	h.toggleSaved(w, r, h.content.SaveModule)
}

// HandleUnsave removes a module from the user's saved list.
// POST /modules/{id}/unsave
func (h *ModuleHandler) HandleUnsave(w http.ResponseWriter, r *http.Request) {
	h.toggleSaved(w, r, h.content.UnsaveModule)
}

func (h *ModuleHandler) toggleSaved(w http.ResponseWriter, r *http.Request, op func(context.Context, api.Session, int64) error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid module ID.")
		return
	}

	if err := op(r.Context(), cred(h.sessions, r), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSaved returns the user's saved modules.
// GET /modules/saved
func (h *ModuleHandler) HandleSaved(w http.ResponseWriter, r *http.Request) {
	modules, err := h.content.SavedModules(r.Context(), cred(h.sessions, r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"modules": toModuleDTOs(modules)})
}
