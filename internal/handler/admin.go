package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/pocketlearn/pocketlearn/internal/api"
	"github.com/pocketlearn/pocketlearn/internal/domain"
	"github.com/pocketlearn/pocketlearn/internal/service"
)

// AdminHandler serves the module and page authoring endpoints. The admin
// guard keeps non-admins out; the learning API enforces it again on write.
type AdminHandler struct {
	sessions *service.SessionManager
	content  *service.ContentService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(sessions *service.SessionManager, content *service.ContentService) *AdminHandler {
	return &AdminHandler{sessions: sessions, content: content}
}

type moduleRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

func (req moduleRequest) input() api.ModuleInput {
	return api.ModuleInput{Title: req.Title, Description: req.Description, Category: req.Category}
}

type pageRequest struct {
	Type        string `json:"type"`
	Content     string `json:"content"`
	Order       int    `json:"order"`
	QuizOptions []struct {
		Text      string `json:"text"`
		IsCorrect bool   `json:"isCorrect"`
	} `json:"quizOptions"`
}

func (req pageRequest) input() api.PageInput {
	input := api.PageInput{Type: req.Type, Content: req.Content, Order: req.Order}
	for _, opt := range req.QuizOptions {
		input.QuizOptions = append(input.QuizOptions, api.QuizOptionInput{
			Text:      opt.Text,
			IsCorrect: opt.IsCorrect,
		})
	}
	return input
}

// HandleListModules returns all modules for the admin overview.
// GET /admin/modules
func (h *AdminHandler) HandleListModules(w http.ResponseWriter, r *http.Request) {
	modules, err := h.content.ListModules(r.Context(), cred(h.sessions, r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"modules": toModuleDTOs(modules)})
}

// HandleCreateModule creates a module.
// POST /admin/modules
func (h *AdminHandler) HandleCreateModule(w http.ResponseWriter, r *http.Request) {
	var req moduleRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	module, err := h.content.CreateModule(r.Context(), cred(h.sessions, r), req.input())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"module": toModuleDTO(*module)})
}

// HandleUpdateModule updates a module.
// PUT /admin/modules/{id}
func (h *AdminHandler) HandleUpdateModule(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	var req moduleRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	module, err := h.content.UpdateModule(r.Context(), cred(h.sessions, r), id, req.input())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"module": toModuleDTO(*module)})
}

// HandleDeleteModule deletes a module.
// DELETE /admin/modules/{id}
func (h *AdminHandler) HandleDeleteModule(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	if err := h.content.DeleteModule(r.Context(), cred(h.sessions, r), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListPages returns a module's pages for the authoring view, in order.
// GET /admin/modules/{id}/pages
func (h *AdminHandler) HandleListPages(w http.ResponseWriter, r *http.Request) {
	moduleID, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	pages, err := h.content.ListPages(r.Context(), cred(h.sessions, r), moduleID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pages": toAdminPageDTOs(pages)})
}

// HandleCreatePage creates a page within a module.
// POST /admin/modules/{id}/pages
func (h *AdminHandler) HandleCreatePage(w http.ResponseWriter, r *http.Request) {
	moduleID, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	var req pageRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	page, err := h.content.CreatePage(r.Context(), cred(h.sessions, r), moduleID, req.input())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"page": toAdminPageDTO(*page)})
}

// HandleUpdatePage updates a page.
// PUT /admin/modules/{id}/pages/{pageID}
func (h *AdminHandler) HandleUpdatePage(w http.ResponseWriter, r *http.Request) {
	moduleID, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	pageID, ok := parseID(w, r, "pageID")
	if !ok {
		return
	}
	var req pageRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	page, err := h.content.UpdatePage(r.Context(), cred(h.sessions, r), moduleID, pageID, req.input())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"page": toAdminPageDTO(*page)})
}

// HandleDeletePage deletes a page.
// DELETE /admin/modules/{id}/pages/{pageID}
func (h *AdminHandler) HandleDeletePage(w http.ResponseWriter, r *http.Request) {
	moduleID, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	pageID, ok := parseID(w, r, "pageID")
	if !ok {
		return
	}
	if err := h.content.DeletePage(r.Context(), cred(h.sessions, r), moduleID, pageID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleMovePage swaps a page's order with its neighbor.
// POST /admin/modules/{id}/pages/{pageID}/move
// Request: {"direction":"up"} or {"direction":"down"}
func (h *AdminHandler) HandleMovePage(w http.ResponseWriter, r *http.Request) {
	moduleID, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	pageID, ok := parseID(w, r, "pageID")
	if !ok {
		return
	}

	var req struct {
		Direction string `json:"direction"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	var delta int
	switch req.Direction {
	case "up":
		delta = -1
	case "down":
		delta = 1
	default:
		writeError(w, http.StatusBadRequest, "Direction must be \"up\" or \"down\".")
		return
	}

	c := cred(h.sessions, r)
	pages, err := h.content.ListPages(r.Context(), c, moduleID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	index := -1
	for i, p := range pages {
		if p.ID == pageID {
			index = i
			break
		}
	}
	if index == -1 {
		writeError(w, http.StatusNotFound, "Page not found in module.")
		return
	}

	reordered, err := h.content.MovePage(r.Context(), c, moduleID, pages, index, delta)
	if errors.Is(err, domain.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, "Page cannot move in that direction.")
		return
	}
	if err != nil {
		// The pre-move order comes back alongside the error so the client
		// view rolls back instead of showing a half-applied swap.
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error": "Failed to reorder pages.",
			"pages": toAdminPageDTOs(reordered),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pages": toAdminPageDTOs(reordered)})
}

func parseID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid ID.")
		return 0, false
	}
	return id, true
}
