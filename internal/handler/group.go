package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/ladle/internal/apperr"
	"github.com/dukerupert/ladle/internal/auth"
	"github.com/dukerupert/ladle/internal/group"
)

type GroupHandler struct {
	groups *group.Service
	logger *slog.Logger
}

func NewGroupHandler(groups *group.Service, logger *slog.Logger) *GroupHandler {
	return &GroupHandler{groups: groups, logger: logger}
}

// List handles GET /api/group
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groups.ListForUser(r.Context(), auth.UID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

type groupRequest struct {
	Name string `json:"name"`
}

// Create handles POST /api/group
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidation(w, h.logger, "invalid JSON")
		return
	}
	if req.Name == "" {
		writeValidation(w, h.logger, "name is required")
		return
	}

	g, err := h.groups.Create(r.Context(), auth.UID(r.Context()), req.Name)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

// Rename handles PUT /api/group/{id}
func (h *GroupHandler) Rename(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("id")

	member, err := h.groups.IsMember(r.Context(), groupID, auth.UID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if !member {
		writeError(w, h.logger, apperr.Forbidden("not a member of this group"))
		return
	}

	var req groupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidation(w, h.logger, "invalid JSON")
		return
	}
	if req.Name == "" {
		writeValidation(w, h.logger, "name is required")
		return
	}

	if err := h.groups.Rename(r.Context(), groupID, req.Name); err != nil {
		writeError(w, h.logger, err)
		return
	}

	g, err := h.groups.Get(r.Context(), groupID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// Delete handles DELETE /api/group/{id}
func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.groups.Delete(r.Context(), r.PathValue("id"), auth.UID(r.Context())); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
