package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/ladle/internal/apperr"
	"github.com/dukerupert/ladle/internal/auth"
	"github.com/dukerupert/ladle/internal/group"
	"github.com/dukerupert/ladle/internal/list"
)

type ListHandler struct {
	lists  *list.Service
	groups *group.Service
	logger *slog.Logger
}

func NewListHandler(lists *list.Service, groups *group.Service, logger *slog.Logger) *ListHandler {
	return &ListHandler{lists: lists, groups: groups, logger: logger}
}

// requireGroup resolves the groupId query parameter and confirms the
// caller belongs to that group.
func (h *ListHandler) requireGroup(ctx context.Context, r *http.Request) (string, error) {
	groupID := r.URL.Query().Get("groupId")
	if groupID == "" {
		return "", apperr.Validation("groupId is required")
	}
	member, err := h.groups.IsMember(ctx, groupID, auth.UID(ctx))
	if err != nil {
		return "", err
	}
	if !member {
		return "", apperr.Forbidden("not a member of this group")
	}
	return groupID, nil
}

// EnsureWeeks handles GET /api/list
func (h *ListHandler) EnsureWeeks(w http.ResponseWriter, r *http.Request) {
	groupID, err := h.requireGroup(r.Context(), r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	summaries, err := h.lists.EnsureWeeks(r.Context(), groupID, r.URL.Query().Get("tz"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

type createListRequest struct {
	WeekStart string `json:"weekStart"`
}

// Create handles POST /api/list
func (h *ListHandler) Create(w http.ResponseWriter, r *http.Request) {
	groupID, err := h.requireGroup(r.Context(), r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req createListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidation(w, h.logger, "invalid JSON")
		return
	}

	l, err := h.lists.Create(r.Context(), groupID, req.WeekStart)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

// Get handles GET /api/list/{id}
func (h *ListHandler) Get(w http.ResponseWriter, r *http.Request) {
	groupID, err := h.requireGroup(r.Context(), r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	l, err := h.lists.Get(r.Context(), groupID, r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// Update handles POST /api/list/{id}
func (h *ListHandler) Update(w http.ResponseWriter, r *http.Request) {
	groupID, err := h.requireGroup(r.Context(), r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeValidation(w, h.logger, "invalid JSON")
		return
	}

	listID := r.PathValue("id")
	if err := h.lists.PatchList(r.Context(), groupID, listID, fields); err != nil {
		writeError(w, h.logger, err)
		return
	}

	l, err := h.lists.Get(r.Context(), groupID, listID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// Categorize handles POST /api/list/categorize/{id}
func (h *ListHandler) Categorize(w http.ResponseWriter, r *http.Request) {
	groupID, err := h.requireGroup(r.Context(), r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	items, err := h.lists.Categorize(r.Context(), groupID, r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}
