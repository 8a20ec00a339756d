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
	"github.com/dukerupert/ladle/internal/model"
	"github.com/dukerupert/ladle/internal/push"
	"github.com/dukerupert/ladle/internal/store"
)

type MealHandler struct {
	lists     *list.Service
	groups    *group.Service
	pushStore *store.PushStore
	pushSvc   *push.Service
	logger    *slog.Logger
}

func NewMealHandler(lists *list.Service, groups *group.Service, pushStore *store.PushStore, pushSvc *push.Service, logger *slog.Logger) *MealHandler {
	return &MealHandler{
		lists:     lists,
		groups:    groups,
		pushStore: pushStore,
		pushSvc:   pushSvc,
		logger:    logger,
	}
}

type addMealRequest struct {
	GroupID string       `json:"groupId"`
	ListID  string       `json:"listId"`
	Recipe  model.Recipe `json:"recipe"`
}

// Add handles POST /api/meal
func (h *MealHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addMealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidation(w, h.logger, "invalid JSON")
		return
	}
	if req.GroupID == "" || req.ListID == "" {
		writeValidation(w, h.logger, "groupId and listId are required")
		return
	}

	uid := auth.UID(r.Context())
	member, err := h.groups.IsMember(r.Context(), req.GroupID, uid)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if !member {
		writeError(w, h.logger, apperr.Forbidden("not a member of this group"))
		return
	}

	meal, err := h.lists.AddMeal(r.Context(), req.GroupID, req.ListID, req.Recipe)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	go h.notifyGroup(context.WithoutCancel(r.Context()), req.GroupID, uid, req.Recipe.Name)

	writeJSON(w, http.StatusCreated, meal)
}

// notifyGroup pushes a notification to every other member's devices.
// Delivery is best effort and never affects the API response.
func (h *MealHandler) notifyGroup(ctx context.Context, groupID, actorUID, recipeName string) {
	if h.pushSvc == nil || !h.pushSvc.Enabled() {
		return
	}

	g, err := h.groups.Get(ctx, groupID)
	if err != nil {
		h.logger.Warn("push skipped, group lookup failed", "group", groupID, "error", err)
		return
	}

	var uids []string
	for uid := range g.Members {
		if uid != actorUID {
			uids = append(uids, uid)
		}
	}
	subs, err := h.pushStore.ListForUIDs(uids)
	if err != nil {
		h.logger.Warn("push skipped, subscription lookup failed", "group", groupID, "error", err)
		return
	}

	h.pushSvc.Broadcast(subs, push.Payload{
		Title: "Ladle",
		Body:  recipeName + " added to this week's list",
		Tag:   "meal-added",
	}, func(endpoint string) {
		if err := h.pushStore.DeleteByEndpoint(endpoint); err != nil {
			h.logger.Warn("prune expired subscription failed", "error", err)
		}
	})
}
