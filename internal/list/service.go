// Package list implements weekly list provisioning and the item
// mutation operations that preserve the fractional-rank ordering
// invariants.
package list

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/ladle/internal/apperr"
	"github.com/dukerupert/ladle/internal/model"
	"github.com/dukerupert/ladle/internal/rank"
	"github.com/dukerupert/ladle/internal/rtdb"
)

// Categorizer partitions item texts into named sections. Implementations
// may be slow or unavailable; callers treat failures as upstream errors.
type Categorizer interface {
	Categorize(ctx context.Context, items []string) ([]model.Section, error)
}

// CategoryCache remembers which section a normalized item text belongs
// to, so previously-seen texts skip the external categorizer. Writes are
// first-write-wins, which keeps concurrent writers convergent.
type CategoryCache interface {
	GetMany(texts []string) (map[string]string, error)
	Put(text, section string) error
}

// Service owns all reads and writes of lists.
type Service struct {
	store       *rtdb.Store
	categorizer Categorizer
	cache       CategoryCache
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(store *rtdb.Store, categorizer Categorizer, cache CategoryCache, logger *slog.Logger) *Service {
	return &Service{
		store:       store,
		categorizer: categorizer,
		cache:       cache,
		logger:      logger,
		now:         time.Now,
	}
}

func listPath(groupID, listID string) string {
	return "lists/" + groupID + "/" + listID
}

// Get returns one list, or a not-found error.
func (s *Service) Get(ctx context.Context, groupID, listID string) (*model.List, error) {
	var l model.List
	ok, err := s.store.Read(ctx, listPath(groupID, listID), &l)
	if err != nil {
		return nil, fmt.Errorf("get list: %w", err)
	}
	if !ok {
		return nil, apperr.NotFound("list %s not found", listID)
	}
	l.ID = listID
	return &l, nil
}

// Create makes one list unconditionally for the given week start,
// seeded with a single blank item at the middle rank.
func (s *Service) Create(ctx context.Context, groupID, weekStartRaw string) (*model.List, error) {
	weekStart, err := normalizeWeekStart(weekStartRaw)
	if err != nil {
		return nil, err
	}
	l := newBlankList(weekStart)
	if err := s.store.Write(ctx, listPath(groupID, l.ID), l); err != nil {
		return nil, fmt.Errorf("create list: %w", err)
	}
	return &l, nil
}

// PatchList merge-updates top-level fields of one list.
func (s *Service) PatchList(ctx context.Context, groupID, listID string, fields map[string]any) error {
	if _, err := s.Get(ctx, groupID, listID); err != nil {
		return err
	}
	delete(fields, "id")
	if err := s.store.Patch(ctx, listPath(groupID, listID), fields); err != nil {
		return fmt.Errorf("patch list: %w", err)
	}
	return nil
}

// AddMeal expands a recipe into a new meal plus one item per ingredient,
// appended after the list's current last item with strictly ascending
// ranks, and writes the whole list back in one overwrite. Concurrent
// meal adds may race on which meal lands first, but each meal's internal
// ingredient order is never interleaved.
func (s *Service) AddMeal(ctx context.Context, groupID, listID string, recipe model.Recipe) (*model.Meal, error) {
	if recipe.ID == "" || recipe.Name == "" {
		return nil, apperr.Validation("recipe id and name are required")
	}

	l, err := s.Get(ctx, groupID, listID)
	if err != nil {
		return nil, err
	}

	meal := model.Meal{
		ID:       uuid.NewString(),
		ListID:   listID,
		Name:     recipe.Name,
		RecipeID: recipe.ID,
	}

	r := rank.Middle()
	if n := len(l.Items); n > 0 && l.Items[n-1].ListOrder != "" {
		r = l.Items[n-1].ListOrder
	}
	mealRank := ""
	for _, ing := range recipe.Ingredients {
		r = rank.Next(r)
		mealRank = rank.Next(mealRank)
		l.Items = append(l.Items, model.Item{
			ID:        uuid.NewString(),
			Text:      ing.Name,
			Quantity:  ing.Quantity,
			Checked:   false,
			IsSection: false,
			ListOrder: r,
			MealOrder: mealRank,
			MealID:    meal.ID,
		})
	}
	l.Meals = append(l.Meals, meal)

	if err := s.store.Write(ctx, listPath(groupID, listID), l); err != nil {
		return nil, fmt.Errorf("add meal: %w", err)
	}
	return &meal, nil
}

// UpdateItem merge-patches fields of a single item. Identity fields
// cannot be changed.
func (s *Service) UpdateItem(ctx context.Context, groupID, listID, itemID string, fields map[string]any) (*model.Item, error) {
	l, err := s.Get(ctx, groupID, listID)
	if err != nil {
		return nil, err
	}
	idx := indexOfItem(l.Items, itemID)
	if idx < 0 {
		return nil, apperr.NotFound("item %s not found", itemID)
	}

	delete(fields, "id")
	delete(fields, "isSection")
	if len(fields) == 0 {
		return nil, apperr.Validation("no updatable fields supplied")
	}
	// Rank fields must stay well formed or later bisection between this
	// item and a neighbor could produce a key outside the gap.
	for _, name := range []string{"order", "mealOrder"} {
		v, ok := fields[name]
		if !ok {
			continue
		}
		r, ok := v.(string)
		if !ok || !rank.Valid(r) {
			return nil, apperr.Validation("%s is not a valid rank", name)
		}
	}

	itemPath := fmt.Sprintf("%s/items/%d", listPath(groupID, listID), idx)
	if err := s.store.Patch(ctx, itemPath, fields); err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}

	var updated model.Item
	if _, err := s.store.Read(ctx, itemPath, &updated); err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	return &updated, nil
}

// ReorderItem moves an item strictly between its new neighbors. Neighbor
// ranks are read immediately before the write, so the generated rank
// never collides with a neighbor that changed underneath; conflicting
// concurrent reorders of the same item are last-writer-wins.
func (s *Service) ReorderItem(ctx context.Context, groupID, listID, itemID, afterItemID, beforeItemID string) (*model.Item, error) {
	l, err := s.Get(ctx, groupID, listID)
	if err != nil {
		return nil, err
	}
	idx := indexOfItem(l.Items, itemID)
	if idx < 0 {
		return nil, apperr.NotFound("item %s not found", itemID)
	}

	lo, hi := "", ""
	if afterItemID != "" {
		i := indexOfItem(l.Items, afterItemID)
		if i < 0 {
			return nil, apperr.NotFound("item %s not found", afterItemID)
		}
		lo = l.Items[i].ListOrder
	}
	if beforeItemID != "" {
		i := indexOfItem(l.Items, beforeItemID)
		if i < 0 {
			return nil, apperr.NotFound("item %s not found", beforeItemID)
		}
		hi = l.Items[i].ListOrder
	}

	newRank, err := rank.Between(lo, hi)
	if err != nil {
		return nil, apperr.Validation("neighbors are not in order: %v", err)
	}

	itemPath := fmt.Sprintf("%s/items/%d", listPath(groupID, listID), idx)
	if err := s.store.Patch(ctx, itemPath, map[string]any{"order": newRank}); err != nil {
		return nil, fmt.Errorf("reorder item: %w", err)
	}

	item := l.Items[idx]
	item.ListOrder = newRank
	return &item, nil
}

func indexOfItem(items []model.Item, id string) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func newBlankList(weekStart string) model.List {
	return model.List{
		ID:        uuid.NewString(),
		WeekStart: weekStart,
		Items: []model.Item{{
			ID:        uuid.NewString(),
			Text:      "",
			Checked:   false,
			ListOrder: rank.Middle(),
		}},
	}
}
