package list

import (
	"context"
	"sort"
	"testing"

	"github.com/dukerupert/ladle/internal/apperr"
	"github.com/dukerupert/ladle/internal/model"
	"github.com/dukerupert/ladle/internal/rank"
)

func testRecipe(id, name string, ingredients ...string) model.Recipe {
	r := model.Recipe{ID: id, Name: name}
	for _, ing := range ingredients {
		r.Ingredients = append(r.Ingredients, model.Ingredient{Name: ing})
	}
	return r
}

func ranksOf(items []model.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ListOrder
	}
	return out
}

func assertStrictlyAscending(t *testing.T, ranks []string) {
	t.Helper()
	for i := 1; i < len(ranks); i++ {
		if ranks[i-1] >= ranks[i] {
			t.Fatalf("ranks not strictly ascending at %d: %q >= %q", i, ranks[i-1], ranks[i])
		}
	}
}

func TestAddMealAppendsInRecipeOrder(t *testing.T) {
	svc, _, _ := setupListService(t)
	ctx := context.Background()

	l, err := svc.Create(ctx, "g1", "2025-01-05T00:00:00Z")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	meal, err := svc.AddMeal(ctx, "g1", l.ID, testRecipe("r1", "Tacos", "tortillas", "beef", "salsa"))
	if err != nil {
		t.Fatalf("add meal: %v", err)
	}

	got, err := svc.Get(ctx, "g1", l.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	// Seed blank item plus three ingredients.
	if len(got.Items) != 4 {
		t.Fatalf("expected 4 items, got %d", len(got.Items))
	}
	assertStrictlyAscending(t, ranksOf(got.Items))

	added := got.Items[1:]
	for i, want := range []string{"tortillas", "beef", "salsa"} {
		if added[i].Text != want {
			t.Errorf("item %d = %q, want %q", i, added[i].Text, want)
		}
		if added[i].MealID != meal.ID {
			t.Errorf("item %d mealId = %q, want %q", i, added[i].MealID, meal.ID)
		}
	}
	assertStrictlyAscending(t, []string{added[0].MealOrder, added[1].MealOrder, added[2].MealOrder})

	if len(got.Meals) != 1 || got.Meals[0].RecipeID != "r1" || got.Meals[0].Name != "Tacos" {
		t.Fatalf("unexpected meals: %+v", got.Meals)
	}
}

func TestAddMealContinuesAfterExistingItems(t *testing.T) {
	svc, _, _ := setupListService(t)
	ctx := context.Background()

	l, err := svc.Create(ctx, "g1", "2025-01-05T00:00:00Z")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.AddMeal(ctx, "g1", l.ID, testRecipe("r1", "Soup", "stock", "carrots")); err != nil {
		t.Fatalf("first meal: %v", err)
	}
	if _, err := svc.AddMeal(ctx, "g1", l.ID, testRecipe("r2", "Salad", "lettuce", "tomato")); err != nil {
		t.Fatalf("second meal: %v", err)
	}

	got, err := svc.Get(ctx, "g1", l.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	assertStrictlyAscending(t, ranksOf(got.Items))

	var texts []string
	for _, it := range got.Items[1:] {
		texts = append(texts, it.Text)
	}
	want := []string{"stock", "carrots", "lettuce", "tomato"}
	for i := range want {
		if texts[i] != want[i] {
			t.Fatalf("texts = %v, want %v", texts, want)
		}
	}
	if len(got.Meals) != 2 {
		t.Fatalf("expected 2 meals, got %d", len(got.Meals))
	}
}

func TestAddMealRejectsInvalidRecipe(t *testing.T) {
	svc, _, _ := setupListService(t)
	ctx := context.Background()

	l, err := svc.Create(ctx, "g1", "2025-01-05T00:00:00Z")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = svc.AddMeal(ctx, "g1", l.ID, model.Recipe{Name: "no id"})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateItemPatchesWithoutTouchingSiblings(t *testing.T) {
	svc, _, _ := setupListService(t)
	ctx := context.Background()

	l, err := svc.Create(ctx, "g1", "2025-01-05T00:00:00Z")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.AddMeal(ctx, "g1", l.ID, testRecipe("r1", "Soup", "stock", "carrots")); err != nil {
		t.Fatalf("add meal: %v", err)
	}
	before, err := svc.Get(ctx, "g1", l.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	target := before.Items[1]

	updated, err := svc.UpdateItem(ctx, "g1", l.ID, target.ID, map[string]any{
		"checked": true,
		"id":      "evil-override",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Checked {
		t.Error("checked not applied")
	}
	if updated.ID != target.ID {
		t.Errorf("id changed to %q", updated.ID)
	}
	if updated.Text != target.Text || updated.ListOrder != target.ListOrder {
		t.Errorf("unrelated fields changed: %+v", updated)
	}

	after, err := svc.Get(ctx, "g1", l.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if after.Items[2] != before.Items[2] {
		t.Errorf("sibling item changed: %+v", after.Items[2])
	}
}

func TestUpdateItemRejectsMalformedRank(t *testing.T) {
	svc, _, _ := setupListService(t)
	ctx := context.Background()

	l, err := svc.Create(ctx, "g1", "2025-01-05T00:00:00Z")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.AddMeal(ctx, "g1", l.ID, testRecipe("r1", "Soup", "stock", "carrots")); err != nil {
		t.Fatalf("add meal: %v", err)
	}
	before, err := svc.Get(ctx, "g1", l.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	target := before.Items[1]

	// A trailing-zero rank like "10" leaves no gap below it, so a later
	// move between it and its predecessor could not generate a key.
	for _, bad := range []any{"10", "i!", "", 42} {
		_, err := svc.UpdateItem(ctx, "g1", l.ID, target.ID, map[string]any{"order": bad})
		if apperr.KindOf(err) != apperr.KindValidation {
			t.Errorf("order %v: expected validation error, got %v", bad, err)
		}
	}
	_, err = svc.UpdateItem(ctx, "g1", l.ID, target.ID, map[string]any{"mealOrder": "0"})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("mealOrder: expected validation error, got %v", err)
	}

	after, err := svc.Get(ctx, "g1", l.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if after.Items[1].ListOrder != target.ListOrder {
		t.Errorf("rejected update changed order to %q", after.Items[1].ListOrder)
	}
}

func TestUpdateItemAcceptsGeneratedRank(t *testing.T) {
	svc, _, _ := setupListService(t)
	ctx := context.Background()

	l, err := svc.Create(ctx, "g1", "2025-01-05T00:00:00Z")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.AddMeal(ctx, "g1", l.ID, testRecipe("r1", "Soup", "stock", "carrots")); err != nil {
		t.Fatalf("add meal: %v", err)
	}
	before, err := svc.Get(ctx, "g1", l.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	target := before.Items[1]

	next := rank.Next(before.Items[len(before.Items)-1].ListOrder)
	updated, err := svc.UpdateItem(ctx, "g1", l.ID, target.ID, map[string]any{"order": next})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ListOrder != next {
		t.Errorf("order = %q, want %q", updated.ListOrder, next)
	}
}

func TestUpdateItemUnknownID(t *testing.T) {
	svc, _, _ := setupListService(t)
	ctx := context.Background()

	l, err := svc.Create(ctx, "g1", "2025-01-05T00:00:00Z")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = svc.UpdateItem(ctx, "g1", l.ID, "missing", map[string]any{"checked": true})
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReorderItemLandsBetweenNeighbors(t *testing.T) {
	svc, _, _ := setupListService(t)
	ctx := context.Background()

	l, err := svc.Create(ctx, "g1", "2025-01-05T00:00:00Z")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.AddMeal(ctx, "g1", l.ID, testRecipe("r1", "Soup", "a", "b", "c")); err != nil {
		t.Fatalf("add meal: %v", err)
	}
	got, err := svc.Get(ctx, "g1", l.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	items := got.Items[1:]
	// Move c between a and b.
	moved, err := svc.ReorderItem(ctx, "g1", l.ID, items[2].ID, items[0].ID, items[1].ID)
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if moved.ListOrder <= items[0].ListOrder || moved.ListOrder >= items[1].ListOrder {
		t.Fatalf("rank %q not between %q and %q", moved.ListOrder, items[0].ListOrder, items[1].ListOrder)
	}

	after, err := svc.Get(ctx, "g1", l.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	sort.Slice(after.Items, func(i, j int) bool { return after.Items[i].ListOrder < after.Items[j].ListOrder })
	var texts []string
	for _, it := range after.Items[1:] {
		texts = append(texts, it.Text)
	}
	want := []string{"a", "c", "b"}
	for i := range want {
		if texts[i] != want[i] {
			t.Fatalf("order after reorder = %v, want %v", texts, want)
		}
	}
}

func TestReorderItemToFront(t *testing.T) {
	svc, _, _ := setupListService(t)
	ctx := context.Background()

	l, err := svc.Create(ctx, "g1", "2025-01-05T00:00:00Z")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.AddMeal(ctx, "g1", l.ID, testRecipe("r1", "Soup", "a", "b")); err != nil {
		t.Fatalf("add meal: %v", err)
	}
	got, err := svc.Get(ctx, "g1", l.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	first := got.Items[0]
	last := got.Items[len(got.Items)-1]

	moved, err := svc.ReorderItem(ctx, "g1", l.ID, last.ID, "", first.ID)
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if moved.ListOrder >= first.ListOrder {
		t.Fatalf("rank %q not before %q", moved.ListOrder, first.ListOrder)
	}
}

func TestReorderItemRejectsInvertedNeighbors(t *testing.T) {
	svc, _, _ := setupListService(t)
	ctx := context.Background()

	l, err := svc.Create(ctx, "g1", "2025-01-05T00:00:00Z")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.AddMeal(ctx, "g1", l.ID, testRecipe("r1", "Soup", "a", "b", "c")); err != nil {
		t.Fatalf("add meal: %v", err)
	}
	got, err := svc.Get(ctx, "g1", l.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	items := got.Items[1:]
	// after=b, before=a is inverted.
	_, err = svc.ReorderItem(ctx, "g1", l.ID, items[2].ID, items[1].ID, items[0].ID)
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
