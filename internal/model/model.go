package model

import "time"

// Item is one row in a grocery list: either a content entry or, when
// IsSection is set, a section header partitioning the rows below it.
// ListOrder is an opaque fractional rank; ascending lexicographic order
// of ListOrder across a list's non-deleted items is the authoritative
// display order.
type Item struct {
	ID               string `json:"id"`
	Text             string `json:"text"`
	Checked          bool   `json:"checked"`
	IsSection        bool   `json:"isSection,omitempty"`
	ListOrder        string `json:"order"`
	MealOrder        string `json:"mealOrder,omitempty"`
	MealID           string `json:"mealId,omitempty"`
	Quantity         string `json:"quantity,omitempty"`
	OverrideQuantity string `json:"overrideQuantity,omitempty"`
}

// List is one group's grocery list for one calendar week. WeekStart is an
// RFC 3339 timestamp normalized to a week boundary.
type List struct {
	ID        string `json:"id"`
	WeekStart string `json:"weekStart"`
	Items     []Item `json:"items"`
	Meals     []Meal `json:"meals,omitempty"`
}

// ListSummary is the projection returned by weekly provisioning.
// HasContent is false only for a list with zero items, or exactly one
// item whose text is empty.
type ListSummary struct {
	ID         string `json:"id"`
	WeekStart  string `json:"weekStart"`
	HasContent bool   `json:"hasContent"`
}

// Meal is a planned dish attached to a list, optionally tied to a day of
// week and the recipe it was expanded from.
type Meal struct {
	ID        string `json:"id"`
	ListID    string `json:"listId"`
	Name      string `json:"name"`
	RecipeID  string `json:"recipeId,omitempty"`
	DayOfWeek string `json:"dayOfWeek,omitempty"`
}

// Group is a set of users sharing lists. Members is keyed by uid.
type Group struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Owner     string          `json:"owner"`
	Members   map[string]bool `json:"members"`
	CreatedAt int64           `json:"createdAt"`
}

// Ingredient is one line of a recipe.
type Ingredient struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity,omitempty"`
}

// Recipe is the payload expanded into meal items. It is accepted from
// clients, never stored by this service.
type Recipe struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description,omitempty"`
	Ingredients  []Ingredient `json:"ingredients"`
	Instructions []string     `json:"instructions,omitempty"`
}

// Section is one named bucket returned by the categorization
// collaborator, listing member item texts in display order.
type Section struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

// PushSubscription is a stored Web Push endpoint for one user.
type PushSubscription struct {
	ID        int64     `json:"id"`
	UID       string    `json:"uid"`
	Endpoint  string    `json:"endpoint"`
	P256dhKey string    `json:"p256dh_key"`
	AuthKey   string    `json:"auth_key"`
	CreatedAt time.Time `json:"created_at"`
}
