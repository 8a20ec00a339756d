package categorize

import (
	"context"
	"sort"
	"strings"

	"github.com/dukerupert/ladle/internal/model"
)

// KeywordCategorizer buckets item texts with a static keyword table.
// It backs deployments with no API key configured: coarser than the
// model but free and offline. Matching is case-insensitive, exact match
// first, then substring match with longer keywords tried first.
type KeywordCategorizer struct{}

func NewKeywordCategorizer() *KeywordCategorizer {
	return &KeywordCategorizer{}
}

func (k *KeywordCategorizer) Categorize(_ context.Context, items []string) ([]model.Section, error) {
	buckets := map[string][]string{}
	for _, item := range items {
		buckets[sectionFor(item)] = append(buckets[sectionFor(item)], item)
	}

	names := make([]string, 0, len(buckets))
	for name := range buckets {
		names = append(names, name)
	}
	sort.Strings(names)

	sections := make([]model.Section, 0, len(names))
	for _, name := range names {
		sections = append(sections, model.Section{Name: name, Items: buckets[name]})
	}
	return sections, nil
}

func sectionFor(item string) string {
	name := strings.ToLower(strings.TrimSpace(item))
	if name == "" {
		return "Other"
	}
	if section, ok := exactMatch[name]; ok {
		return section
	}
	for _, entry := range substringMatches {
		if strings.Contains(name, entry.keyword) {
			return entry.section
		}
	}
	return "Other"
}

var exactMatch = map[string]string{
	// Produce
	"apples":   "Produce",
	"bananas":  "Produce",
	"oranges":  "Produce",
	"lemons":   "Produce",
	"limes":    "Produce",
	"avocados": "Produce",
	"tomatoes": "Produce",
	"potatoes": "Produce",
	"onions":   "Produce",
	"garlic":   "Produce",
	"lettuce":  "Produce",
	"spinach":  "Produce",
	"kale":     "Produce",
	"broccoli": "Produce",
	"carrots":  "Produce",
	"celery":   "Produce",
	"cucumber": "Produce",
	"peppers":  "Produce",
	"cilantro": "Produce",
	"ginger":   "Produce",

	// Dairy & Eggs
	"milk":    "Dairy & Eggs",
	"butter":  "Dairy & Eggs",
	"eggs":    "Dairy & Eggs",
	"yogurt":  "Dairy & Eggs",
	"cheese":  "Dairy & Eggs",
	"cream":   "Dairy & Eggs",
	"ricotta": "Dairy & Eggs",

	// Meat & Poultry
	"chicken": "Meat & Poultry",
	"beef":    "Meat & Poultry",
	"pork":    "Meat & Poultry",
	"turkey":  "Meat & Poultry",
	"bacon":   "Meat & Poultry",
	"sausage": "Meat & Poultry",

	// Seafood
	"salmon": "Seafood",
	"shrimp": "Seafood",
	"tuna":   "Seafood",
	"cod":    "Seafood",

	// Bakery
	"bread":     "Bakery",
	"bagels":    "Bakery",
	"tortillas": "Bakery",
	"buns":      "Bakery",
	"croissant": "Bakery",

	// Pantry
	"rice":    "Pantry",
	"pasta":   "Pantry",
	"flour":   "Pantry",
	"sugar":   "Pantry",
	"salt":    "Pantry",
	"oil":     "Pantry",
	"vinegar": "Pantry",
	"honey":   "Pantry",
	"stock":   "Pantry",
	"broth":   "Pantry",
	"salsa":   "Pantry",
}

var substringMatches = []struct {
	keyword string
	section string
}{
	// Multi-word keywords go first so they win over their parts.
	{"ice cream", "Frozen Foods"},
	{"peanut butter", "Pantry"},
	{"olive oil", "Pantry"},
	{"soy sauce", "Pantry"},
	{"sparkling water", "Beverages"},
	{"orange juice", "Beverages"},
	{"granola bar", "Snacks & Candy"},
	{"trail mix", "Snacks & Candy"},
	{"paper towel", "Household Essentials"},
	{"toilet paper", "Household Essentials"},
	{"trash bag", "Household Essentials"},
	{"dish soap", "Household Essentials"},
	{"body wash", "Health & Beauty"},

	{"berr", "Produce"},
	{"apple", "Produce"},
	{"grape", "Produce"},
	{"melon", "Produce"},
	{"mushroom", "Produce"},
	{"pepper", "Produce"},
	{"squash", "Produce"},
	{"herb", "Produce"},

	{"cheese", "Dairy & Eggs"},
	{"yogurt", "Dairy & Eggs"},
	{"cream", "Dairy & Eggs"},
	{"milk", "Dairy & Eggs"},
	{"egg", "Dairy & Eggs"},

	{"chicken", "Meat & Poultry"},
	{"beef", "Meat & Poultry"},
	{"steak", "Meat & Poultry"},
	{"ham", "Meat & Poultry"},
	{"ground", "Meat & Poultry"},

	{"fish", "Seafood"},
	{"crab", "Seafood"},

	{"bread", "Bakery"},
	{"roll", "Bakery"},
	{"muffin", "Bakery"},
	{"tortilla", "Bakery"},

	{"canned", "Canned Goods"},
	{"can of", "Canned Goods"},

	{"frozen", "Frozen Foods"},

	{"cereal", "Pantry"},
	{"oat", "Pantry"},
	{"noodle", "Pantry"},
	{"bean", "Pantry"},
	{"lentil", "Pantry"},
	{"sauce", "Pantry"},
	{"spice", "Pantry"},
	{"seasoning", "Pantry"},
	{"soup", "Pantry"},

	{"coffee", "Beverages"},
	{"juice", "Beverages"},
	{"soda", "Beverages"},
	{"tea", "Beverages"},
	{"beer", "Alcohol"},
	{"wine", "Alcohol"},
	{"water", "Beverages"},

	{"chip", "Snacks & Candy"},
	{"cracker", "Snacks & Candy"},
	{"cookie", "Snacks & Candy"},
	{"popcorn", "Snacks & Candy"},
	{"candy", "Snacks & Candy"},
	{"chocolate", "Snacks & Candy"},
	{"snack", "Snacks & Candy"},

	{"detergent", "Household Essentials"},
	{"cleaner", "Household Essentials"},
	{"sponge", "Household Essentials"},
	{"foil", "Household Essentials"},
	{"batteries", "Household Essentials"},
	{"battery", "Household Essentials"},

	{"shampoo", "Health & Beauty"},
	{"toothpaste", "Health & Beauty"},
	{"deodorant", "Health & Beauty"},
	{"lotion", "Health & Beauty"},
	{"soap", "Health & Beauty"},
	{"tissue", "Health & Beauty"},
}
