package list

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/dukerupert/ladle/internal/apperr"
	"github.com/dukerupert/ladle/internal/model"
	"github.com/dukerupert/ladle/internal/rank"
)

// fallbackSection collects items the categorizer never mentioned, so no
// original item is ever lost by a re-bucketing pass.
const fallbackSection = "Other"

// Categorize partitions the list's content items into named sections
// and rebuilds the item sequence: sorted section headers, each followed
// by its members, all with freshly generated ascending ranks. Every
// content item keeps its identity and fields; only its position (and
// rank) changes. Previously-seen texts are resolved from the category
// cache without calling the external categorizer.
func (s *Service) Categorize(ctx context.Context, groupID, listID string) ([]model.Item, error) {
	l, err := s.Get(ctx, groupID, listID)
	if err != nil {
		return nil, err
	}

	var content []model.Item
	for _, it := range l.Items {
		if !it.IsSection {
			content = append(content, it)
		}
	}
	if len(content) == 0 {
		return l.Items, nil
	}

	buckets, names, err := s.assignSections(ctx, content)
	if err != nil {
		return nil, err
	}

	rebuilt := s.rebuildSections(content, names, buckets)

	if err := s.store.Write(ctx, listPath(groupID, listID)+"/items", rebuilt); err != nil {
		return nil, fmt.Errorf("categorize list: %w", err)
	}
	return rebuilt, nil
}

// assignSections resolves a section name for each content item
// occurrence: cache hits first, then one external call covering all
// misses. Fresh results are written back to the cache (first write
// wins, so concurrent categorize calls converge).
func (s *Service) assignSections(ctx context.Context, content []model.Item) (map[string][]string, []string, error) {
	normalized := make([]string, len(content))
	for i, it := range content {
		normalized[i] = normalizeText(it.Text)
	}

	cached := map[string]string{}
	if s.cache != nil {
		var err error
		cached, err = s.cache.GetMany(normalized)
		if err != nil {
			s.logger.Warn("category cache lookup failed", "error", err)
			cached = map[string]string{}
		}
	}

	buckets := map[string][]string{}
	var misses []string
	for i, it := range content {
		if section, ok := cached[normalized[i]]; ok {
			buckets[section] = append(buckets[section], it.Text)
		} else {
			misses = append(misses, it.Text)
		}
	}

	if len(misses) > 0 {
		if s.categorizer == nil {
			return nil, nil, apperr.Upstream("no categorizer configured", nil)
		}
		sections, err := s.categorizer.Categorize(ctx, misses)
		if err != nil {
			return nil, nil, apperr.Upstream("categorization failed", err)
		}
		for _, sec := range sections {
			for _, text := range sec.Items {
				buckets[sec.Name] = append(buckets[sec.Name], text)
				if s.cache != nil {
					if err := s.cache.Put(normalizeText(text), sec.Name); err != nil {
						s.logger.Warn("category cache write failed", "text", text, "error", err)
					}
				}
			}
		}
	}

	names := make([]string, 0, len(buckets))
	for name := range buckets {
		names = append(names, name)
	}
	sort.Strings(names)
	return buckets, names, nil
}

// rebuildSections emits a header item per section followed by the
// matching original items, consuming duplicate-text matches in original
// encounter order so identical texts are never duplicated or dropped.
// Texts with no matching original (categorizer hallucinations) are
// logged and skipped; originals the categorizer never referenced end up
// under a trailing fallback section.
func (s *Service) rebuildSections(content []model.Item, names []string, buckets map[string][]string) []model.Item {
	pool := map[string][]int{}
	for i, it := range content {
		key := normalizeText(it.Text)
		pool[key] = append(pool[key], i)
	}
	taken := make([]bool, len(content))

	r := ""
	nextRank := func() string {
		r = rank.Next(r)
		return r
	}

	var out []model.Item
	emit := func(name string, texts []string) {
		out = append(out, model.Item{
			ID:        uuid.NewString(),
			Text:      name,
			Checked:   false,
			IsSection: true,
			ListOrder: nextRank(),
		})
		for _, text := range texts {
			key := normalizeText(text)
			queue := pool[key]
			if len(queue) == 0 {
				s.logger.Warn("categorizer returned item with no original match", "text", text)
				continue
			}
			idx := queue[0]
			pool[key] = queue[1:]
			taken[idx] = true

			item := content[idx]
			item.ListOrder = nextRank()
			out = append(out, item)
		}
	}

	for _, name := range names {
		emit(name, buckets[name])
	}

	var leftovers []string
	for i, it := range content {
		if !taken[i] {
			leftovers = append(leftovers, it.Text)
		}
	}
	if len(leftovers) > 0 {
		emit(fallbackSection, leftovers)
	}
	return out
}

func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
