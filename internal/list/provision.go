package list

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/dukerupert/ladle/internal/apperr"
	"github.com/dukerupert/ladle/internal/model"
	"github.com/dukerupert/ladle/internal/rtdb"
)

// isoMillis renders UTC instants the way list clients expect them,
// with millisecond precision and a literal Z.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// weekStartsOn is the locale's first day of the week.
const weekStartsOn = time.Sunday

// EnsureWeeks guarantees that the group has a list for the caller's
// current calendar week and the following one, creating at most one of
// each regardless of concurrent callers. The whole decision runs inside
// one store transaction whose updater is idempotent and side-effect
// free, so optimistic retries are safe. It returns all of the group's
// lists sorted ascending by week start.
func (s *Service) EnsureWeeks(ctx context.Context, groupID, tz string) ([]model.ListSummary, error) {
	loc := time.UTC
	if tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return nil, apperr.Validation("unknown timezone %q", tz)
		}
		loc = l
	}

	// Truncate in the caller's zone, then convert back to absolute
	// instants. Doing this server-local instead would be off by a day
	// for callers east or west of the server clock.
	thisWeekLocal := startOfWeek(s.now(), loc)
	targets := []time.Time{
		thisWeekLocal.UTC(),
		thisWeekLocal.AddDate(0, 0, 7).UTC(),
	}

	path := "lists/" + groupID
	_, err := s.store.Transact(ctx, path, func(current json.RawMessage, exists bool) (any, error) {
		lists := map[string]model.List{}
		if exists {
			if err := json.Unmarshal(current, &lists); err != nil {
				return nil, fmt.Errorf("decode lists: %w", err)
			}
		}

		created := false
		for _, target := range targets {
			if hasListForDay(lists, target) {
				continue
			}
			l := newBlankList(target.Format(isoMillis))
			lists[l.ID] = l
			created = true
		}
		if !created {
			return nil, rtdb.ErrAbort
		}
		return lists, nil
	})
	if err != nil {
		return nil, fmt.Errorf("ensure weekly lists: %w", err)
	}

	var lists map[string]model.List
	if _, err := s.store.Read(ctx, path, &lists); err != nil {
		return nil, fmt.Errorf("ensure weekly lists: %w", err)
	}

	summaries := make([]model.ListSummary, 0, len(lists))
	for id, l := range lists {
		summaries = append(summaries, model.ListSummary{
			ID:         id,
			WeekStart:  l.WeekStart,
			HasContent: hasContent(l.Items),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].WeekStart < summaries[j].WeekStart
	})
	return summaries, nil
}

// startOfWeek returns midnight of the current week's first day in loc.
func startOfWeek(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	offset := (int(local.Weekday()) - int(weekStartsOn) + 7) % 7
	return time.Date(local.Year(), local.Month(), local.Day()-offset, 0, 0, 0, 0, loc)
}

// hasListForDay reports whether any list's week start lands on the same
// calendar day as target. Day-string comparison, not exact timestamp
// equality: two callers in different timezones that round to the same
// day must not create duplicates.
func hasListForDay(lists map[string]model.List, target time.Time) bool {
	for _, l := range lists {
		if sameCalendarDay(l.WeekStart, target) {
			return true
		}
	}
	return false
}

// sameCalendarDay is the single authoritative "is this the same week
// slot" comparison.
func sameCalendarDay(weekStartRaw string, target time.Time) bool {
	t, err := time.Parse(time.RFC3339, weekStartRaw)
	if err != nil {
		return false
	}
	return t.UTC().Format(time.DateOnly) == target.UTC().Format(time.DateOnly)
}

// hasContent is false only for an empty list or a list holding exactly
// one blank seeded item.
func hasContent(items []model.Item) bool {
	if len(items) == 0 {
		return false
	}
	if len(items) == 1 && items[0].Text == "" {
		return false
	}
	return true
}

// normalizeWeekStart validates a client-supplied week start and renders
// it in the canonical UTC millisecond form.
func normalizeWeekStart(raw string) (string, error) {
	if raw == "" {
		return "", apperr.Validation("weekStart is required")
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return "", apperr.Validation("invalid weekStart %q", raw)
	}
	return t.UTC().Format(isoMillis), nil
}
