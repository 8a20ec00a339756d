package store

import (
	"database/sql"
	"fmt"
)

// CategoryCacheStore persists the section previously chosen for each
// normalized item text, so repeat texts never hit the upstream
// categorizer again.
type CategoryCacheStore struct {
	db *sql.DB
}

func NewCategoryCacheStore(db *sql.DB) *CategoryCacheStore {
	return &CategoryCacheStore{db: db}
}

// GetMany looks up sections for the given normalized texts. Texts with
// no cached section are simply absent from the result.
func (s *CategoryCacheStore) GetMany(texts []string) (map[string]string, error) {
	out := map[string]string{}
	if len(texts) == 0 {
		return out, nil
	}

	query := `SELECT normalized_text, section FROM category_cache
	 WHERE normalized_text IN (?` + repeatPlaceholder(len(texts)-1) + `)`
	args := make([]any, len(texts))
	for i, t := range texts {
		args[i] = t
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("get cached categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var text, section string
		if err := rows.Scan(&text, &section); err != nil {
			return nil, fmt.Errorf("scan cached category: %w", err)
		}
		out[text] = section
	}
	return out, rows.Err()
}

// Put records a section for a normalized text. The first write wins so
// concurrent categorize calls agree on one section per text.
func (s *CategoryCacheStore) Put(text, section string) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO category_cache (normalized_text, section) VALUES (?, ?)`,
		text, section,
	)
	if err != nil {
		return fmt.Errorf("cache category: %w", err)
	}
	return nil
}
