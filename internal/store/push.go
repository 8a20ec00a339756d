package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/ladle/internal/model"
)

type PushStore struct {
	db *sql.DB
}

func NewPushStore(db *sql.DB) *PushStore {
	return &PushStore{db: db}
}

// CreateSubscription registers a browser push endpoint for a user. A
// re-subscribe from the same endpoint refreshes the keys in place.
func (s *PushStore) CreateSubscription(uid, endpoint, p256dh, auth string) (*model.PushSubscription, error) {
	_, err := s.db.Exec(
		`INSERT INTO push_subscriptions (uid, endpoint, p256dh_key, auth_key)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(endpoint) DO UPDATE SET uid = excluded.uid, p256dh_key = excluded.p256dh_key, auth_key = excluded.auth_key`,
		uid, endpoint, p256dh, auth,
	)
	if err != nil {
		return nil, fmt.Errorf("create push subscription: %w", err)
	}
	return s.getByEndpoint(endpoint)
}

func (s *PushStore) getByEndpoint(endpoint string) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	err := s.db.QueryRow(
		`SELECT id, uid, endpoint, p256dh_key, auth_key, created_at
		 FROM push_subscriptions WHERE endpoint = ?`, endpoint,
	).Scan(&sub.ID, &sub.UID, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey, &sub.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get push subscription by endpoint: %w", err)
	}
	return &sub, nil
}

func (s *PushStore) ListByUID(uid string) ([]model.PushSubscription, error) {
	rows, err := s.db.Query(
		`SELECT id, uid, endpoint, p256dh_key, auth_key, created_at
		 FROM push_subscriptions WHERE uid = ? ORDER BY created_at DESC`, uid,
	)
	if err != nil {
		return nil, fmt.Errorf("list push subscriptions by uid: %w", err)
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

// ListForUIDs returns the subscriptions of every listed user in one
// query. Used to notify a group's members.
func (s *PushStore) ListForUIDs(uids []string) ([]model.PushSubscription, error) {
	if len(uids) == 0 {
		return nil, nil
	}
	query := `SELECT id, uid, endpoint, p256dh_key, auth_key, created_at
	 FROM push_subscriptions WHERE uid IN (?` + repeatPlaceholder(len(uids)-1) + `)`
	args := make([]any, len(uids))
	for i, uid := range uids {
		args[i] = uid
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list push subscriptions for uids: %w", err)
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

func (s *PushStore) DeleteByEndpoint(endpoint string) error {
	_, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	if err != nil {
		return fmt.Errorf("delete push subscription by endpoint: %w", err)
	}
	return nil
}

func repeatPlaceholder(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += ",?"
	}
	return out
}

func scanSubscriptions(rows *sql.Rows) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	for rows.Next() {
		var sub model.PushSubscription
		if err := rows.Scan(&sub.ID, &sub.UID, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan push subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
