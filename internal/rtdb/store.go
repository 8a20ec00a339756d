// Package rtdb is the hierarchical list-store adapter. Documents are
// JSON trees stored one-per-Redis-key; reads, overwrites, merge-patches,
// and optimistic transactions address any path inside a document, and
// every committed write notifies watchers of the path and its ancestors
// and descendants through pub/sub.
package rtdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
)

const (
	keyPrefix  = "ladle:doc:"
	chanPrefix = "ladle:watch:"

	// transactAttempts bounds the optimistic retry loop when concurrent
	// writers keep invalidating the WATCH.
	transactAttempts = 16
)

// ErrAbort is returned by a Transact updater to commit nothing. No write
// happens and no watcher is notified.
var ErrAbort = errors.New("rtdb: transaction aborted")

// errNoWrite signals updateDoc to stop without writing or publishing.
var errNoWrite = errors.New("rtdb: no write")

// Store adapts Redis into the hierarchical store contract.
type Store struct {
	client *redis.Client
	logger *slog.Logger
}

// Open connects to Redis at redisURL and verifies the connection.
func Open(redisURL string, logger *slog.Logger) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return New(client, logger), nil
}

// New creates a Store from an existing Redis client.
func New(client *redis.Client, logger *slog.Logger) *Store {
	return &Store{client: client, logger: logger}
}

// Close closes the underlying Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// ReadRaw returns the raw JSON at path, or ok=false when the path is
// absent.
func (s *Store) ReadRaw(ctx context.Context, path string) (json.RawMessage, bool, error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, false, err
	}
	data, err := s.client.Get(ctx, docKey(segs)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", path, err)
	}
	if len(segs) == 2 {
		return json.RawMessage(data), true, nil
	}
	doc, err := decodeJSON(data)
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", path, err)
	}
	node, ok := getAt(doc, segs[2:])
	if !ok {
		return nil, false, nil
	}
	raw, err := json.Marshal(node)
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", path, err)
	}
	return raw, true, nil
}

// Read unmarshals the value at path into dest. It returns false with a
// nil error when the path is absent.
func (s *Store) Read(ctx context.Context, path string, dest any) (bool, error) {
	raw, ok, err := s.ReadRaw(ctx, path)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	return true, nil
}

// ReadAll returns every document in a top-level collection, keyed by
// document id.
func (s *Store) ReadAll(ctx context.Context, collection string) (map[string]json.RawMessage, error) {
	prefix := keyPrefix + collection + "/"
	out := make(map[string]json.RawMessage)

	iter := s.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		data, err := s.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read collection %s: %w", collection, err)
		}
		out[strings.TrimPrefix(key, prefix)] = json.RawMessage(data)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan collection %s: %w", collection, err)
	}
	return out, nil
}

// Write fully overwrites the value at path, then notifies watchers.
func (s *Store) Write(ctx context.Context, path string, value any) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	if len(segs) == 2 {
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		if err := s.client.Set(ctx, docKey(segs), data, 0).Err(); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		s.publish(ctx, path)
		return nil
	}

	jv, err := toJSONValue(value)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	err = s.updateDoc(ctx, docKey(segs), func(doc any, _ bool) (any, error) {
		return setAt(doc, segs[2:], jv)
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	s.publish(ctx, path)
	return nil
}

// Patch merge-updates the object at path without touching sibling
// fields, then notifies watchers.
func (s *Store) Patch(ctx context.Context, path string, fields map[string]any) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	jf := make(map[string]any, len(fields))
	for k, v := range fields {
		jv, err := toJSONValue(v)
		if err != nil {
			return fmt.Errorf("patch %s: %w", path, err)
		}
		jf[k] = jv
	}
	err = s.updateDoc(ctx, docKey(segs), func(doc any, _ bool) (any, error) {
		return mergeAt(doc, segs[2:], jf)
	})
	if err != nil {
		return fmt.Errorf("patch %s: %w", path, err)
	}
	s.publish(ctx, path)
	return nil
}

// Delete removes the value at path, then notifies watchers.
func (s *Store) Delete(ctx context.Context, path string) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	if len(segs) == 2 {
		if err := s.client.Del(ctx, docKey(segs)).Err(); err != nil {
			return fmt.Errorf("delete %s: %w", path, err)
		}
		s.publish(ctx, path)
		return nil
	}
	err = s.updateDoc(ctx, docKey(segs), func(doc any, exists bool) (any, error) {
		if !exists {
			return nil, errNoWrite
		}
		return removeAt(doc, segs[2:])
	})
	if errors.Is(err, errNoWrite) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	s.publish(ctx, path)
	return nil
}

// Transact runs updater against the current value at path under an
// optimistic transaction. The updater receives the current JSON (or
// exists=false) and returns the replacement value; it may be invoked
// multiple times when concurrent writers conflict, so it must be
// idempotent and free of external side effects. Returning ErrAbort
// commits nothing and notifies nobody. The returned bool reports whether
// a commit happened.
func (s *Store) Transact(ctx context.Context, path string, updater func(current json.RawMessage, exists bool) (any, error)) (bool, error) {
	segs, err := splitPath(path)
	if err != nil {
		return false, err
	}

	err = s.updateDoc(ctx, docKey(segs), func(doc any, docExists bool) (any, error) {
		var current json.RawMessage
		exists := false
		if docExists {
			if node, ok := getAt(doc, segs[2:]); ok {
				raw, err := json.Marshal(node)
				if err != nil {
					return nil, fmt.Errorf("encode current value: %w", err)
				}
				current = raw
				exists = true
			}
		}

		next, err := updater(current, exists)
		if errors.Is(err, ErrAbort) {
			return nil, errNoWrite
		}
		if err != nil {
			return nil, err
		}
		jv, err := toJSONValue(next)
		if err != nil {
			return nil, err
		}
		if !docExists {
			doc = nil
		}
		return setAt(doc, segs[2:], jv)
	})
	if errors.Is(err, errNoWrite) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("transact %s: %w", path, err)
	}
	s.publish(ctx, path)
	return true, nil
}

// updateDoc reads the document at key, applies mutate, and writes the
// result back under WATCH so a conflicting concurrent write forces a
// bounded retry with fresh state.
func (s *Store) updateDoc(ctx context.Context, key string, mutate func(doc any, exists bool) (any, error)) error {
	backoff := retry.WithMaxRetries(transactAttempts, retry.NewFibonacci(2*time.Millisecond))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			var doc any
			exists := false
			data, err := tx.Get(ctx, key).Bytes()
			switch {
			case errors.Is(err, redis.Nil):
			case err != nil:
				return err
			default:
				doc, err = decodeJSON(data)
				if err != nil {
					return err
				}
				exists = true
			}

			next, err := mutate(doc, exists)
			if err != nil {
				return err
			}
			out, err := json.Marshal(next)
			if err != nil {
				return fmt.Errorf("encode document: %w", err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, out, 0)
				return nil
			})
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// publish notifies the written path and every ancestor. Watchers listen
// on their own chain, so this covers both directions of the tree.
func (s *Store) publish(ctx context.Context, path string) {
	for _, p := range pathChain(path) {
		if err := s.client.Publish(ctx, chanPrefix+p, path).Err(); err != nil {
			s.logger.Error("publish change notification", "path", p, "error", err)
		}
	}
}
