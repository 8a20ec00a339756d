package rtdb

import (
	"context"
	"encoding/json"
	"sync"
)

// watchBuffer absorbs bursts of rapid writes; consumers that fall behind
// still receive a full snapshot per notification, so buffered snapshots
// are never diffs.
const watchBuffer = 8

// Watch delivers full JSON snapshots of the value at path: one
// immediately, then one per committed write to the path, an ancestor, or
// a descendant. Delivery is at-least-once; rapid successive writes may
// each produce a snapshot reflecting the latest state. An absent value
// is delivered as JSON null.
//
// The returned stop function deregisters the subscription; it is safe to
// call more than once. The snapshot channel is closed after stop or when
// ctx is done.
func (s *Store) Watch(ctx context.Context, path string) (<-chan json.RawMessage, func(), error) {
	if _, err := splitPath(path); err != nil {
		return nil, nil, err
	}

	channels := make([]string, 0, 4)
	for _, p := range pathChain(path) {
		channels = append(channels, chanPrefix+p)
	}

	pubsub := s.client.Subscribe(ctx, channels...)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			pubsub.Close()
		})
	}

	snapshots := make(chan json.RawMessage, watchBuffer)
	go func() {
		defer close(snapshots)

		if !s.emit(ctx, path, snapshots) {
			return
		}
		notifications := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-notifications:
				if !ok {
					return
				}
				if !s.emit(ctx, path, snapshots) {
					return
				}
			}
		}
	}()

	return snapshots, stop, nil
}

// emit reads the current value and sends it as a snapshot. It returns
// false when the watch is shutting down.
func (s *Store) emit(ctx context.Context, path string, out chan<- json.RawMessage) bool {
	raw, ok, err := s.ReadRaw(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		s.logger.Error("read watched path", "path", path, "error", err)
		return true
	}
	if !ok {
		raw = json.RawMessage("null")
	}
	select {
	case out <- raw:
		return true
	case <-ctx.Done():
		return false
	}
}
