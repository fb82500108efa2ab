package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// maxSwapAttempts bounds the compare-and-swap retry loop in Update.
const maxSwapAttempts = 5

// Listener receives the new raw document for a key. raw is nil when the key
// was removed.
type Listener func(key string, raw []byte)

// Store is the in-process view over a Backend. It remembers the last value
// written in this session, so a failed persist never loses the caller's state,
// and fans writes out to subscribers.
type Store struct {
	backend Backend
	log     *zap.Logger

	mu    sync.Mutex
	cache map[string][]byte

	// dirty marks keys whose latest session value never reached the backend.
	// epoch counts local changes per key so Refresh can drop a stale load.
	dirty map[string]bool
	epoch map[string]uint64

	subs    map[string]map[uint64]Listener
	nextID  uint64
	closers []io.Closer
}

// New returns a Store over backend. A nil log discards diagnostics.
func New(backend Backend, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		backend: backend,
		log:     log,
		cache:   make(map[string][]byte),
		dirty:   make(map[string]bool),
		epoch:   make(map[string]uint64),
		subs:    make(map[string]map[uint64]Listener),
	}
}

// Read returns the value stored under key decoded as T, or fallback when the
// key is absent, the backend is unavailable, or the document is corrupt.
func Read[T any](ctx context.Context, s *Store, key string, fallback T) T {
	raw, ok := s.raw(ctx, key)
	if !ok {
		return fallback
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		s.log.Warn("corrupt storage entry, using fallback", zap.String("key", key), zap.Error(err))
		return fallback
	}
	return v
}

// Write serializes value and persists it under key. Failures are logged and
// swallowed; the value remains visible to Read for the rest of the session.
func (s *Store) Write(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		s.log.Warn("dropping write: encode failed", zap.String("key", key), zap.Error(err))
		return
	}

	s.mu.Lock()
	s.cache[key] = raw
	s.epoch[key]++
	persisted := s.save(ctx, key, raw)
	s.dirty[key] = !persisted
	listeners := s.listeners(key)
	s.mu.Unlock()

	if persisted {
		notify(listeners, key, raw)
	}
}

// Update applies fn to the current value of key and stores the result when
// fn reports a change. The current value is re-read from the backend and,
// when the backend is a Swapper, written back with compare-and-swap so an
// interleaved writer from another process is never silently overwritten.
// Update returns the value it stored, or the current value when fn made no
// change.
func Update[T any](ctx context.Context, s *Store, key string, fallback T, fn func(T) (T, bool)) (T, bool) {
	var (
		result  T
		changed bool
	)
	s.modify(ctx, key, func(current []byte) ([]byte, bool) {
		v := fallback
		if current != nil {
			var decoded T
			if err := json.Unmarshal(current, &decoded); err != nil {
				s.log.Warn("corrupt storage entry, using fallback", zap.String("key", key), zap.Error(err))
			} else {
				v = decoded
			}
		}
		result, changed = fn(v)
		if !changed {
			return nil, false
		}
		raw, err := json.Marshal(result)
		if err != nil {
			s.log.Warn("dropping write: encode failed", zap.String("key", key), zap.Error(err))
			changed = false
			return nil, false
		}
		return raw, true
	})
	return result, changed
}

// modify runs the read-modify-write cycle for key under the store lock.
func (s *Store) modify(ctx context.Context, key string, apply func(current []byte) ([]byte, bool)) {
	s.mu.Lock()

	var (
		next      []byte
		persisted bool
	)
	for attempt := 1; ; attempt++ {
		current, fresh := s.current(ctx, key)
		out, ok := apply(current)
		if !ok {
			s.mu.Unlock()
			return
		}
		next = out

		swapper, canSwap := s.backend.(Swapper)
		if !canSwap || !fresh {
			persisted = s.save(ctx, key, next)
			break
		}
		swapped, err := swapper.CompareAndSwap(ctx, key, current, next)
		if err != nil {
			s.log.Warn("persist failed, keeping in-memory value", zap.String("key", key), zap.Error(err))
			break
		}
		if swapped {
			persisted = true
			break
		}
		if attempt == maxSwapAttempts {
			s.log.Warn("persist abandoned after concurrent modifications",
				zap.String("key", key), zap.Int("attempts", attempt))
			break
		}
		s.log.Debug("concurrent modification, retrying", zap.String("key", key), zap.Int("attempt", attempt))
	}

	s.cache[key] = next
	s.epoch[key]++
	s.dirty[key] = !persisted
	listeners := s.listeners(key)
	s.mu.Unlock()

	if persisted {
		notify(listeners, key, next)
	}
}

// Remove deletes key from the backend and from the session cache.
func (s *Store) Remove(ctx context.Context, key string) {
	s.mu.Lock()
	delete(s.cache, key)
	delete(s.dirty, key)
	s.epoch[key]++
	err := s.backend.Delete(ctx, key)
	listeners := s.listeners(key)
	s.mu.Unlock()

	if err != nil {
		s.log.Warn("remove failed", zap.String("key", key), zap.Error(err))
		return
	}
	notify(listeners, key, nil)
}

// Refresh reloads key from the backend and notifies subscribers when the
// stored document differs from what this session last saw. It is how
// writes made by another process become visible here. A load that
// overlaps a local change of key is discarded, since the local value is newer.
func (s *Store) Refresh(ctx context.Context, key string) {
	s.mu.Lock()
	epoch := s.epoch[key]
	s.mu.Unlock()

	raw, err := s.backend.Load(ctx, key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		s.log.Warn("refresh failed", zap.String("key", key), zap.Error(err))
		return
	}

	s.mu.Lock()
	if s.epoch[key] != epoch {
		s.mu.Unlock()
		s.log.Debug("refresh raced a local change, skipping", zap.String("key", key))
		return
	}
	cached, had := s.cache[key]
	if s.dirty[key] || (had && bytes.Equal(cached, raw)) {
		s.mu.Unlock()
		return
	}
	s.epoch[key]++
	if raw == nil {
		delete(s.cache, key)
	} else {
		s.cache[key] = raw
	}
	listeners := s.listeners(key)
	s.mu.Unlock()

	notify(listeners, key, raw)
}

// Subscribe registers fn for changes to key. The returned function removes
// the subscription.
func (s *Store) Subscribe(key string, fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	if s.subs[key] == nil {
		s.subs[key] = make(map[uint64]Listener)
	}
	s.subs[key][id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs[key], id)
	}
}

// Watch is a typed Subscribe. Documents that fail to decode, and removals,
// are delivered as fallback.
func Watch[T any](s *Store, key string, fallback T, fn func(T)) func() {
	return s.Subscribe(key, func(_ string, raw []byte) {
		if raw == nil {
			fn(fallback)
			return
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			s.log.Warn("corrupt storage entry, using fallback", zap.String("key", key), zap.Error(err))
			fn(fallback)
			return
		}
		fn(v)
	})
}

// CloseWith registers c to be closed, in reverse order, by Close.
func (s *Store) CloseWith(c io.Closer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closers = append(s.closers, c)
}

// Close releases everything registered with CloseWith, then the backend if
// it holds resources.
func (s *Store) Close() error {
	s.mu.Lock()
	closers := s.closers
	s.closers = nil
	s.mu.Unlock()

	var err error
	for i := len(closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, closers[i].Close())
	}
	if c, ok := s.backend.(io.Closer); ok {
		err = multierr.Append(err, c.Close())
	}
	return err
}

// raw returns the session value for key, falling back to the backend.
func (s *Store) raw(ctx context.Context, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.cache[key]; ok {
		return v, true
	}
	v, err := s.backend.Load(ctx, key)
	switch {
	case err == nil:
		s.cache[key] = v
		return v, true
	case errors.Is(err, ErrNotFound):
		return nil, false
	default:
		s.log.Warn("storage unavailable, using fallback", zap.String("key", key), zap.Error(err))
		return nil, false
	}
}

// current loads key from the backend for a read-modify-write. fresh is false
// when the session cache was used instead: either the last write of key never
// persisted, or the backend could not be read. Callers hold s.mu.
func (s *Store) current(ctx context.Context, key string) (raw []byte, fresh bool) {
	if s.dirty[key] {
		return s.cache[key], false
	}
	v, err := s.backend.Load(ctx, key)
	switch {
	case err == nil:
		return v, true
	case errors.Is(err, ErrNotFound):
		return nil, true
	default:
		s.log.Warn("storage unavailable, using session value", zap.String("key", key), zap.Error(err))
		return s.cache[key], false
	}
}

// save persists raw and reports success. Callers hold s.mu.
func (s *Store) save(ctx context.Context, key string, raw []byte) bool {
	if err := s.backend.Save(ctx, key, raw); err != nil {
		s.log.Warn("persist failed, keeping in-memory value", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// listeners snapshots the subscribers of key in registration order.
// Callers hold s.mu.
func (s *Store) listeners(key string) []Listener {
	subs := s.subs[key]
	if len(subs) == 0 {
		return nil
	}
	ids := make([]uint64, 0, len(subs))
	for id := range subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]Listener, 0, len(ids))
	for _, id := range ids {
		out = append(out, subs[id])
	}
	return out
}

func notify(listeners []Listener, key string, raw []byte) {
	for _, fn := range listeners {
		fn(key, raw)
	}
}
