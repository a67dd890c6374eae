package livesync

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"shiftledger/internal/domain"
	"shiftledger/internal/events"
)

// StoreSource serves feeds in local mode: snapshots come from the durable
// event store plus whatever the process publishes in-memory for the other
// collections. Deliveries are serialized per source; a cancelled
// subscription's callback never fires again once Cancel returns.
type StoreSource struct {
	store  events.Store
	logger *slog.Logger

	mu        sync.Mutex
	snapshots map[string][]byte
	subs      map[string][]*storeSub
}

type storeSub struct {
	push      func([]byte)
	fail      func(error)
	cancelled atomic.Bool
}

func NewStoreSource(store events.Store, logger *slog.Logger) *StoreSource {
	return &StoreSource{
		store:     store,
		logger:    logger,
		snapshots: make(map[string][]byte),
		subs:      make(map[string][]*storeSub),
	}
}

// Subscribe registers the feed and immediately delivers the current
// snapshot, so an attach never leaves the projection empty while waiting for
// a first change.
func (s *StoreSource) Subscribe(path Path, push func([]byte), fail func(error)) (Cancel, error) {
	sub := &storeSub{push: push, fail: fail}
	key := path.String()

	s.mu.Lock()
	s.subs[key] = append(s.subs[key], sub)
	s.mu.Unlock()

	snapshot, err := s.currentSnapshot(path)
	if err != nil {
		sub.fail(err)
	} else if snapshot != nil {
		sub.push(snapshot)
	}

	return func() {
		sub.cancelled.Store(true)
		s.mu.Lock()
		defer s.mu.Unlock()
		list := s.subs[key]
		for i, held := range list {
			if held == sub {
				s.subs[key] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
	}, nil
}

// Publish replaces a feed's snapshot and fans it out. Local-mode payroll and
// confirmation updates come through here.
func (s *StoreSource) Publish(path Path, snapshot []byte) {
	key := path.String()

	s.mu.Lock()
	s.snapshots[key] = snapshot
	list := make([]*storeSub, len(s.subs[key]))
	copy(list, s.subs[key])
	s.mu.Unlock()

	for _, sub := range list {
		if sub.cancelled.Load() {
			continue
		}
		sub.push(snapshot)
	}
}

// RepublishEvents reloads the tenant's events from the store and pushes them
// to the events feed. The event-store decorator calls this after every write.
func (s *StoreSource) RepublishEvents(ctx context.Context, tenantID string) {
	path := Path{TenantID: tenantID, Collection: CollectionEvents}
	listed, err := s.store.List(ctx, tenantID)
	if err != nil {
		s.failFeed(path, err)
		return
	}
	snapshot, err := json.Marshal(listed)
	if err != nil {
		s.failFeed(path, err)
		return
	}
	s.Publish(path, snapshot)
}

// EventStore returns a Store decorator that republishes the events feed
// after every successful write, closing the local-mode loop.
func (s *StoreSource) EventStore() events.Store {
	return &republishingStore{inner: s.store, source: s}
}

func (s *StoreSource) currentSnapshot(path Path) ([]byte, error) {
	if path.Collection == CollectionEvents && path.PeriodID == "" {
		listed, err := s.store.List(context.Background(), path.TenantID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(listed)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshots[path.String()], nil
}

func (s *StoreSource) failFeed(path Path, err error) {
	key := path.String()
	s.mu.Lock()
	list := make([]*storeSub, len(s.subs[key]))
	copy(list, s.subs[key])
	s.mu.Unlock()

	for _, sub := range list {
		if sub.cancelled.Load() {
			continue
		}
		sub.fail(err)
	}
}

// republishingStore forwards to the inner store and republishes the events
// feed after each successful mutation.
type republishingStore struct {
	inner  events.Store
	source *StoreSource
}

func (r *republishingStore) Append(ctx context.Context, tenantID string, evs ...domain.TimeEvent) ([]domain.TimeEvent, error) {
	appended, err := r.inner.Append(ctx, tenantID, evs...)
	if err != nil {
		return nil, err
	}
	r.source.RepublishEvents(ctx, tenantID)
	return appended, nil
}

func (r *republishingStore) List(ctx context.Context, tenantID string) ([]domain.TimeEvent, error) {
	return r.inner.List(ctx, tenantID)
}

func (r *republishingStore) Remove(ctx context.Context, tenantID, id string) error {
	if err := r.inner.Remove(ctx, tenantID, id); err != nil {
		return err
	}
	r.source.RepublishEvents(ctx, tenantID)
	return nil
}

func (r *republishingStore) Patch(ctx context.Context, tenantID, id string, patch domain.EventPatch) (domain.TimeEvent, error) {
	patched, err := r.inner.Patch(ctx, tenantID, id, patch)
	if err != nil {
		return domain.TimeEvent{}, err
	}
	r.source.RepublishEvents(ctx, tenantID)
	return patched, nil
}
