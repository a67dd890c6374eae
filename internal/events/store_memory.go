package events

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"shiftledger/internal/domain"
	"shiftledger/pkg/platform/sentinel"
)

// InMemoryStore keeps the local-mode implementation lightweight and testable.
// It intentionally favors clarity over performance.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string][]domain.TimeEvent // tenantID -> events
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[string][]domain.TimeEvent)}
}

func (s *InMemoryStore) Append(_ context.Context, tenantID string, events ...domain.TimeEvent) ([]domain.TimeEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	appended := make([]domain.TimeEvent, 0, len(events))
	for _, ev := range events {
		if ev.ID == "" {
			ev.ID = uuid.NewString()
		}
		ev.TenantID = tenantID
		s.events[tenantID] = append(s.events[tenantID], ev)
		appended = append(appended, ev)
	}
	return appended, nil
}

func (s *InMemoryStore) List(_ context.Context, tenantID string) ([]domain.TimeEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.TimeEvent, len(s.events[tenantID]))
	copy(out, s.events[tenantID])
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}

func (s *InMemoryStore) Remove(_ context.Context, tenantID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.events[tenantID]
	for i, ev := range list {
		if ev.ID == id {
			s.events[tenantID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return sentinel.ErrNotFound
}

func (s *InMemoryStore) Patch(_ context.Context, tenantID, id string, patch domain.EventPatch) (domain.TimeEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.events[tenantID]
	for i := range list {
		if list[i].ID != id {
			continue
		}
		// Only late-arriving fields are patchable; action, employee and
		// timestamp stay immutable by construction.
		if patch.Note != nil {
			list[i].Note = *patch.Note
		}
		if patch.Lat != nil {
			list[i].Lat = patch.Lat
		}
		if patch.Lng != nil {
			list[i].Lng = patch.Lng
		}
		return list[i], nil
	}
	return domain.TimeEvent{}, sentinel.ErrNotFound
}
