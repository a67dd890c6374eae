package payroll

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"shiftledger/internal/domain"
	"shiftledger/pkg/platform/sentinel"
)

// InMemoryStore backs local mode and tests.
type InMemoryStore struct {
	mu            sync.RWMutex
	periods       map[string]map[string]domain.PayrollPeriod        // tenantID -> periodID -> period
	confirmations map[string]map[string]domain.PayrollConfirmation  // tenantID/periodID -> doc key -> confirmation
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		periods:       make(map[string]map[string]domain.PayrollPeriod),
		confirmations: make(map[string]map[string]domain.PayrollConfirmation),
	}
}

func confirmationsBucket(tenantID, periodID string) string {
	return tenantID + "/" + periodID
}

func (s *InMemoryStore) CreatePeriod(_ context.Context, period domain.PayrollPeriod) (domain.PayrollPeriod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if period.ID == "" {
		period.ID = uuid.NewString()
	}
	if period.Revision < 1 {
		period.Revision = 1
	}
	tenant, ok := s.periods[period.TenantID]
	if !ok {
		tenant = make(map[string]domain.PayrollPeriod)
		s.periods[period.TenantID] = tenant
	}
	if _, exists := tenant[period.ID]; exists {
		return domain.PayrollPeriod{}, sentinel.ErrConflict
	}
	tenant[period.ID] = period
	return period, nil
}

func (s *InMemoryStore) GetPeriod(_ context.Context, tenantID, id string) (domain.PayrollPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	period, ok := s.periods[tenantID][id]
	if !ok {
		return domain.PayrollPeriod{}, sentinel.ErrNotFound
	}
	return period, nil
}

func (s *InMemoryStore) ListPeriods(_ context.Context, tenantID string) ([]domain.PayrollPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	listed := make([]domain.PayrollPeriod, 0, len(s.periods[tenantID]))
	for _, period := range s.periods[tenantID] {
		listed = append(listed, period)
	}
	sort.Slice(listed, func(i, j int) bool {
		if !listed[i].StartDate.Equal(listed[j].StartDate) {
			return listed[i].StartDate.Before(listed[j].StartDate)
		}
		return listed[i].ID < listed[j].ID
	})
	return listed, nil
}

func (s *InMemoryStore) BumpRevision(_ context.Context, tenantID, id string) (domain.PayrollPeriod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	period, ok := s.periods[tenantID][id]
	if !ok {
		return domain.PayrollPeriod{}, sentinel.ErrNotFound
	}
	period.Revision++
	s.periods[tenantID][id] = period
	return period, nil
}

func (s *InMemoryStore) PutConfirmation(_ context.Context, tenantID, periodID string, confirmation domain.PayrollConfirmation) (domain.PayrollConfirmation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.periods[tenantID][periodID]; !ok {
		return domain.PayrollConfirmation{}, sentinel.ErrNotFound
	}
	confirmation.PeriodID = periodID
	bucket := confirmationsBucket(tenantID, periodID)
	docs, ok := s.confirmations[bucket]
	if !ok {
		docs = make(map[string]domain.PayrollConfirmation)
		s.confirmations[bucket] = docs
	}
	docs[ConfirmationKey(confirmation.EmployeeID, confirmation.Revision)] = confirmation
	return confirmation, nil
}

func (s *InMemoryStore) ListConfirmations(_ context.Context, tenantID, periodID string) ([]domain.PayrollConfirmation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := s.confirmations[confirmationsBucket(tenantID, periodID)]
	keys := make([]string, 0, len(docs))
	for key := range docs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	listed := make([]domain.PayrollConfirmation, 0, len(keys))
	for _, key := range keys {
		listed = append(listed, docs[key])
	}
	return listed, nil
}
