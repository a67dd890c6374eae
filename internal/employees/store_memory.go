package employees

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"shiftledger/internal/domain"
	"shiftledger/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	records  map[string]map[string]domain.Employee
	requests map[string]map[string]domain.EmployeeUpdateRequest
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records:  make(map[string]map[string]domain.Employee),
		requests: make(map[string]map[string]domain.EmployeeUpdateRequest),
	}
}

func (s *InMemoryStore) CreateEmployee(_ context.Context, tenantID string, employee domain.Employee) (domain.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if employee.ID == "" {
		employee.ID = uuid.NewString()
	}
	tenant, ok := s.records[tenantID]
	if !ok {
		tenant = make(map[string]domain.Employee)
		s.records[tenantID] = tenant
	}
	if _, exists := tenant[employee.ID]; exists {
		return domain.Employee{}, sentinel.ErrConflict
	}
	tenant[employee.ID] = employee
	return employee, nil
}

func (s *InMemoryStore) GetEmployee(_ context.Context, tenantID, id string) (domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	employee, ok := s.records[tenantID][id]
	if !ok {
		return domain.Employee{}, sentinel.ErrNotFound
	}
	return employee, nil
}

func (s *InMemoryStore) ListEmployees(_ context.Context, tenantID string) ([]domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	listed := make([]domain.Employee, 0, len(s.records[tenantID]))
	for _, employee := range s.records[tenantID] {
		listed = append(listed, employee)
	}
	sort.Slice(listed, func(i, j int) bool { return listed[i].Name < listed[j].Name })
	return listed, nil
}

func (s *InMemoryStore) UpdateEmployee(_ context.Context, tenantID string, employee domain.Employee) (domain.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[tenantID][employee.ID]; !ok {
		return domain.Employee{}, sentinel.ErrNotFound
	}
	s.records[tenantID][employee.ID] = employee
	return employee, nil
}

func (s *InMemoryStore) CreateUpdateRequest(_ context.Context, tenantID string, request domain.EmployeeUpdateRequest) (domain.EmployeeUpdateRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	tenant, ok := s.requests[tenantID]
	if !ok {
		tenant = make(map[string]domain.EmployeeUpdateRequest)
		s.requests[tenantID] = tenant
	}
	if _, exists := tenant[request.ID]; exists {
		return domain.EmployeeUpdateRequest{}, sentinel.ErrConflict
	}
	tenant[request.ID] = request
	return request, nil
}

func (s *InMemoryStore) GetUpdateRequest(_ context.Context, tenantID, id string) (domain.EmployeeUpdateRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	request, ok := s.requests[tenantID][id]
	if !ok {
		return domain.EmployeeUpdateRequest{}, sentinel.ErrNotFound
	}
	return request, nil
}

func (s *InMemoryStore) ListUpdateRequests(_ context.Context, tenantID string) ([]domain.EmployeeUpdateRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	listed := make([]domain.EmployeeUpdateRequest, 0, len(s.requests[tenantID]))
	for _, request := range s.requests[tenantID] {
		listed = append(listed, request)
	}
	sort.Slice(listed, func(i, j int) bool {
		if !listed[i].RequestedAt.Equal(listed[j].RequestedAt) {
			return listed[i].RequestedAt.Before(listed[j].RequestedAt)
		}
		return listed[i].ID < listed[j].ID
	})
	return listed, nil
}

func (s *InMemoryStore) SaveUpdateRequest(_ context.Context, tenantID string, request domain.EmployeeUpdateRequest) (domain.EmployeeUpdateRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[tenantID][request.ID]; !ok {
		return domain.EmployeeUpdateRequest{}, sentinel.ErrNotFound
	}
	s.requests[tenantID][request.ID] = request
	return request, nil
}
