package repository

import (
	"context"
	"sync"
	"time"

	"github.com/medtrack/notify/internal/domain"
)

// MockProductRepository is a hand-written, in-memory implementation of
// ProductRepository used in unit tests. No mock-generation library needed.
type MockProductRepository struct {
	mu       sync.RWMutex
	products map[int64]*domain.Product
	nextID   int64

	// Optional error overrides, set in tests to simulate failure paths.
	CreateErr  error
	GetByIDErr error
	UpdateErr  error
}

func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[int64]*domain.Product),
		nextID:   1,
	}
}

func (m *MockProductRepository) Create(_ context.Context, p *domain.Product) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == 0 {
		p.ID = m.nextID
		m.nextID++
	}
	clone := *p
	m.products[p.ID] = &clone
	return nil
}

func (m *MockProductRepository) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	if m.GetByIDErr != nil {
		return nil, m.GetByIDErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	clone := *p
	return &clone, nil
}

func (m *MockProductRepository) Update(_ context.Context, p *domain.Product) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.ID]; !ok {
		return domain.ErrProductNotFound
	}
	clone := *p
	m.products[p.ID] = &clone
	return nil
}

func (m *MockProductRepository) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *MockProductRepository) ListByUser(_ context.Context, userID int64) ([]*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Product
	for _, p := range m.products {
		if p.OwnerID() == userID {
			clone := *p
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (m *MockProductRepository) FindLowStock(_ context.Context, userID int64, today time.Time) ([]*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Product
	for _, p := range m.products {
		if p.OwnerID() == userID &&
			p.AvailableQuantity <= p.ThresholdQuantity &&
			!p.ExpiryDate.Before(today) {
			clone := *p
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (m *MockProductRepository) UpdateAvailableQuantity(_ context.Context, id int64, quantity float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.AvailableQuantity = quantity
	return nil
}

var _ ProductRepository = (*MockProductRepository)(nil)
