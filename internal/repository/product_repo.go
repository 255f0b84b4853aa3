package repository

import (
	"context"
	"time"

	"github.com/medtrack/notify/internal/domain"
)

// ProductRepository defines all persistence operations for health products.
// The pgx implementation is in pg_product_repo.go.
// Tests use a hand-written mock (mock_product_repo.go).
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id int64) error
	ListByUser(ctx context.Context, userID int64) ([]*domain.Product, error)

	// FindLowStock returns the user's unexpired products whose available
	// quantity is at or below their threshold.
	FindLowStock(ctx context.Context, userID int64, today time.Time) ([]*domain.Product, error)

	UpdateAvailableQuantity(ctx context.Context, id int64, quantity float64) error
}
