package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/medtrack/notify/internal/domain"
	"github.com/medtrack/notify/internal/repository"
)

// defaultThresholdRatio sets thresholdQuantity when a create request
// leaves it out: 10% of the total quantity.
const defaultThresholdRatio = 0.1

// ExpirySchedule is the slice of the scheduler the service needs.
type ExpirySchedule interface {
	Schedule(p *domain.Product) bool
	Update(p *domain.Product) bool
	Remove(productID int64) bool
}

// Notifier publishes one notification of the given kind for a product.
// Implementations are fire-and-forget and never return an error.
type Notifier interface {
	Publish(kind domain.NotificationType, product *domain.Product)
}

// Clock supplies the current time in the service's fixed zone.
type Clock interface {
	Now() time.Time
}

// ProductService implements the product lifecycle operations that feed
// the notification pipeline. Every operation commits its state change
// through the repository first and emits events after; scheduler and
// producer failures are absorbed here and never fail the business call.
type ProductService struct {
	repo     repository.ProductRepository
	expiry   ExpirySchedule
	notifier Notifier
	clock    Clock
	logger   *zap.Logger
}

func NewProductService(
	repo repository.ProductRepository,
	expiry ExpirySchedule,
	notifier Notifier,
	clock Clock,
	logger *zap.Logger,
) *ProductService {
	return &ProductService{
		repo:     repo,
		expiry:   expiry,
		notifier: notifier,
		clock:    clock,
		logger:   logger,
	}
}

// OnProductCreated validates and persists a new product, then registers
// its expiry task and publishes the expiry warning.
func (s *ProductService) OnProductCreated(ctx context.Context, req *domain.CreateProductRequest) (*domain.Product, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	threshold := req.TotalQuantity * defaultThresholdRatio
	if req.ThresholdQuantity != nil && *req.ThresholdQuantity > 0 {
		threshold = *req.ThresholdQuantity
	}

	p := &domain.Product{
		Name:              req.Name,
		TotalQuantity:     req.TotalQuantity,
		AvailableQuantity: req.TotalQuantity,
		ThresholdQuantity: threshold,
		DoseQuantity:      req.DoseQuantity,
		Unit:              req.Unit,
		ExpiryDate:        req.ExpiryDate,
		Owner:             &domain.Owner{ID: req.UserID},
		CreatedAt:         s.clock.Now(),
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	if !s.expiry.Schedule(p) {
		s.logger.Warn("product not scheduled for expiry alerts",
			zap.Int64("product_id", p.ID),
			zap.Time("expiry_date", p.ExpiryDate),
		)
	}
	s.notifier.Publish(domain.TypeExpiryWarning, p)

	return p, nil
}

// OnProductUpdated persists the changed product, re-schedules its
// expiry task and re-publishes the expiry warning.
func (s *ProductService) OnProductUpdated(ctx context.Context, p *domain.Product) error {
	if err := s.repo.Update(ctx, p); err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	s.expiry.Update(p)
	s.notifier.Publish(domain.TypeExpiryWarning, p)
	return nil
}

// OnProductDeleted removes the product and withdraws its expiry task.
func (s *ProductService) OnProductDeleted(ctx context.Context, productID int64) error {
	if err := s.repo.Delete(ctx, productID); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	s.expiry.Remove(productID)
	return nil
}

// OnLowStockQueried returns the user's unexpired products at or below
// their threshold and publishes a low stock notification for each.
func (s *ProductService) OnLowStockQueried(ctx context.Context, userID int64) ([]*domain.Product, error) {
	products, err := s.repo.FindLowStock(ctx, userID, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("find low stock products: %w", err)
	}

	for _, p := range products {
		s.notifier.Publish(domain.TypeLowStock, p)
	}
	return products, nil
}

// Products returns all of the user's tracked products.
func (s *ProductService) Products(ctx context.Context, userID int64) ([]*domain.Product, error) {
	return s.repo.ListByUser(ctx, userID)
}

// OnUsageRecorded decrements the product's available quantity by one
// dose, clamped at zero, and publishes the matching stock notification.
// A product that hits zero gets exactly one out of stock notification;
// a product still above zero but at or below its threshold gets a low
// stock notification.
func (s *ProductService) OnUsageRecorded(ctx context.Context, productID int64) (*domain.Product, error) {
	p, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if p.AvailableQuantity <= 0 {
		return nil, domain.ErrInsufficientQuantity
	}

	remaining := p.AvailableQuantity - p.DoseQuantity
	if remaining < 0 {
		remaining = 0
	}

	if err := s.repo.UpdateAvailableQuantity(ctx, productID, remaining); err != nil {
		return nil, fmt.Errorf("record usage: %w", err)
	}
	p.AvailableQuantity = remaining

	switch {
	case remaining <= 0:
		s.notifier.Publish(domain.TypeOutOfStock, p)
	case remaining <= p.ThresholdQuantity:
		s.notifier.Publish(domain.TypeLowStock, p)
	}

	return p, nil
}
