package producer

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medtrack/notify/internal/domain"
)

// MessageLog abstracts the durable notification topic. The kafka package
// provides the production implementation; tests substitute a fake.
type MessageLog interface {
	Publish(msg *domain.NotificationMessage) error
}

// NotificationProducer builds typed notification messages from product
// events and publishes them to the message log. Publishing is
// fire-and-forget: every failure is logged here and never surfaces to
// the business operation that triggered the event.
type NotificationProducer struct {
	messages          MessageLog
	expiryWarningDays int
	now               func() time.Time
	logger            *zap.Logger
}

func New(messages MessageLog, expiryWarningDays int, now func() time.Time, logger *zap.Logger) *NotificationProducer {
	if now == nil {
		now = time.Now
	}
	return &NotificationProducer{
		messages:          messages,
		expiryWarningDays: expiryWarningDays,
		now:               now,
		logger:            logger,
	}
}

// Publish emits one notification of the given kind for the product.
// Required identity fields are always populated: absent owner data is
// replaced with placeholders rather than published empty.
//
// Expiry warnings are deferred by the configured warning window via
// scheduledAt; stock events are scheduled immediately.
func (p *NotificationProducer) Publish(kind domain.NotificationType, product *domain.Product) {
	now := p.now()

	msg := &domain.NotificationMessage{
		MessageID:         uuid.New().String(),
		CorrelationID:     fmt.Sprintf("%s-%d-%d", kind, product.ID, now.UnixMilli()),
		Type:              kind,
		ProductID:         product.ID,
		UserID:            product.OwnerID(),
		ProductName:       product.SafeName(),
		UserEmail:         product.SafeOwnerEmail(),
		UserName:          product.SafeOwnerName(),
		ExpiryDate:        product.ExpiryDate,
		ScheduledAt:       now,
		CreatedAt:         now,
		AvailableQuantity: product.AvailableQuantity,
	}

	unit := product.Unit
	if unit == "" {
		unit = "units"
	}

	switch kind {
	case domain.TypeExpiryWarning:
		msg.ScheduledAt = now.AddDate(0, 0, p.expiryWarningDays)
		msg.AdditionalInfo = fmt.Sprintf("Medicine expiring in %d days", p.expiryWarningDays)
	case domain.TypeLowStock:
		msg.ThresholdQuantity = product.ThresholdQuantity
		msg.AdditionalInfo = fmt.Sprintf("Stock low: %.1f %s remaining (threshold: %.1f %s)",
			product.AvailableQuantity, unit, product.ThresholdQuantity, unit)
	case domain.TypeOutOfStock:
		msg.AvailableQuantity = 0
		msg.ThresholdQuantity = product.ThresholdQuantity
		msg.AdditionalInfo = "Medicine is out of stock!"
	case domain.TypeReminder:
		msg.AdditionalInfo = fmt.Sprintf("Time to take %s", product.SafeName())
	}

	if err := p.messages.Publish(msg); err != nil {
		p.logger.Error("failed to publish notification",
			zap.String("type", string(kind)),
			zap.Int64("product_id", product.ID),
			zap.Error(err),
		)
		return
	}

	p.logger.Info("notification queued",
		zap.String("type", string(kind)),
		zap.Int64("product_id", product.ID),
		zap.String("correlation_id", msg.CorrelationID),
	)
}
