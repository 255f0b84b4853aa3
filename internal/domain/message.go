package domain

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// NotificationType discriminates the variants carried on the notification
// topic. The set is closed: the consumer dispatches with an exhaustive
// switch and treats anything else as a failed dispatch.
type NotificationType string

const (
	TypeExpiryWarning NotificationType = "expiry_warning"
	TypeLowStock      NotificationType = "low_stock"
	TypeOutOfStock    NotificationType = "out_of_stock"
	TypeReminder      NotificationType = "reminder"
)

func (t NotificationType) IsValid() bool {
	switch t {
	case TypeExpiryWarning, TypeLowStock, TypeOutOfStock, TypeReminder:
		return true
	}
	return false
}

// NotificationMessage is the broker payload for the notification topic.
//
// MessageID is unique per publish attempt; CorrelationID is stable across
// all delivery attempts of one logical event and doubles as the partition
// key. The identity fields (MessageID, Type, ProductID, UserEmail,
// ProductName) are never empty at publish time; the producer substitutes
// placeholders rather than omit them.
type NotificationMessage struct {
	MessageID     string           `json:"messageId"`
	CorrelationID string           `json:"correlationId"`
	Type          NotificationType `json:"type"`
	ProductID     int64            `json:"productId"`
	UserID        int64            `json:"userId,omitempty"`
	ProductName   string           `json:"productName"`
	UserEmail     string           `json:"userEmail"`
	UserName      string           `json:"userName,omitempty"`

	ExpiryDate  time.Time `json:"expiryDate,omitempty"`
	ScheduledAt time.Time `json:"scheduledAt,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`

	RetryCount        int     `json:"retryCount"`
	AvailableQuantity float64 `json:"availableQuantity,omitempty"`
	ThresholdQuantity float64 `json:"thresholdQuantity,omitempty"`
	AdditionalInfo    string  `json:"additionalInfo,omitempty"`
}

// Validate checks the required identity fields. An invalid message is
// dropped by the consumer with a failure result, never retried.
func (m NotificationMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.MessageID, validation.Required.Error("messageId is required")),
		validation.Field(&m.Type, validation.Required, validation.In(
			TypeExpiryWarning, TypeLowStock, TypeOutOfStock, TypeReminder,
		).Error("unknown notification type")),
		validation.Field(&m.ProductID, validation.Required.Error("productId is required")),
		validation.Field(&m.UserEmail, validation.Required.Error("userEmail is required")),
		validation.Field(&m.ProductName, validation.Required.Error("productName is required")),
	)
}

// NotificationResult records the outcome of one consume attempt. It is
// written to the results topic for observability and never read back.
type NotificationResult struct {
	MessageID        string    `json:"messageId"`
	CorrelationID    string    `json:"correlationId"`
	Success          bool      `json:"success"`
	ErrorMessage     string    `json:"errorMessage,omitempty"`
	ProcessedAt      time.Time `json:"processedAt"`
	ProcessingNode   string    `json:"processingNode"`
	ProcessingTimeMs int64     `json:"processingTimeMs"`
}
