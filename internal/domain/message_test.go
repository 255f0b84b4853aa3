package domain_test

import (
	"strings"
	"testing"
	"time"

	"github.com/medtrack/notify/internal/domain"
)

func validMessage() domain.NotificationMessage {
	return domain.NotificationMessage{
		MessageID:     "msg-1",
		CorrelationID: "expiry_warning-1-1700000000000",
		Type:          domain.TypeExpiryWarning,
		ProductID:     1,
		ProductName:   "Aspirin",
		UserEmail:     "user@example.com",
		CreatedAt:     time.Now(),
	}
}

func TestNotificationMessage_Validate(t *testing.T) {
	if err := validMessage().Validate(); err != nil {
		t.Fatalf("valid message rejected: %v", err)
	}
}

func TestNotificationMessage_Validate_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *domain.NotificationMessage)
		want   string
	}{
		{"missing messageId", func(m *domain.NotificationMessage) { m.MessageID = "" }, "messageId"},
		{"missing type", func(m *domain.NotificationMessage) { m.Type = "" }, "type"},
		{"unknown type", func(m *domain.NotificationMessage) { m.Type = "carrier_pigeon" }, "type"},
		{"missing productId", func(m *domain.NotificationMessage) { m.ProductID = 0 }, "productId"},
		{"missing userEmail", func(m *domain.NotificationMessage) { m.UserEmail = "" }, "userEmail"},
		{"missing productName", func(m *domain.NotificationMessage) { m.ProductName = "" }, "productName"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := validMessage()
			tc.mutate(&m)
			err := m.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestNotificationType_IsValid(t *testing.T) {
	for _, typ := range []domain.NotificationType{
		domain.TypeExpiryWarning, domain.TypeLowStock, domain.TypeOutOfStock, domain.TypeReminder,
	} {
		if !typ.IsValid() {
			t.Fatalf("expected %q to be valid", typ)
		}
	}
	if domain.NotificationType("smoke_signal").IsValid() {
		t.Fatal("expected unknown type to be invalid")
	}
}
