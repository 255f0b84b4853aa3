package kafka

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"go.uber.org/zap"

	"github.com/medtrack/notify/internal/domain"
)

func testMessage() *domain.NotificationMessage {
	return &domain.NotificationMessage{
		MessageID:     "msg-1",
		CorrelationID: "low_stock-5-1700000000000",
		Type:          domain.TypeLowStock,
		ProductID:     5,
		ProductName:   "Aspirin",
		UserEmail:     "owner@example.com",
		CreatedAt:     time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestProducer_PublishPayload(t *testing.T) {
	async := mocks.NewAsyncProducer(t, newProducerConfig())
	async.ExpectInputWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got domain.NotificationMessage
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}
		if got.MessageID != "msg-1" || got.Type != domain.TypeLowStock {
			return errors.New("payload fields not preserved")
		}
		return nil
	})

	p := newProducer(async, "medicine-notifications", zap.NewNop())
	if err := p.Publish(testMessage()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

// TestProducer_TransportFailureNotReturned verifies the fire-and-forget
// contract: a broker-side failure surfaces only on the drain goroutine,
// never as a Publish error.
func TestProducer_TransportFailureNotReturned(t *testing.T) {
	async := mocks.NewAsyncProducer(t, newProducerConfig())
	async.ExpectInputAndFail(sarama.ErrOutOfBrokers)

	p := newProducer(async, "medicine-notifications", zap.NewNop())
	if err := p.Publish(testMessage()); err != nil {
		t.Fatalf("expected no synchronous error, got %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestProducerConfig_DeliveryContract(t *testing.T) {
	cfg := newProducerConfig()

	if cfg.Producer.RequiredAcks != sarama.WaitForAll {
		t.Fatal("primary topic must wait for the full ISR")
	}
	if !cfg.Producer.Idempotent {
		t.Fatal("producer must be idempotent")
	}
	if cfg.Net.MaxOpenRequests != 1 {
		t.Fatal("in-flight requests must be capped at 1 to preserve ordering")
	}
	if cfg.Producer.Retry.Max != 3 {
		t.Fatalf("retry max = %d, want 3", cfg.Producer.Retry.Max)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config does not validate: %v", err)
	}
}
