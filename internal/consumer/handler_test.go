package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/medtrack/notify/internal/domain"
	"github.com/medtrack/notify/internal/mailer"
	"github.com/medtrack/notify/internal/ratelimiter"
)

// chanSink forwards every recorded result onto a channel so tests can
// wait for the asynchronous emission.
type chanSink struct {
	results chan domain.NotificationResult
}

func newChanSink() *chanSink {
	return &chanSink{results: make(chan domain.NotificationResult, 4)}
}

func (s *chanSink) Record(result domain.NotificationResult) { s.results <- result }

func (s *chanSink) wait(t *testing.T) domain.NotificationResult {
	t.Helper()
	select {
	case r := <-s.results:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("no result recorded")
		return domain.NotificationResult{}
	}
}

var handlerNow = time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)

const maxAttempts = 3

func newTestHandler(sender mailer.Sender, sink ResultSink) *Handler {
	return NewHandler(
		sender, sink, ratelimiter.New(100),
		maxAttempts, func() time.Time { return handlerNow },
		zap.NewNop(), Hooks{},
	)
}

func record(t *testing.T, msg domain.NotificationMessage) *sarama.ConsumerMessage {
	t.Helper()
	payload, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	return &sarama.ConsumerMessage{Topic: "medicine-notifications", Value: payload}
}

func message(typ domain.NotificationType) domain.NotificationMessage {
	return domain.NotificationMessage{
		MessageID:     "msg-1",
		CorrelationID: string(typ) + "-5-1700000000000",
		Type:          typ,
		ProductID:     5,
		ProductName:   "Aspirin",
		UserEmail:     "owner@example.com",
		ExpiryDate:    handlerNow.AddDate(0, 1, 0),
		ScheduledAt:   handlerNow.Add(-time.Hour),
		CreatedAt:     handlerNow.Add(-time.Hour),
	}
}

func TestHandleRecord_DispatchSuccess(t *testing.T) {
	sender := mailer.NewMockSender()
	sink := newChanSink()
	h := newTestHandler(sender, sink)

	h.handleRecord(context.Background(), record(t, message(domain.TypeExpiryWarning)))

	result := sink.wait(t)
	if !result.Success {
		t.Fatalf("expected success result, got error %q", result.ErrorMessage)
	}
	if result.MessageID != "msg-1" || result.ProcessingNode == "" {
		t.Fatalf("incomplete result: %+v", result)
	}

	sent := sender.Sent()
	if len(sent) != 1 || sent[0].Kind != "expiry" || sent[0].ProductID != 5 {
		t.Fatalf("unexpected sends: %+v", sent)
	}
}

func TestHandleRecord_DispatchByType(t *testing.T) {
	tests := []struct {
		typ  domain.NotificationType
		kind string
	}{
		{domain.TypeExpiryWarning, "expiry"},
		{domain.TypeLowStock, "low-stock"},
		{domain.TypeOutOfStock, "out-of-stock"},
		{domain.TypeReminder, "reminder"},
	}

	for _, tc := range tests {
		t.Run(string(tc.typ), func(t *testing.T) {
			sender := mailer.NewMockSender()
			sink := newChanSink()
			h := newTestHandler(sender, sink)

			h.handleRecord(context.Background(), record(t, message(tc.typ)))
			sink.wait(t)

			sent := sender.Sent()
			if len(sent) != 1 || sent[0].Kind != tc.kind {
				t.Fatalf("expected one %q send, got %+v", tc.kind, sent)
			}
		})
	}
}

// TestHandleRecord_FutureScheduledSkipped verifies a message scheduled
// for future delivery is skipped without a send but still leaves a
// result record, since nothing will ever re-deliver it.
func TestHandleRecord_FutureScheduledSkipped(t *testing.T) {
	sender := mailer.NewMockSender()
	sink := newChanSink()
	h := newTestHandler(sender, sink)

	msg := message(domain.TypeExpiryWarning)
	msg.ScheduledAt = handlerNow.Add(time.Hour)
	h.handleRecord(context.Background(), record(t, msg))

	result := sink.wait(t)
	if result.Success {
		t.Fatal("expected failure result for skipped message")
	}
	if !strings.Contains(result.ErrorMessage, "skipped") {
		t.Fatalf("errorMessage = %q", result.ErrorMessage)
	}
	if len(sender.Sent()) != 0 {
		t.Fatal("expected no send for a skipped message")
	}
}

func TestHandleRecord_InvalidMessageRejected(t *testing.T) {
	sender := mailer.NewMockSender()
	sink := newChanSink()
	h := newTestHandler(sender, sink)

	msg := message(domain.TypeLowStock)
	msg.ProductName = ""
	h.handleRecord(context.Background(), record(t, msg))

	result := sink.wait(t)
	if result.Success {
		t.Fatal("expected failure result for invalid message")
	}
	if !strings.Contains(result.ErrorMessage, "invalid message") {
		t.Fatalf("errorMessage = %q", result.ErrorMessage)
	}
	if len(sender.Sent()) != 0 {
		t.Fatal("expected no send for an invalid message")
	}
}

func TestHandleRecord_FailureWithinRetryBudget(t *testing.T) {
	sender := mailer.NewMockSender()
	sender.LowStockErr = errors.New("postmark 500")
	sink := newChanSink()
	h := newTestHandler(sender, sink)

	msg := message(domain.TypeLowStock)
	msg.RetryCount = 0
	h.handleRecord(context.Background(), record(t, msg))

	result := sink.wait(t)
	if result.Success {
		t.Fatal("expected failure result")
	}
	if !strings.Contains(result.ErrorMessage, "retry 1/3") {
		t.Fatalf("errorMessage = %q", result.ErrorMessage)
	}
}

func TestHandleRecord_PermanentFailureAtBudget(t *testing.T) {
	sender := mailer.NewMockSender()
	sender.LowStockErr = errors.New("postmark 500")
	sink := newChanSink()
	h := newTestHandler(sender, sink)

	msg := message(domain.TypeLowStock)
	msg.RetryCount = maxAttempts - 1
	h.handleRecord(context.Background(), record(t, msg))

	result := sink.wait(t)
	if !strings.Contains(result.ErrorMessage, "permanently failed after 3 attempts") {
		t.Fatalf("errorMessage = %q", result.ErrorMessage)
	}
}

// Undecodable payloads carry no identity, so no result is emitted.
func TestHandleRecord_UndecodablePayloadDropped(t *testing.T) {
	sender := mailer.NewMockSender()
	sink := newChanSink()
	h := newTestHandler(sender, sink)

	h.handleRecord(context.Background(), &sarama.ConsumerMessage{Value: []byte("{not json")})

	select {
	case r := <-sink.results:
		t.Fatalf("unexpected result for undecodable payload: %+v", r)
	case <-time.After(100 * time.Millisecond):
	}
	if len(sender.Sent()) != 0 {
		t.Fatal("expected no send for undecodable payload")
	}
}

func TestDispatch_UnknownTypeFails(t *testing.T) {
	h := newTestHandler(mailer.NewMockSender(), newChanSink())

	msg := message("smoke_signal")
	err := h.dispatch(context.Background(), &msg)
	if !errors.Is(err, domain.ErrUnknownNotification) {
		t.Fatalf("expected ErrUnknownNotification, got %v", err)
	}
}

func TestHooks_OnProcessedInvoked(t *testing.T) {
	sender := mailer.NewMockSender()
	sink := newChanSink()

	processed := make(chan bool, 1)
	h := NewHandler(
		sender, sink, ratelimiter.New(100),
		maxAttempts, func() time.Time { return handlerNow },
		zap.NewNop(), Hooks{
			OnProcessed: func(_ domain.NotificationType, success bool, _ time.Duration) {
				processed <- success
			},
		},
	)

	h.handleRecord(context.Background(), record(t, message(domain.TypeReminder)))

	select {
	case success := <-processed:
		if !success {
			t.Fatal("expected success hook invocation")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("OnProcessed hook not invoked")
	}
	sink.wait(t)
}
