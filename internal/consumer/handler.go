package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/medtrack/notify/internal/domain"
	"github.com/medtrack/notify/internal/mailer"
	"github.com/medtrack/notify/internal/ratelimiter"
)

// ResultSink records the outcome of every consumed message. Emission is
// best-effort and asynchronous; the sink must swallow its own failures.
type ResultSink interface {
	Record(result domain.NotificationResult)
}

// Hooks carries the metric callback injected by main. Using a struct
// keeps the handler constructor signature clean.
type Hooks struct {
	OnProcessed func(t domain.NotificationType, success bool, latency time.Duration)
}

// Handler processes notification messages claimed from the log. It
// implements sarama.ConsumerGroupHandler, so each assigned partition
// gets its own ConsumeClaim goroutine.
//
// Every delivered message is acknowledged exactly once, whatever the
// outcome: future-scheduled messages are skipped, invalid ones dropped
// and failed dispatches logged against the retry budget, but none of
// them are ever re-queued by the consumer itself. The only trace of a
// lost notification is its result record.
type Handler struct {
	sender  mailer.Sender
	results ResultSink
	limiter *ratelimiter.TypeLimiters

	maxRetryAttempts int
	node             string
	now              func() time.Time
	logger           *zap.Logger
	hooks            Hooks
}

func NewHandler(
	sender mailer.Sender,
	results ResultSink,
	limiter *ratelimiter.TypeLimiters,
	maxRetryAttempts int,
	now func() time.Time,
	logger *zap.Logger,
	hooks Hooks,
) *Handler {
	if now == nil {
		now = time.Now
	}
	if hooks.OnProcessed == nil {
		hooks.OnProcessed = func(domain.NotificationType, bool, time.Duration) {}
	}
	return &Handler{
		sender:           sender,
		results:          results,
		limiter:          limiter,
		maxRetryAttempts: maxRetryAttempts,
		node:             nodeID(),
		now:              now,
		logger:           logger,
		hooks:            hooks,
	}
}

func (h *Handler) Setup(session sarama.ConsumerGroupSession) error {
	h.logger.Info("consumer session starting",
		zap.Any("claims", session.Claims()),
		zap.String("member_id", session.MemberID()),
	)
	return nil
}

func (h *Handler) Cleanup(sarama.ConsumerGroupSession) error {
	h.logger.Info("consumer session ending")
	return nil
}

// ConsumeClaim is one partition worker. Each message is processed, then
// marked and committed immediately so the offset never advances past an
// undecided message.
func (h *Handler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for rec := range claim.Messages() {
		h.handleRecord(session.Context(), rec)
		session.MarkMessage(rec, "")
		session.Commit()
	}
	return nil
}

// handleRecord runs one message through the state machine:
// Received -> {Skipped | Rejected | Dispatched} -> ResultEmitted -> Acked.
func (h *Handler) handleRecord(ctx context.Context, rec *sarama.ConsumerMessage) {
	start := time.Now()

	var msg domain.NotificationMessage
	if err := json.Unmarshal(rec.Value, &msg); err != nil {
		// Undecodable payloads carry no identity to report a result
		// against; log and let the ack drop them.
		h.logger.Warn("undecodable notification message",
			zap.Int32("partition", rec.Partition),
			zap.Int64("offset", rec.Offset),
			zap.Error(err),
		)
		return
	}

	log := h.logger.With(
		zap.String("message_id", msg.MessageID),
		zap.String("type", string(msg.Type)),
		zap.Int32("partition", rec.Partition),
		zap.Int64("offset", rec.Offset),
	)
	log.Info("notification received")

	// Future-scheduled messages are skipped; no re-delivery is arranged
	// here, so the skip is recorded to keep the gap observable.
	if !msg.ScheduledAt.IsZero() && h.now().Before(msg.ScheduledAt) {
		log.Info("message scheduled for future delivery, skipping",
			zap.Time("scheduled_at", msg.ScheduledAt))
		h.emitResult(&msg, false, "skipped: scheduled for future delivery", start)
		return
	}

	if err := msg.Validate(); err != nil {
		log.Warn("invalid notification message", zap.Error(err))
		h.emitResult(&msg, false, "invalid message: "+err.Error(), start)
		return
	}

	if err := h.dispatch(ctx, &msg); err != nil {
		h.recordFailure(log, &msg, err, start)
		h.hooks.OnProcessed(msg.Type, false, time.Since(start))
		return
	}

	h.emitResult(&msg, true, "", start)
	h.hooks.OnProcessed(msg.Type, true, time.Since(start))
	log.Info("notification processed", zap.Duration("latency", time.Since(start)))
}

// dispatch routes the message to the mail call for its type. The switch
// is exhaustive over the closed type set; anything else is a failed
// dispatch, not a silent drop.
func (h *Handler) dispatch(ctx context.Context, msg *domain.NotificationMessage) error {
	if err := h.limiter.Wait(ctx, msg.Type); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	switch msg.Type {
	case domain.TypeExpiryWarning:
		return h.sender.SendExpiryAlert(ctx, msg.ProductID, msg.ProductName, msg.ExpiryDate)
	case domain.TypeLowStock:
		return h.sender.SendLowStockAlert(ctx, msg.ProductID, msg.ProductName, msg.AdditionalInfo)
	case domain.TypeOutOfStock:
		return h.sender.SendOutOfStockAlert(ctx, msg.ProductID, msg.ProductName, msg.AdditionalInfo)
	case domain.TypeReminder:
		return h.sender.SendReminder(ctx, msg.ProductID, msg.ProductName, msg.AdditionalInfo)
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownNotification, msg.Type)
	}
}

// recordFailure logs a dispatch failure against the retry budget. The
// message is acknowledged either way; the distinction only changes the
// log severity and the error text written to the result log.
func (h *Handler) recordFailure(log *zap.Logger, msg *domain.NotificationMessage, dispatchErr error, start time.Time) {
	attempt := msg.RetryCount + 1

	var errText string
	if attempt < h.maxRetryAttempts {
		errText = fmt.Sprintf("retry %d/%d: %v", attempt, h.maxRetryAttempts, dispatchErr)
		log.Warn("notification dispatch failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", h.maxRetryAttempts),
			zap.Error(dispatchErr),
		)
	} else {
		errText = fmt.Sprintf("permanently failed after %d attempts: %v", h.maxRetryAttempts, dispatchErr)
		log.Error("notification permanently failed",
			zap.Int("max_attempts", h.maxRetryAttempts),
			zap.Error(dispatchErr),
		)
	}

	h.emitResult(msg, false, errText, start)
}

// emitResult writes the outcome record asynchronously. The sink is
// best-effort; nothing here may delay or fail the acknowledgment.
func (h *Handler) emitResult(msg *domain.NotificationMessage, success bool, errText string, start time.Time) {
	result := domain.NotificationResult{
		MessageID:        msg.MessageID,
		CorrelationID:    msg.CorrelationID,
		Success:          success,
		ErrorMessage:     errText,
		ProcessedAt:      h.now(),
		ProcessingNode:   h.node,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}
	go h.results.Record(result)
}

func nodeID() string {
	host, err := os.Hostname()
	if err != nil {
		return "unknown-node"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

// compile-time check that Handler implements sarama's handler contract
var _ sarama.ConsumerGroupHandler = (*Handler)(nil)
