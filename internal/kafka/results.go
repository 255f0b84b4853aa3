package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/medtrack/notify/internal/domain"
)

// ResultWriter records consume outcomes on the results topic and serves
// the broker health probe. Results are pure observability, so the
// delivery settings are deliberately looser than the primary topic's:
// leader-only acks and a single retry.
type ResultWriter struct {
	sync       sarama.SyncProducer
	topic      string
	probeTopic string
	logger     *zap.Logger
}

func newResultConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Retry.Max = 1
	cfg.Producer.Return.Successes = true
	cfg.Version = sarama.V2_6_0_0
	return cfg
}

func NewResultWriter(brokers []string, topic, probeTopic string, logger *zap.Logger) (*ResultWriter, error) {
	sp, err := sarama.NewSyncProducer(brokers, newResultConfig())
	if err != nil {
		return nil, fmt.Errorf("create result producer: %w", err)
	}
	return newResultWriter(sp, topic, probeTopic, logger), nil
}

func newResultWriter(sp sarama.SyncProducer, topic, probeTopic string, logger *zap.Logger) *ResultWriter {
	return &ResultWriter{sync: sp, topic: topic, probeTopic: probeTopic, logger: logger}
}

// Record writes one result, keyed by correlation ID. It is best-effort:
// a failure is logged and swallowed so it can never affect the consumer's
// acknowledgment path.
func (w *ResultWriter) Record(result domain.NotificationResult) {
	payload, err := json.Marshal(result)
	if err != nil {
		w.logger.Warn("failed to marshal notification result", zap.Error(err))
		return
	}

	_, _, err = w.sync.SendMessage(&sarama.ProducerMessage{
		Topic: w.topic,
		Key:   sarama.StringEncoder(result.CorrelationID),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		w.logger.Warn("failed to record notification result",
			zap.String("message_id", result.MessageID),
			zap.Error(err),
		)
	}
}

// HealthCheck publishes a trivial probe message and reports whether the
// broker acknowledged it. It never returns an error to the caller.
func (w *ResultWriter) HealthCheck() bool {
	probe := fmt.Sprintf("health-check-%d", time.Now().UnixMilli())
	_, _, err := w.sync.SendMessage(&sarama.ProducerMessage{
		Topic: w.probeTopic,
		Key:   sarama.StringEncoder(probe),
		Value: sarama.StringEncoder(probe),
	})
	if err != nil {
		w.logger.Warn("broker health check failed", zap.Error(err))
		return false
	}
	return true
}

func (w *ResultWriter) Close() error { return w.sync.Close() }
