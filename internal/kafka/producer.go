// Package kafka wraps the sarama producers and consumer group used by the
// notification pipeline. Message construction and dispatch live in the
// producer and consumer packages; this package owns only the transport.
package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/medtrack/notify/internal/domain"
)

// Producer publishes notification messages to the primary topic through a
// sarama async producer. Publishing is fire-and-forget for the caller:
// delivery confirmations and failures surface only on the success/error
// channels, which a background goroutine drains into the log.
type Producer struct {
	async  sarama.AsyncProducer
	topic  string
	logger *zap.Logger
	done   chan struct{}
}

// newProducerConfig mirrors the delivery contract for the primary topic:
// a publish is confirmed only by the full in-sync replica set, the
// producer is idempotent, transport retries are bounded, and in-flight
// requests are capped at one per connection so per-key ordering survives
// retries.
func newProducerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.Partitioner = sarama.NewHashPartitioner
	cfg.Version = sarama.V2_6_0_0
	return cfg
}

// NewProducer connects to the brokers and starts the confirmation drain.
func NewProducer(brokers []string, topic string, logger *zap.Logger) (*Producer, error) {
	async, err := sarama.NewAsyncProducer(brokers, newProducerConfig())
	if err != nil {
		return nil, fmt.Errorf("create async producer: %w", err)
	}
	return newProducer(async, topic, logger), nil
}

func newProducer(async sarama.AsyncProducer, topic string, logger *zap.Logger) *Producer {
	p := &Producer{
		async:  async,
		topic:  topic,
		logger: logger,
		done:   make(chan struct{}),
	}
	go p.drain()
	return p
}

// drain logs every delivery confirmation. The error channel is the only
// place a lost publish becomes visible; nothing is retried here beyond
// the transport's own bounded retries.
func (p *Producer) drain() {
	defer close(p.done)
	successes, errs := p.async.Successes(), p.async.Errors()
	for successes != nil || errs != nil {
		select {
		case msg, ok := <-successes:
			if !ok {
				successes = nil
				continue
			}
			p.logger.Debug("notification published",
				zap.String("topic", msg.Topic),
				zap.Int32("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
			)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			p.logger.Error("notification publish failed",
				zap.String("topic", err.Msg.Topic),
				zap.Error(err.Err),
			)
		}
	}
}

// Publish enqueues the message for delivery, keyed by its correlation ID
// so all attempts of one logical event land on the same partition. It
// returns an error only for local marshalling problems; transport
// failures are asynchronous and logged by the drain goroutine.
func (p *Producer) Publish(msg *domain.NotificationMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification message: %w", err)
	}

	p.async.Input() <- &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(msg.CorrelationID),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("message_id"), Value: []byte(msg.MessageID)},
			{Key: []byte("type"), Value: []byte(msg.Type)},
			{Key: []byte("timestamp"), Value: []byte(msg.CreatedAt.Format(time.RFC3339))},
		},
	}
	return nil
}

// Close flushes pending messages and waits for the drain goroutine.
func (p *Producer) Close() error {
	err := p.async.Close()
	<-p.done
	return err
}
