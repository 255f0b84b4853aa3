package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// Consumer runs a sarama consumer group against the notification topic.
// The group assigns each claimed partition its own ConsumeClaim
// goroutine, which is the pipeline's bounded worker pool: one logical
// worker per partition, ordering guaranteed only within a partition.
//
// Offsets are committed manually, per message, after the handler has
// finished. Auto-commit is disabled so a message is never considered
// processed before the handler decided its outcome.
type Consumer struct {
	group   sarama.ConsumerGroup
	topic   string
	handler sarama.ConsumerGroupHandler
	logger  *zap.Logger
}

func newConsumerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	cfg.Consumer.Offsets.AutoCommit.Enable = false
	cfg.Consumer.Return.Errors = true
	cfg.Version = sarama.V2_6_0_0
	return cfg
}

func NewConsumer(
	brokers []string,
	groupID, topic string,
	handler sarama.ConsumerGroupHandler,
	logger *zap.Logger,
) (*Consumer, error) {
	group, err := sarama.NewConsumerGroup(brokers, groupID, newConsumerConfig())
	if err != nil {
		return nil, fmt.Errorf("create consumer group: %w", err)
	}
	return &Consumer{group: group, topic: topic, handler: handler, logger: logger}, nil
}

// Run blocks until ctx is cancelled, rejoining the group after each rebalance.
// In-flight messages finish and commit before partition ownership is
// released; nothing is left half-acknowledged on shutdown.
func (c *Consumer) Run(ctx context.Context) {
	go func() {
		for err := range c.group.Errors() {
			c.logger.Error("consumer group error", zap.Error(err))
		}
	}()

	for {
		if err := c.group.Consume(ctx, []string{c.topic}, c.handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return
			}
			c.logger.Error("consume session ended with error", zap.Error(err))
		}
		if ctx.Err() != nil {
			c.logger.Info("consumer stopping")
			return
		}
	}
}

func (c *Consumer) Close() error { return c.group.Close() }
