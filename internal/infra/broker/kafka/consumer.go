package kafka

import (
	"context"
	"errors"
	"log/slog"

	"github.com/IBM/sarama"
)

type MessageHandler interface {
	Handle(ctx context.Context, msg *sarama.ConsumerMessage) error
}

// Consumer feeds a consumer group's messages to one handler. A message is
// marked only after the handler accepted it.
type Consumer struct {
	group   sarama.ConsumerGroup
	handler MessageHandler
	logger  *slog.Logger
}

func NewConsumer(brokers []string, groupID string, cfg *sarama.Config, handler MessageHandler, logger *slog.Logger) (*Consumer, error) {
	if handler == nil {
		return nil, errors.New("kafka: consumer handler required")
	}
	group, err := sarama.NewConsumerGroup(brokers, groupID, consumerConfig(cfg))
	if err != nil {
		return nil, err
	}
	return NewConsumerFrom(group, handler, logger), nil
}

// NewConsumerFrom wraps an existing consumer group.
func NewConsumerFrom(group sarama.ConsumerGroup, handler MessageHandler, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{group: group, handler: handler, logger: logger.With("component", "kafka-consumer")}
}

// Run joins the group for topics and stays in it across rebalances until ctx
// ends or the group is closed.
func (c *Consumer) Run(ctx context.Context, topics []string) error {
	go c.logErrors(ctx)
	session := claimHandler{handler: c.handler, logger: c.logger}
	for {
		err := c.group.Consume(ctx, topics, session)
		switch {
		case errors.Is(err, sarama.ErrClosedConsumerGroup):
			return nil
		case err != nil:
			return err
		case ctx.Err() != nil:
			return ctx.Err()
		}
	}
}

func (c *Consumer) logErrors(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-c.group.Errors():
			if !ok {
				return
			}
			c.logger.Warn("consumer group error", "error", err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.group.Close()
}

type claimHandler struct {
	handler MessageHandler
	logger  *slog.Logger
}

func (h claimHandler) Setup(sess sarama.ConsumerGroupSession) error {
	h.logger.Info("partitions assigned", "claims", sess.Claims(), "generation", sess.GenerationID())
	return nil
}

func (h claimHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim handles messages until the claim closes or the session ends
// for a rebalance. Failed messages stay unmarked for redelivery.
func (h claimHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case <-sess.Context().Done():
			return nil
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := h.handler.Handle(sess.Context(), msg); err != nil {
				h.logger.Error("message not processed",
					"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "error", err)
				continue
			}
			sess.MarkMessage(msg, "")
		}
	}
}
