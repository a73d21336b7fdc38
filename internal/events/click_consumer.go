package events

import (
	"context"
	"strings"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/kafka"
)

// ClickHandler stores a consumed click.
type ClickHandler interface {
	HandleClickEvent(ctx context.Context, event PromotionClickedEvent) error
}

// ClickEventConsumer listens to promotion.clicks and records each click.
type ClickEventConsumer struct {
	consumer *kafka.Consumer
	handler  ClickHandler
	logger   *zap.Logger
}

// NewClickEventConsumer creates a new consumer for click events.
func NewClickEventConsumer(brokers []string, groupID string, handler ClickHandler, logger *zap.Logger) *ClickEventConsumer {
	return &ClickEventConsumer{
		consumer: kafka.NewConsumer(brokers, groupID, TopicPromotionClicks, logger),
		handler:  handler,
		logger:   logger,
	}
}

// Start begins consuming click events. It blocks until the context is cancelled.
func (c *ClickEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.HandleMessage)
}

// HandleMessage routes one Kafka message.
func (c *ClickEventConsumer) HandleMessage(ctx context.Context, msg kafkago.Message) error {
	ce, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from click topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return kafka.Unprocessable(err)
	}

	if !strings.EqualFold(ce.Type, PromotionClicked) {
		c.logger.Debug("ignoring unhandled click topic event", zap.String("type", ce.Type))
		return nil
	}

	var event PromotionClickedEvent
	if err := ce.ParseData(&event); err != nil {
		c.logger.Error("failed to parse PromotionClickedEvent data", zap.Error(err))
		return kafka.Unprocessable(err)
	}
	return c.handler.HandleClickEvent(ctx, event)
}

// Close closes the underlying Kafka consumer.
func (c *ClickEventConsumer) Close() error {
	return c.consumer.Close()
}
