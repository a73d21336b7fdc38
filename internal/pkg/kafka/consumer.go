package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ErrUnprocessable marks a message that can never be handled, such as a
// malformed payload. Consume commits past it instead of retrying.
var ErrUnprocessable = errors.New("unprocessable message")

// Unprocessable wraps err so that Consume skips the message.
func Unprocessable(err error) error {
	return fmt.Errorf("%w: %w", ErrUnprocessable, err)
}

// MessageHandler processes one message. A failed message is retried and its
// offset is never committed until the handler succeeds, unless the error
// wraps ErrUnprocessable.
type MessageHandler func(ctx context.Context, msg kafkago.Message) error

// RetryPolicy bounds handler retries for a single fetched message.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryPolicy is used by NewConsumer.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:    5,
	InitialBackoff: 200 * time.Millisecond,
	MaxBackoff:     5 * time.Second,
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	d := p.InitialBackoff
	for i := 1; i < attempt && d < p.MaxBackoff; i++ {
		d *= 2
	}
	if d > p.MaxBackoff {
		d = p.MaxBackoff
	}
	return d
}

// messageReader is the part of *kafkago.Reader the consumer uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Consumer reads a single topic as part of a consumer group.
type Consumer struct {
	open   func() messageReader
	reader messageReader
	retry  RetryPolicy
	logger *zap.Logger
}

// NewConsumer creates a group consumer for topic.
func NewConsumer(brokers []string, groupID, topic string, logger *zap.Logger) *Consumer {
	open := func() messageReader {
		return kafkago.NewReader(kafkago.ReaderConfig{
			Brokers:  brokers,
			GroupID:  groupID,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6,
		})
	}
	return newConsumer(open, DefaultRetryPolicy, logger)
}

func newConsumer(open func() messageReader, retry RetryPolicy, logger *zap.Logger) *Consumer {
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}
	return &Consumer{open: open, reader: open(), retry: retry, logger: logger}
}

// Consume fetches messages until ctx is cancelled. Offsets are committed only
// after handler succeeds. When retries for a message run out, the reader is
// reopened so the group resumes from the last committed offset and the
// message is delivered again.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		err = c.handle(ctx, handler, msg)
		switch {
		case err == nil:
		case errors.Is(err, ErrUnprocessable):
			c.logger.Error("skipping unprocessable message",
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		case ctx.Err() != nil:
			return nil
		default:
			c.logger.Error("message handler failed, rewinding to committed offset",
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Int("attempts", c.retry.MaxAttempts),
				zap.Error(err),
			)
			c.reopen()
			continue
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Warn("commit failed", zap.Int64("offset", msg.Offset), zap.Error(err))
		}
	}
}

func (c *Consumer) handle(ctx context.Context, handler MessageHandler, msg kafkago.Message) error {
	var err error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if err = handler(ctx, msg); err == nil || errors.Is(err, ErrUnprocessable) {
			return err
		}
		if attempt == c.retry.MaxAttempts {
			break
		}
		c.logger.Warn("message handler failed, retrying",
			zap.Int64("offset", msg.Offset),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retry.backoff(attempt)):
		}
	}
	return err
}

func (c *Consumer) reopen() {
	if err := c.reader.Close(); err != nil {
		c.logger.Warn("failed to close reader", zap.Error(err))
	}
	c.reader = c.open()
}

// Close closes the reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
