package kafka

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeLog is a single partition with a group offset. Readers opened on it
// start at the committed offset, like a group member after a rebalance.
type fakeLog struct {
	messages  []kafkago.Message
	committed int64
	opened    int
}

func newFakeLog(values ...string) *fakeLog {
	l := &fakeLog{}
	for i, v := range values {
		l.messages = append(l.messages, kafkago.Message{Topic: "clicks", Offset: int64(i), Value: []byte(v)})
	}
	return l
}

func (l *fakeLog) open() messageReader {
	l.opened++
	return &fakeReader{log: l, next: l.committed}
}

type fakeReader struct {
	log  *fakeLog
	next int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	if err := ctx.Err(); err != nil {
		return kafkago.Message{}, err
	}
	if r.next >= int64(len(r.log.messages)) {
		return kafkago.Message{}, io.EOF
	}
	msg := r.log.messages[r.next]
	r.next++
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	for _, m := range msgs {
		r.log.committed = m.Offset + 1
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

var fastRetry = RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}

// TestConsumer_RetriesFailedMessageBeforeCommitting verifies a transient
// handler failure does not commit past the failed message.
func TestConsumer_RetriesFailedMessageBeforeCommitting(t *testing.T) {
	log := newFakeLog("a", "b")
	c := newConsumer(log.open, fastRetry, zap.NewNop())

	var handled []string
	failures := 1
	err := c.Consume(context.Background(), func(_ context.Context, msg kafkago.Message) error {
		handled = append(handled, string(msg.Value))
		if string(msg.Value) == "a" && failures > 0 {
			failures--
			return errors.New("database unavailable")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a", "b"}, handled)
	assert.Equal(t, int64(2), log.committed)
	assert.Equal(t, 1, log.opened)
}

// TestConsumer_RewindsWhenRetriesRunOut verifies the message is redelivered
// from the committed offset once the retry budget is spent.
func TestConsumer_RewindsWhenRetriesRunOut(t *testing.T) {
	log := newFakeLog("a", "b")
	c := newConsumer(log.open, fastRetry, zap.NewNop())

	var handled []string
	failures := fastRetry.MaxAttempts
	err := c.Consume(context.Background(), func(_ context.Context, msg kafkago.Message) error {
		handled = append(handled, string(msg.Value))
		if string(msg.Value) == "a" && failures > 0 {
			failures--
			return errors.New("database unavailable")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a", "a", "a", "b"}, handled)
	assert.Equal(t, int64(2), log.committed)
	assert.Equal(t, 2, log.opened, "reader should be reopened at the committed offset")
}

func TestConsumer_SkipsUnprocessableMessages(t *testing.T) {
	log := newFakeLog("garbage", "b")
	c := newConsumer(log.open, fastRetry, zap.NewNop())

	var handled []string
	err := c.Consume(context.Background(), func(_ context.Context, msg kafkago.Message) error {
		handled = append(handled, string(msg.Value))
		if string(msg.Value) == "garbage" {
			return Unprocessable(errors.New("invalid json"))
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"garbage", "b"}, handled)
	assert.Equal(t, int64(2), log.committed)
}

func TestConsumer_StopsRetryingOnCancel(t *testing.T) {
	log := newFakeLog("a")
	c := newConsumer(log.open, RetryPolicy{MaxAttempts: 10, InitialBackoff: time.Hour, MaxBackoff: time.Hour}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	err := c.Consume(ctx, func(context.Context, kafkago.Message) error {
		cancel()
		return errors.New("database unavailable")
	})

	require.NoError(t, err)
	assert.Equal(t, int64(0), log.committed)
}

func TestRetryPolicy_BackoffIsCapped(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 10, InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second}

	assert.Equal(t, 100*time.Millisecond, p.backoff(1))
	assert.Equal(t, 200*time.Millisecond, p.backoff(2))
	assert.Equal(t, 800*time.Millisecond, p.backoff(4))
	assert.Equal(t, time.Second, p.backoff(5))
	assert.Equal(t, time.Second, p.backoff(9))
}
