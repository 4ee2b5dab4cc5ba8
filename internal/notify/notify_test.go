package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"procura.io/internal/award"
	"procura.io/internal/obs"
)

var sample = award.Notification{
	Type:       award.EventLineLost,
	CompanyID:  "co-1",
	Recipients: []string{"sup-b"},
	RFQID:      "rfq-1",
	QuoteID:    "quote-b",
	RfqLineIDs: []string{"line-1", "line-3"},
	OccurredAt: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
}

func TestRedisStreamNotify(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	n := NewRedisStream(client, "", 100)
	ctx := context.Background()
	require.NoError(t, n.Ping(ctx))
	require.NoError(t, n.Notify(ctx, sample))

	msgs, err := client.XRange(ctx, DefaultStream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "rfq.line_lost", msgs[0].Values["type"])
	assert.Equal(t, "rfq-1", msgs[0].Values["rfq_id"])

	var got award.Notification
	require.NoError(t, json.Unmarshal([]byte(msgs[0].Values["data"].(string)), &got))
	assert.Equal(t, sample, got)
}

func TestRedisStreamNotifyFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	err := NewRedisStream(client, "s", 0).Notify(context.Background(), sample)
	assert.Error(t, err)
}

type fakeToken struct {
	err  error
	done chan struct{}
}

func newToken(err error) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type published struct {
	topic   string
	payload []byte
}

type fakePublisher struct {
	err     error
	pending bool // tokens never complete
	sent    []published
}

func (p *fakePublisher) Publish(topic string, _ byte, _ bool, payload interface{}) mqtt.Token {
	p.sent = append(p.sent, published{topic: topic, payload: payload.([]byte)})
	if p.pending {
		return &fakeToken{done: make(chan struct{})}
	}
	return newToken(p.err)
}

func TestMQTTNotify(t *testing.T) {
	pub := &fakePublisher{}
	n := NewMQTT(pub, "/procura/suppliers/")
	msg := sample
	msg.Recipients = []string{"sup-b", "sup-c"}

	require.NoError(t, n.Notify(context.Background(), msg))
	require.Len(t, pub.sent, 2)
	assert.Equal(t, "procura/suppliers/sup-b/rfq.line_lost", pub.sent[0].topic)
	assert.Equal(t, "procura/suppliers/sup-c/rfq.line_lost", pub.sent[1].topic)

	var got award.Notification
	require.NoError(t, json.Unmarshal(pub.sent[0].payload, &got))
	assert.Equal(t, msg.RfqLineIDs, got.RfqLineIDs)
}

func TestMQTTNotifyError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("not connected")}
	err := NewMQTT(pub, "").Notify(context.Background(), sample)
	assert.ErrorContains(t, err, "not connected")
}

type notifierFunc func(ctx context.Context, n award.Notification) error

func (f notifierFunc) Notify(ctx context.Context, n award.Notification) error { return f(ctx, n) }

func TestMultiAttemptsEverySink(t *testing.T) {
	var calls []string
	failing := notifierFunc(func(context.Context, award.Notification) error {
		calls = append(calls, "failing")
		return errors.New("boom")
	})
	ok := notifierFunc(func(context.Context, award.Notification) error {
		calls = append(calls, "ok")
		return nil
	})

	err := Multi{failing, nil, ok}.Notify(context.Background(), sample)
	assert.ErrorContains(t, err, "boom")
	assert.Equal(t, []string{"failing", "ok"}, calls)

	assert.NoError(t, Multi{ok}.Notify(context.Background(), sample))
}

func TestLogNotify(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	prev := obs.SetLogger(zap.New(core))
	defer obs.SetLogger(prev)

	require.NoError(t, Log{}.Notify(context.Background(), sample))
	entries := logs.FilterMessage("notification queued").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "rfq-1", entries[0].ContextMap()["rfq_id"])
}

func TestMQTTNotifyBoundsAckWait(t *testing.T) {
	pub := &fakePublisher{pending: true}
	n := NewMQTT(pub, "", WithAckWait(50*time.Millisecond))
	msg := sample
	msg.Recipients = []string{"sup-a", "sup-b", "sup-c"}

	start := time.Now()
	err := n.Notify(context.Background(), msg)
	elapsed := time.Since(start)

	assert.ErrorContains(t, err, "no ack within")
	assert.Len(t, pub.sent, 3, "every recipient is published before waiting")
	assert.Less(t, elapsed, time.Second)
}
