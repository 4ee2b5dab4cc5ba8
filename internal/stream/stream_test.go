package stream

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procura.io/internal/award"
)

func TestPublishIsScopedToCompany(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mine := s.Subscribe(ctx, "co-1")
	theirs := s.Subscribe(ctx, "co-2")

	require.NoError(t, s.Notify(ctx, award.Notification{Type: award.EventLineAwarded, CompanyID: "co-1", RFQID: "rfq-1"}))

	select {
	case n := <-mine:
		assert.Equal(t, "rfq-1", n.RFQID)
	case <-time.After(time.Second):
		t.Fatal("expected event for co-1")
	}
	select {
	case n := <-theirs:
		t.Fatalf("co-2 received foreign event %+v", n)
	default:
	}
}

func TestSubscriptionEndsWithContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	ch := s.Subscribe(ctx, "co-1")
	assert.Equal(t, 1, s.Subscribers())

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
	assert.Eventually(t, func() bool { return s.Subscribers() == 0 }, time.Second, 10*time.Millisecond)
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Subscribe(ctx, "co-1")

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			s.Publish(award.Notification{CompanyID: "co-1"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}
