package stream

import (
	"context"
	"sync"

	"procura.io/internal/award"
)

type subscriber struct {
	companyID string
	ch        chan award.Notification
}

// Stream fans award notifications out to live subscribers (SSE clients).
// Each subscriber only sees its own company's events.
type Stream struct {
	mu   sync.RWMutex
	subs map[int]subscriber
	next int
}

func New() *Stream {
	return &Stream{subs: make(map[int]subscriber)}
}

// Subscribe registers a subscriber for companyID and returns a channel which
// will receive events. The channel is closed when the provided context ends.
func (s *Stream) Subscribe(ctx context.Context, companyID string) <-chan award.Notification {
	ch := make(chan award.Notification, 16)

	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = subscriber{companyID: companyID, ch: ch}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()

	return ch
}

// Notify publishes n to the subscribers of its company. It never blocks.
func (s *Stream) Notify(_ context.Context, n award.Notification) error {
	s.Publish(n)
	return nil
}

func (s *Stream) Publish(n award.Notification) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.subs {
		if sub.companyID != n.CompanyID {
			continue
		}
		select {
		case sub.ch <- n:
		default:
			// Drop when subscriber is slow to avoid blocking.
		}
	}
}

// Subscribers reports the number of live subscribers.
func (s *Stream) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}
