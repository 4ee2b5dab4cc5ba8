// Package ids issues the ULIDs used for awards, purchase orders and their
// lines. ULIDs sort by creation time, which keeps award history ordered.
package ids

import (
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator hands out strictly increasing ULIDs, even within the same
// millisecond.
type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

func NewGenerator(seed int64, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{
		entropy: ulid.Monotonic(mathrand.New(mathrand.NewSource(seed)), 0),
		now:     now,
	}
}

func (g *Generator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy).String()
}

var std = NewGenerator(time.Now().UnixNano(), time.Now)

// New returns an id from the process-wide generator.
func New() string { return std.New() }
