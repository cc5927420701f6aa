package directions

import (
	"context"
	"log"
	"sync"
	"time"
)

// GeocodeDebounce is how long typing must go quiet before a suggestion
// lookup is issued.
const GeocodeDebounce = 300 * time.Millisecond

// Coalescer debounces free-text geocode queries and guarantees only the
// newest query's response is ever applied. In-flight responses that were
// superseded while on the wire are discarded, never applied out of order.
type Coalescer struct {
	fetch func(context.Context, string) ([]Place, error)
	apply func(string, []Place)
	delay time.Duration

	mu      sync.Mutex
	seq     uint64
	pending *time.Timer
}

// NewCoalescer wires fetch to apply through the debounce window. apply runs
// on the timer goroutine.
func NewCoalescer(fetch func(context.Context, string) ([]Place, error), apply func(string, []Place), delay time.Duration) *Coalescer {
	return &Coalescer{fetch: fetch, apply: apply, delay: delay}
}

// Query schedules the lookup, superseding any earlier one still waiting or
// still on the wire.
func (c *Coalescer) Query(ctx context.Context, query string) {
	c.mu.Lock()
	c.seq++
	id := c.seq
	if c.pending != nil {
		c.pending.Stop()
	}
	c.pending = time.AfterFunc(c.delay, func() {
		places, err := c.fetch(ctx, query)
		if err != nil {
			log.Printf("directions: geocode %q failed: %v", query, err)
			places = nil
		}
		c.mu.Lock()
		stale := id != c.seq
		c.mu.Unlock()
		if stale {
			return
		}
		c.apply(query, places)
	})
	c.mu.Unlock()
}

// Stop cancels any lookup still waiting on the debounce timer. A response
// already on the wire is handled by the staleness check.
func (c *Coalescer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
}
