package migration

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// progress writes a single updating status line while a sweep copies keys.
type progress struct {
	writer    io.Writer
	total     int
	copied    int
	every     int
	lastShown int
	startTime time.Time
	mu        sync.Mutex
}

// newProgress returns nil when w is nil so callers can skip nil checks on
// every method.
func newProgress(w io.Writer, total, every int) *progress {
	if w == nil {
		return nil
	}
	if every <= 0 {
		every = 1
	}
	return &progress{
		writer:    w,
		total:     total,
		every:     every,
		startTime: time.Now(),
	}
}

func (p *progress) copiedOne() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.copied < p.total {
		p.copied++
	}
	if p.copied-p.lastShown >= p.every {
		p.show()
		p.lastShown = p.copied
	}
}

// finish prints the final line. ok=false marks an aborted sweep and keeps the
// count reached instead of jumping to the total.
func (p *progress) finish(ok bool) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if ok {
		p.copied = p.total
	}
	p.show()
	if !ok {
		fmt.Fprint(p.writer, " (aborted)")
	}
	fmt.Fprintln(p.writer)
}

// show must be called with the lock held.
func (p *progress) show() {
	percentage := 100.0
	if p.total > 0 {
		percentage = float64(p.copied) / float64(p.total) * 100.0
	}
	fmt.Fprintf(p.writer, "\rMigrating: %d/%d keys (%.1f%%) in %s",
		p.copied, p.total, percentage, time.Since(p.startTime).Round(time.Millisecond))
}
