package core

import (
	"sync"
	"time"
)

// DefaultErrorTTL is how long an error message stays visible.
const DefaultErrorTTL = 3 * time.Second

// Scheduler runs fn once after delay.
type Scheduler func(delay time.Duration, fn func())

func afterFunc(delay time.Duration, fn func()) {
	time.AfterFunc(delay, fn)
}

// ErrorReporter holds the latest user-facing failure message. Each Set schedules a
// clear after the TTL; the clear only fires if no newer message replaced it.
type ErrorReporter struct {
	mu       sync.Mutex
	message  string
	gen      uint64
	ttl      time.Duration
	schedule Scheduler
}

// NewErrorReporter builds a reporter. Zero ttl and nil schedule use the defaults.
func NewErrorReporter(ttl time.Duration, schedule Scheduler) *ErrorReporter {
	if ttl <= 0 {
		ttl = DefaultErrorTTL
	}
	if schedule == nil {
		schedule = afterFunc
	}
	return &ErrorReporter{ttl: ttl, schedule: schedule}
}

// Set replaces the current message and schedules it to clear.
func (r *ErrorReporter) Set(message string) {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	r.message = message
	r.mu.Unlock()

	r.schedule(r.ttl, func() {
		r.mu.Lock()
		if r.gen == gen {
			r.message = ""
		}
		r.mu.Unlock()
	})
}

// Clear drops the current message. Pending clears are left to fire.
func (r *ErrorReporter) Clear() {
	r.mu.Lock()
	r.message = ""
	r.mu.Unlock()
}

// Current returns the visible message, or "" when none.
func (r *ErrorReporter) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.message
}

// TTL returns how long a message stays visible.
func (r *ErrorReporter) TTL() time.Duration { return r.ttl }
