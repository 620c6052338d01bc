package core

import (
	"time"

	"github.com/google/uuid"
)

// ServiceOption configures optional Service collaborators.
type ServiceOption func(*Service)

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(logger Logger) ServiceOption {
	return func(s *Service) {
		if logger == nil {
			logger = noopLogger{}
		}
		s.logger = logger
	}
}

// WithClock sets the clock that decides "today" for new chores.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		if clock == nil {
			clock = ClockFunc(nil)
		}
		s.clock = clock
	}
}

// WithMetrics sets the recorder observing every operation.
func WithMetrics(recorder MetricsRecorder) ServiceOption {
	return func(s *Service) {
		if recorder == nil {
			recorder = noopMetrics{}
		}
		s.metrics = recorder
	}
}

// WithTracer sets the tracer wrapping every operation.
func WithTracer(tracer Tracer) ServiceOption {
	return func(s *Service) {
		if tracer == nil {
			tracer = noopTracer{}
		}
		s.tracer = tracer
	}
}

// WithErrorTTL sets how long failure messages stay visible.
func WithErrorTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.errorTTL = ttl
	}
}

// WithScheduler replaces the timer used to clear failure messages.
func WithScheduler(schedule Scheduler) ServiceOption {
	return func(s *Service) {
		s.schedule = schedule
	}
}

// WithIDGenerator replaces the generator of provisional ids for optimistic records.
func WithIDGenerator(fn func() string) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

func provisionalID() string {
	return "local-" + uuid.NewString()
}
