package core

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// SpanRecord is one finished operation span as written by JSONTracer.
type SpanRecord struct {
	Operation  string    `json:"operation"`
	Outcome    string    `json:"outcome"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS float64   `json:"duration_ms"`
}

// JSONTracer writes one JSON line per finished span and keeps the records in memory.
type JSONTracer struct {
	mu      sync.Mutex
	enc     *json.Encoder
	records []SpanRecord
	now     func() time.Time
}

// NewJSONTracer returns a tracer writing to w. A nil w only retains records.
func NewJSONTracer(w io.Writer) *JSONTracer {
	t := &JSONTracer{now: time.Now}
	if w != nil {
		t.enc = json.NewEncoder(w)
	}
	return t
}

// Records returns a copy of the finished spans.
func (t *JSONTracer) Records() []SpanRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]SpanRecord(nil), t.records...)
}

// Start implements Tracer.
func (t *JSONTracer) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	return ctx, &jsonSpan{tracer: t, operation: operation, started: t.now()}
}

type jsonSpan struct {
	tracer    *JSONTracer
	operation string
	started   time.Time
}

func (s *jsonSpan) End(err error) {
	rec := SpanRecord{
		Operation:  s.operation,
		Outcome:    "success",
		StartedAt:  s.started.UTC(),
		DurationMS: float64(s.tracer.now().Sub(s.started)) / float64(time.Millisecond),
	}
	if err != nil {
		rec.Outcome = "error"
		rec.Error = err.Error()
	}
	s.tracer.mu.Lock()
	defer s.tracer.mu.Unlock()
	s.tracer.records = append(s.tracer.records, rec)
	if s.tracer.enc != nil {
		_ = s.tracer.enc.Encode(rec)
	}
}
