// Package audit records "who did what to whom" events on a best-effort
// basis. Recording never blocks a business transaction and write failures
// are logged and discarded, never propagated.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mhutchins/coachwork/internal/metrics"
)

// BatchInserter is the interface used by Recorder to persist events. It
// exists to allow testing without a real database.
type BatchInserter interface {
	BatchInsert(ctx context.Context, events []Event) error
}

// Recorder buffers events in memory and periodically flushes them to the
// store in batches. It is safe for concurrent use.
type Recorder struct {
	store         BatchInserter
	buffer        []Event
	mu            sync.Mutex
	batchSize     int
	flushInterval time.Duration
	done          chan struct{}
	metrics       *metrics.Metrics
}

// NewRecorder creates a Recorder that flushes to the given store when the
// buffer reaches batchSize or every flushInterval, whichever comes first.
func NewRecorder(store BatchInserter, batchSize int, flushInterval time.Duration) *Recorder {
	return &Recorder{
		store:         store,
		buffer:        make([]Event, 0, batchSize),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		done:          make(chan struct{}),
	}
}

// WithMetrics attaches Prometheus instrumentation to the recorder. It
// returns the receiver for call chaining during wiring.
func (r *Recorder) WithMetrics(m *metrics.Metrics) *Recorder {
	r.metrics = m
	return r
}

// Start begins a background goroutine that flushes buffered events on a
// timer. It blocks until Stop is called or the context is cancelled.
func (r *Recorder) Start(ctx context.Context) {
	ticker := time.NewTicker(r.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.flush()
		case <-ctx.Done():
			r.flush()
			return
		case <-r.done:
			r.flush()
			return
		}
	}
}

// Record adds an event to the buffer, stamping CreatedAt when unset. If
// the buffer reaches batchSize, a flush is triggered immediately. Safe
// to call on a nil receiver, which drops the event; services built
// without a recorder do not guard their call sites.
func (r *Recorder) Record(ev Event) {
	if r == nil {
		return
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}

	r.mu.Lock()
	r.buffer = append(r.buffer, ev)
	buffered := len(r.buffer)
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.AuditEventsTotal.Inc()
		r.metrics.AuditBufferSize.Set(float64(buffered))
	}

	if buffered >= r.batchSize {
		r.flush()
	}
}

// flush drains all buffered events and writes them to the store. Errors
// are logged rather than returned so business callers are never blocked.
func (r *Recorder) flush() {
	r.mu.Lock()
	if len(r.buffer) == 0 {
		r.mu.Unlock()
		return
	}
	batch := r.buffer
	r.buffer = make([]Event, 0, r.batchSize)
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := r.store.BatchInsert(ctx, batch); err != nil {
		slog.Error("failed to flush audit events", "count", len(batch), "error", err)
		if r.metrics != nil {
			r.metrics.AuditFlushesTotal.WithLabelValues("error").Inc()
		}
		return
	}
	if r.metrics != nil {
		r.metrics.AuditFlushesTotal.WithLabelValues("ok").Inc()
		r.metrics.AuditBufferSize.Set(0)
	}
}

// Stop signals the background goroutine to exit and performs a final flush.
func (r *Recorder) Stop() {
	close(r.done)
}
