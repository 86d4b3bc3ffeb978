package audit

import (
	"context"
	"sync/atomic"
	"time"
)

const (
	// DefaultQueueSize bounds events waiting to be written.
	DefaultQueueSize = 64

	// writeTimeout bounds a single insert.
	writeTimeout = 2 * time.Second
)

// Logger defines the logging interface used by the recorder.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Recorder writes events to a Repository from its own goroutine so the
// control loop never waits on SQLite.
//
// Thread Safety:
//   - Record is safe for concurrent use and never blocks.
//   - Run must be called exactly once.
type Recorder struct {
	repo   Repository
	queue  chan Event
	logger Logger

	dropped atomic.Uint64
	written atomic.Uint64
	failed  atomic.Uint64
}

// NewRecorder creates a recorder with a queue of size events.
func NewRecorder(repo Repository, size int) *Recorder {
	if size < 1 {
		size = DefaultQueueSize
	}
	return &Recorder{
		repo:   repo,
		queue:  make(chan Event, size),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger. A nil logger disables logging.
func (r *Recorder) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	r.logger = logger
}

// Record queues an event. When the queue is full the event is dropped,
// counted and ErrQueueFull returned.
func (r *Recorder) Record(event Event) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	select {
	case r.queue <- event:
		return nil
	default:
		r.dropped.Add(1)
		return ErrQueueFull
	}
}

// Run writes queued events until ctx is cancelled, then flushes what is
// already queued.
func (r *Recorder) Run(ctx context.Context) {
	for {
		select {
		case event := <-r.queue:
			r.write(event)
		case <-ctx.Done():
			for {
				select {
				case event := <-r.queue:
					r.write(event)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := r.repo.Create(ctx, &event); err != nil {
		r.failed.Add(1)
		r.logger.Warn("access event not written",
			"kind", event.Kind,
			"outcome", event.Outcome,
			"error", err,
		)
		return
	}
	r.written.Add(1)
}

// Stats reports recorder counters.
func (r *Recorder) Stats() (written, dropped, failed uint64) {
	return r.written.Load(), r.dropped.Load(), r.failed.Load()
}
