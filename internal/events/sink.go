// Package events carries board move events off the owner goroutine to a
// publisher (Redis or the log).
package events

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/safar/delivery-admin/internal/board"
)

const publishTimeout = 5 * time.Second

type Publisher interface {
	Publish(ctx context.Context, e board.Event) error
	Recent(ctx context.Context, n int) ([]board.Event, error)
	Close() error
}

// Sink buffers events between the board listener and a Publisher. Offer
// never blocks; a full buffer drops the event.
type Sink struct {
	pub     Publisher
	queue   chan board.Event
	logger  *slog.Logger
	dropped atomic.Int64
	done    chan struct{}
}

func NewSink(pub Publisher, buffer int, logger *slog.Logger) *Sink {
	if buffer < 1 {
		buffer = 1
	}
	return &Sink{
		pub:    pub,
		queue:  make(chan board.Event, buffer),
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Offer is a board.Listener.
func (s *Sink) Offer(e board.Event) {
	select {
	case s.queue <- e:
	default:
		s.dropped.Add(1)
		s.logger.Warn("move event dropped, publisher is behind", "order_id", e.OrderID, "from", e.From, "to", e.To)
	}
}

func (s *Sink) Dropped() int64 {
	return s.dropped.Load()
}

// Run publishes queued events until ctx is cancelled, then flushes whatever
// is still buffered.
func (s *Sink) Run(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case e := <-s.queue:
			s.publish(e)
		case <-ctx.Done():
			for {
				select {
				case e := <-s.queue:
					s.publish(e)
				default:
					return
				}
			}
		}
	}
}

// Done is closed when Run returns.
func (s *Sink) Done() <-chan struct{} {
	return s.done
}

func (s *Sink) Recent(ctx context.Context, n int) ([]board.Event, error) {
	return s.pub.Recent(ctx, n)
}

func (s *Sink) publish(e board.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := s.pub.Publish(ctx, e); err != nil {
		s.logger.Error("failed to publish move event", "order_id", e.OrderID, "error", err)
	}
}
