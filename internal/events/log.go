package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/safar/delivery-admin/internal/board"
)

// LogPublisher writes moves to the log and remembers the newest ones in
// memory. Used when no Redis is configured.
type LogPublisher struct {
	logger *slog.Logger

	mu      sync.Mutex
	entries []board.Event
	limit   int
}

func NewLogPublisher(logger *slog.Logger, limit int) *LogPublisher {
	if limit < 1 {
		limit = 1
	}
	return &LogPublisher{logger: logger, limit: limit}
}

func (p *LogPublisher) Publish(ctx context.Context, e board.Event) error {
	p.logger.InfoContext(ctx, "order moved",
		"order_id", e.OrderID,
		"from", e.From,
		"to", e.To,
	)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, e)
	if len(p.entries) > p.limit {
		p.entries = append([]board.Event(nil), p.entries[len(p.entries)-p.limit:]...)
	}
	return nil
}

func (p *LogPublisher) Recent(_ context.Context, n int) ([]board.Event, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := []board.Event{}
	for i := len(p.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, p.entries[i])
	}
	return out, nil
}

func (p *LogPublisher) Close() error {
	return nil
}
