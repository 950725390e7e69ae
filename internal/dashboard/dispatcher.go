// Package dashboard routes intents to the board, the product collection and
// the catalog. A single goroutine (Run) owns all three; every read and write
// goes through it, so the controllers need no locking.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/safar/delivery-admin/internal/analytics"
	"github.com/safar/delivery-admin/internal/apperr"
	"github.com/safar/delivery-admin/internal/board"
	"github.com/safar/delivery-admin/internal/catalog"
	"github.com/safar/delivery-admin/internal/delivery"
	"github.com/safar/delivery-admin/internal/models"
)

var errStopped = errors.New("dispatcher stopped")

type state struct {
	board      *board.Board
	products   *delivery.Controller
	catalog    *catalog.Catalog
	newOrderID func() string
}

type result struct {
	value any
	err   error
}

type request struct {
	intent Intent
	reply  chan result
}

type Dispatcher struct {
	state    state
	requests chan request
	logger   *slog.Logger
	done     chan struct{}
}

func New(b *board.Board, products *delivery.Controller, cat *catalog.Catalog, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		state: state{
			board:    b,
			products: products,
			catalog:  cat,
			newOrderID: func() string {
				return fmt.Sprintf("ORD-%d", time.Now().UnixNano())
			},
		},
		requests: make(chan request),
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Run applies intents in arrival order until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-d.requests:
			value, err := d.apply(req.intent)
			req.reply <- result{value: value, err: err}
		}
	}
}

// Done is closed when Run returns.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

func (d *Dispatcher) apply(intent Intent) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("intent panicked", "intent", fmt.Sprintf("%T", intent), "panic", r)
			value, err = nil, apperr.Infrastructure(fmt.Sprintf("apply %T", intent), fmt.Errorf("panic: %v", r))
		}
	}()
	return intent.apply(&d.state)
}

// Do sends intent to the owner goroutine and waits for its result.
func (d *Dispatcher) Do(ctx context.Context, intent Intent) (any, error) {
	req := request{intent: intent, reply: make(chan result, 1)}

	select {
	case d.requests <- req:
	case <-ctx.Done():
		return nil, apperr.Infrastructure("dashboard unavailable", ctx.Err())
	case <-d.done:
		return nil, apperr.Infrastructure("dashboard unavailable", errStopped)
	}

	select {
	case res := <-req.reply:
		return res.value, res.err
	case <-ctx.Done():
		return nil, apperr.Infrastructure("dashboard unavailable", ctx.Err())
	}
}

func call[T any](ctx context.Context, d *Dispatcher, intent Intent) (T, error) {
	var zero T
	v, err := d.Do(ctx, intent)
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, apperr.Infrastructure(fmt.Sprintf("apply %T", intent), fmt.Errorf("unexpected result %T", v))
	}
	return out, nil
}

func (d *Dispatcher) Board(ctx context.Context) ([]board.Column, error) {
	return call[[]board.Column](ctx, d, GetBoard{})
}

func (d *Dispatcher) Order(ctx context.Context, orderID string) (models.Order, error) {
	return call[models.Order](ctx, d, GetOrder{OrderID: orderID})
}

func (d *Dispatcher) MoveOrder(ctx context.Context, m MoveOrder) ([]board.Column, error) {
	return call[[]board.Column](ctx, d, m)
}

func (d *Dispatcher) AdvanceOrder(ctx context.Context, orderID string) (AdvanceResult, error) {
	return call[AdvanceResult](ctx, d, AdvanceOrder{OrderID: orderID})
}

func (d *Dispatcher) AddOrder(ctx context.Context, o models.Order) (models.Order, error) {
	return call[models.Order](ctx, d, AddOrder{Order: o})
}

func (d *Dispatcher) SubmitProduct(ctx context.Context, cand catalog.Candidate, images []string) (models.Product, error) {
	return call[models.Product](ctx, d, SubmitProduct{Candidate: cand, Images: images})
}

func (d *Dispatcher) UpdateProduct(ctx context.Context, productID string, cand catalog.Candidate, images []string) (models.Product, error) {
	return call[models.Product](ctx, d, UpdateProduct{ProductID: productID, Candidate: cand, Images: images})
}

func (d *Dispatcher) RemoveProduct(ctx context.Context, productID string) error {
	_, err := d.Do(ctx, RemoveProduct{ProductID: productID})
	return err
}

func (d *Dispatcher) Product(ctx context.Context, productID string) (models.Product, error) {
	return call[models.Product](ctx, d, GetProduct{ProductID: productID})
}

func (d *Dispatcher) Products(ctx context.Context, q ListProducts) (catalog.OffsetPage, error) {
	return call[catalog.OffsetPage](ctx, d, q)
}

func (d *Dispatcher) AssignDelivery(ctx context.Context, a AssignDelivery) (models.Product, error) {
	return call[models.Product](ctx, d, a)
}

func (d *Dispatcher) UnassignDelivery(ctx context.Context, productID string) (models.Product, error) {
	return call[models.Product](ctx, d, UnassignDelivery{ProductID: productID})
}

func (d *Dispatcher) Services(ctx context.Context) ([]models.DeliveryService, error) {
	return call[[]models.DeliveryService](ctx, d, ListServices{})
}

func (d *Dispatcher) DeliveryStats(ctx context.Context) (delivery.Stats, error) {
	return call[delivery.Stats](ctx, d, DeliveryStats{})
}

func (d *Dispatcher) Overview(ctx context.Context) (analytics.Overview, error) {
	return call[analytics.Overview](ctx, d, Overview{})
}
