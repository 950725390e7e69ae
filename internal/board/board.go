// Package board holds the Kanban arrangement of orders into the four
// fulfillment columns.
//
// A Board is not safe for concurrent use; dashboard.Dispatcher serializes
// access to it.
package board

import (
	"fmt"
	"strings"
	"time"

	"github.com/safar/delivery-admin/internal/apperr"
	"github.com/safar/delivery-admin/internal/models"
)

// Event records an order changing columns.
type Event struct {
	OrderID string             `json:"order_id"`
	From    models.OrderStatus `json:"from"`
	To      models.OrderStatus `json:"to"`
	At      time.Time          `json:"at"`
}

// Listener receives move events synchronously, in mutation order.
type Listener func(Event)

type Column struct {
	Status models.OrderStatus `json:"id"`
	Title  string             `json:"title"`
	Orders []models.Order     `json:"orders"`
}

var columnTitles = map[models.OrderStatus]string{
	models.OrderStatusPending:        "Pending",
	models.OrderStatusPreparing:      "Preparing",
	models.OrderStatusOutForDelivery: "Out for Delivery",
	models.OrderStatusDelivered:      "Delivered",
}

type Board struct {
	columns  map[models.OrderStatus][]models.Order
	listener Listener
	now      func() time.Time
}

// New distributes orders into columns by status, keeping their relative
// order. A nil listener discards events.
func New(orders []models.Order, listener Listener) (*Board, error) {
	b := &Board{
		columns:  make(map[models.OrderStatus][]models.Order, len(models.Lifecycle)),
		listener: listener,
		now:      time.Now,
	}
	for _, status := range models.Lifecycle {
		b.columns[status] = []models.Order{}
	}

	seen := make(map[string]bool, len(orders))
	for _, o := range orders {
		if !o.Status.Valid() {
			return nil, apperr.Validation(fmt.Sprintf("order %s has unknown status %q", o.ID, o.Status),
				map[string]string{"status": "unknown"})
		}
		if seen[o.ID] {
			return nil, apperr.Validation(fmt.Sprintf("duplicate order id %s", o.ID),
				map[string]string{"id": "duplicate"})
		}
		seen[o.ID] = true
		b.columns[o.Status] = append(b.columns[o.Status], o.Clone())
	}

	return b, nil
}

// MoveOrder moves orderID from one column to position targetIndex of another.
// It is a silent no-op when the order is not in from. Within one column it
// only repositions; across columns the order takes the destination status and
// an Event is emitted. Any pair of columns is accepted, including skips such
// as pending to delivered.
func (b *Board) MoveOrder(orderID string, from, to models.OrderStatus, targetIndex int) error {
	if !from.Valid() || !to.Valid() {
		return apperr.Validation("Unknown column", map[string]string{"column": fmt.Sprintf("%s -> %s", from, to)})
	}

	src := b.columns[from]
	i := indexOf(src, orderID)
	if i < 0 {
		return nil
	}

	order := src[i]
	src = remove(src, i)

	if from == to {
		b.columns[from] = insert(src, targetIndex, order)
		return nil
	}

	b.columns[from] = src
	order.Status = to
	b.columns[to] = insert(b.columns[to], targetIndex, order)
	b.emit(Event{OrderID: orderID, From: from, To: to, At: b.now()})
	return nil
}

// Advance moves an order one lifecycle step forward, appended at the end of
// the next column. Unknown and delivered orders are left alone. moved reports
// whether anything changed.
func (b *Board) Advance(orderID string) (moved bool) {
	status, _, ok := b.locate(orderID)
	if !ok {
		return false
	}
	next, ok := status.Next()
	if !ok {
		return false
	}
	_ = b.MoveOrder(orderID, status, next, len(b.columns[next]))
	return true
}

// AddOrder validates o and appends it to its column; an empty status means
// pending.
func (b *Board) AddOrder(o models.Order) (models.Order, error) {
	if o.Status == "" {
		o.Status = models.OrderStatusPending
	}
	if o.Timestamp.IsZero() {
		o.Timestamp = b.now()
	}

	fields := map[string]string{}
	if strings.TrimSpace(o.ID) == "" {
		fields["id"] = "required"
	} else if _, _, ok := b.locate(o.ID); ok {
		fields["id"] = "already on the board"
	}
	if strings.TrimSpace(o.Customer) == "" {
		fields["customer"] = "required"
	}
	if strings.TrimSpace(o.Address) == "" {
		fields["address"] = "required"
	}
	if len(o.Items) == 0 {
		fields["items"] = "at least one item is required"
	}
	for i, item := range o.Items {
		if strings.TrimSpace(item.Name) == "" || item.Quantity <= 0 || item.Price.IsNegative() {
			fields[fmt.Sprintf("items[%d]", i)] = "needs a name, a positive quantity and a non-negative price"
		}
	}
	if o.Total.IsNegative() {
		fields["total"] = "must not be negative"
	}
	if !o.Status.Valid() {
		fields["status"] = "unknown status"
	}
	if len(fields) > 0 {
		return models.Order{}, apperr.Validation("Invalid order", fields)
	}

	o = o.Clone()
	b.columns[o.Status] = append(b.columns[o.Status], o)
	return o.Clone(), nil
}

// Order returns a copy of the order with the given id.
func (b *Board) Order(orderID string) (models.Order, bool) {
	status, i, ok := b.locate(orderID)
	if !ok {
		return models.Order{}, false
	}
	return b.columns[status][i].Clone(), true
}

// Columns returns a deep copy of the board in lifecycle order.
func (b *Board) Columns() []Column {
	out := make([]Column, 0, len(models.Lifecycle))
	for _, status := range models.Lifecycle {
		orders := make([]models.Order, len(b.columns[status]))
		for i, o := range b.columns[status] {
			orders[i] = o.Clone()
		}
		out = append(out, Column{Status: status, Title: columnTitles[status], Orders: orders})
	}
	return out
}

// Len is the number of orders across all columns.
func (b *Board) Len() int {
	n := 0
	for _, orders := range b.columns {
		n += len(orders)
	}
	return n
}

func (b *Board) locate(orderID string) (models.OrderStatus, int, bool) {
	for _, status := range models.Lifecycle {
		if i := indexOf(b.columns[status], orderID); i >= 0 {
			return status, i, true
		}
	}
	return "", -1, false
}

func (b *Board) emit(e Event) {
	if b.listener != nil {
		b.listener(e)
	}
}

func indexOf(orders []models.Order, id string) int {
	for i, o := range orders {
		if o.ID == id {
			return i
		}
	}
	return -1
}

func remove(orders []models.Order, i int) []models.Order {
	out := make([]models.Order, 0, len(orders)-1)
	out = append(out, orders[:i]...)
	return append(out, orders[i+1:]...)
}

// insert places o at index i, clamped to [0, len(orders)].
func insert(orders []models.Order, i int, o models.Order) []models.Order {
	if i < 0 {
		i = 0
	}
	if i > len(orders) {
		i = len(orders)
	}
	out := make([]models.Order, 0, len(orders)+1)
	out = append(out, orders[:i]...)
	out = append(out, o)
	return append(out, orders[i:]...)
}
