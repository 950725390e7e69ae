package dashboard

import (
	"fmt"

	"github.com/safar/delivery-admin/internal/analytics"
	"github.com/safar/delivery-admin/internal/apperr"
	"github.com/safar/delivery-admin/internal/board"
	"github.com/safar/delivery-admin/internal/catalog"
	"github.com/safar/delivery-admin/internal/delivery"
	"github.com/safar/delivery-admin/internal/models"
)

// Intent is a request applied on the owner goroutine.
type Intent interface {
	apply(s *state) (any, error)
}

type MoveOrder struct {
	OrderID string
	From    models.OrderStatus
	To      models.OrderStatus
	Index   int
}

func (i MoveOrder) apply(s *state) (any, error) {
	if err := s.board.MoveOrder(i.OrderID, i.From, i.To, i.Index); err != nil {
		return nil, err
	}
	return s.board.Columns(), nil
}

type AdvanceResult struct {
	Moved   bool           `json:"moved"`
	Columns []board.Column `json:"columns"`
}

type AdvanceOrder struct {
	OrderID string
}

func (i AdvanceOrder) apply(s *state) (any, error) {
	if _, ok := s.board.Order(i.OrderID); !ok {
		return nil, orderNotFound(i.OrderID)
	}
	moved := s.board.Advance(i.OrderID)
	return AdvanceResult{Moved: moved, Columns: s.board.Columns()}, nil
}

// AddOrder places a new order on the board. An empty ID is generated.
type AddOrder struct {
	Order models.Order
}

func (i AddOrder) apply(s *state) (any, error) {
	o := i.Order
	if o.ID == "" {
		o.ID = s.newOrderID()
	}
	return s.board.AddOrder(o)
}

type GetBoard struct{}

func (GetBoard) apply(s *state) (any, error) {
	return s.board.Columns(), nil
}

type GetOrder struct {
	OrderID string
}

func (i GetOrder) apply(s *state) (any, error) {
	o, ok := s.board.Order(i.OrderID)
	if !ok {
		return nil, orderNotFound(i.OrderID)
	}
	return o, nil
}

type SubmitProduct struct {
	Candidate catalog.Candidate
	Images    []string
}

func (i SubmitProduct) apply(s *state) (any, error) {
	p, err := s.catalog.Submit(i.Candidate, i.Images)
	if err != nil {
		return nil, err
	}
	return s.products.Add(p)
}

type UpdateProduct struct {
	ProductID string
	Candidate catalog.Candidate
	Images    []string
}

func (i UpdateProduct) apply(s *state) (any, error) {
	existing, ok := s.products.Product(i.ProductID)
	if !ok {
		return nil, productNotFound(i.ProductID)
	}
	edited, err := s.catalog.Edit(existing, i.Candidate, i.Images)
	if err != nil {
		return nil, err
	}
	return s.products.Update(edited)
}

type RemoveProduct struct {
	ProductID string
}

func (i RemoveProduct) apply(s *state) (any, error) {
	return nil, s.products.Remove(i.ProductID)
}

type GetProduct struct {
	ProductID string
}

func (i GetProduct) apply(s *state) (any, error) {
	p, ok := s.products.Product(i.ProductID)
	if !ok {
		return nil, productNotFound(i.ProductID)
	}
	return p, nil
}

type ListProducts struct {
	Status   models.StockStatus
	Search   string
	Page     int
	PageSize int
}

func (i ListProducts) apply(s *state) (any, error) {
	if i.Status != "" && !i.Status.Valid() {
		return nil, apperr.Validation("Unknown stock status", map[string]string{"status": "must be in-stock, low-stock or out-of-stock"})
	}
	filtered := catalog.Filter(s.products.Products(), i.Status, i.Search)
	return catalog.Paginate(filtered, i.Page, i.PageSize), nil
}

type AssignDelivery struct {
	ProductID string
	ServiceID string
	Override  delivery.Override
}

func (i AssignDelivery) apply(s *state) (any, error) {
	return s.products.AssignFromCatalog(i.ProductID, i.ServiceID, i.Override)
}

type UnassignDelivery struct {
	ProductID string
}

func (i UnassignDelivery) apply(s *state) (any, error) {
	return s.products.Unassign(i.ProductID)
}

type ListServices struct{}

func (ListServices) apply(s *state) (any, error) {
	return s.products.Services(), nil
}

type DeliveryStats struct{}

func (DeliveryStats) apply(s *state) (any, error) {
	return s.products.Stats(), nil
}

type Overview struct{}

func (Overview) apply(s *state) (any, error) {
	return analytics.Compute(s.board.Columns(), s.products.Products(), s.products.Stats()), nil
}

func orderNotFound(id string) error {
	return apperr.NotFound(fmt.Sprintf("Order %s not found", id))
}

func productNotFound(id string) error {
	return apperr.NotFound(fmt.Sprintf("Product %s not found", id))
}
