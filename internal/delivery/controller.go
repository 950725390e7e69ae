// Package delivery owns the product collection and the binding of delivery
// services to products.
//
// A Controller is not safe for concurrent use; dashboard.Dispatcher
// serializes access to it.
package delivery

import (
	"fmt"
	"strings"

	"github.com/safar/delivery-admin/internal/apperr"
	"github.com/safar/delivery-admin/internal/models"
	"github.com/shopspring/decimal"
)

type Stats struct {
	Total           int `json:"total"`
	AssignedCount   int `json:"assigned_count"`
	UnassignedCount int `json:"unassigned_count"`
}

// Override replaces the catalog price or estimated time for one assignment.
// Zero values keep the catalog entry's value.
type Override struct {
	Price         *decimal.Decimal
	EstimatedTime string
}

type Controller struct {
	products []models.Product
	services []models.DeliveryService
}

func New(products []models.Product, services []models.DeliveryService) (*Controller, error) {
	c := &Controller{
		products: make([]models.Product, 0, len(products)),
		services: make([]models.DeliveryService, 0, len(services)),
	}
	for _, svc := range services {
		if c.serviceIndex(svc.ID) >= 0 {
			return nil, apperr.Validation(fmt.Sprintf("duplicate delivery service id %s", svc.ID),
				map[string]string{"id": "duplicate"})
		}
		c.services = append(c.services, svc)
	}
	for _, p := range products {
		if _, err := c.Add(p); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Assign binds svc to the product, replacing any previous assignment. An
// unavailable service is rejected and the product is left as it was.
func (c *Controller) Assign(productID string, svc models.DeliveryService) (models.Product, error) {
	i := c.productIndex(productID)
	if i < 0 {
		return models.Product{}, productNotFound(productID)
	}
	if !svc.Available {
		return models.Product{}, apperr.Validation(fmt.Sprintf("Delivery service %s is not available", svc.Name),
			map[string]string{"serviceId": "service is not available"})
	}
	if svc.Price.IsNegative() {
		return models.Product{}, apperr.Validation("Delivery price must not be negative",
			map[string]string{"price": "must not be negative"})
	}

	c.products[i].AssignedDelivery = &svc
	return c.products[i].Clone(), nil
}

// AssignFromCatalog looks serviceID up in the service catalog, applies the
// override and assigns the result.
func (c *Controller) AssignFromCatalog(productID, serviceID string, o Override) (models.Product, error) {
	if c.productIndex(productID) < 0 {
		return models.Product{}, productNotFound(productID)
	}
	j := c.serviceIndex(serviceID)
	if j < 0 {
		return models.Product{}, apperr.NotFound("Delivery service not found")
	}

	svc := c.services[j]
	if o.Price != nil {
		svc.Price = *o.Price
	}
	if et := strings.TrimSpace(o.EstimatedTime); et != "" {
		svc.EstimatedTime = et
	}
	return c.Assign(productID, svc)
}

// Unassign clears the product's assignment. Clearing an unassigned product
// is not an error.
func (c *Controller) Unassign(productID string) (models.Product, error) {
	i := c.productIndex(productID)
	if i < 0 {
		return models.Product{}, productNotFound(productID)
	}
	c.products[i].AssignedDelivery = nil
	return c.products[i].Clone(), nil
}

func (c *Controller) Stats() Stats {
	s := Stats{Total: len(c.products)}
	for _, p := range c.products {
		if p.AssignedDelivery != nil {
			s.AssignedCount++
		} else {
			s.UnassignedCount++
		}
	}
	return s
}

// Add appends a new product. The id must be set and unused.
func (c *Controller) Add(p models.Product) (models.Product, error) {
	if strings.TrimSpace(p.ID) == "" {
		return models.Product{}, apperr.Validation("Product id is required", map[string]string{"id": "required"})
	}
	if c.productIndex(p.ID) >= 0 {
		return models.Product{}, apperr.Conflict(fmt.Sprintf("Product %s already exists", p.ID))
	}
	if p.Price.IsNegative() {
		return models.Product{}, apperr.Validation("Price must not be negative", map[string]string{"price": "must not be negative"})
	}
	c.products = append(c.products, p.Clone())
	return p.Clone(), nil
}

// Update replaces the stored product with p, keeping its id, creation time
// and current assignment.
func (c *Controller) Update(p models.Product) (models.Product, error) {
	i := c.productIndex(p.ID)
	if i < 0 {
		return models.Product{}, productNotFound(p.ID)
	}
	if p.Price.IsNegative() {
		return models.Product{}, apperr.Validation("Price must not be negative", map[string]string{"price": "must not be negative"})
	}

	current := c.products[i]
	p = p.Clone()
	p.CreatedAt = current.CreatedAt
	p.AssignedDelivery = current.AssignedDelivery
	c.products[i] = p
	return p.Clone(), nil
}

func (c *Controller) Remove(productID string) error {
	i := c.productIndex(productID)
	if i < 0 {
		return productNotFound(productID)
	}
	c.products = append(c.products[:i:i], c.products[i+1:]...)
	return nil
}

func (c *Controller) Product(productID string) (models.Product, bool) {
	i := c.productIndex(productID)
	if i < 0 {
		return models.Product{}, false
	}
	return c.products[i].Clone(), true
}

// Products returns a copy of the collection in insertion order.
func (c *Controller) Products() []models.Product {
	out := make([]models.Product, len(c.products))
	for i, p := range c.products {
		out[i] = p.Clone()
	}
	return out
}

func (c *Controller) Services() []models.DeliveryService {
	return append([]models.DeliveryService{}, c.services...)
}

func (c *Controller) productIndex(id string) int {
	for i, p := range c.products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (c *Controller) serviceIndex(id string) int {
	for i, s := range c.services {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func productNotFound(id string) error {
	return apperr.NotFound(fmt.Sprintf("Product %s not found", id))
}
