package delivery

import (
	"testing"
	"time"

	"github.com/safar/delivery-admin/internal/apperr"
	"github.com/safar/delivery-admin/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	express = models.DeliveryService{
		ID: "1", Name: "Express Delivery", Price: decimal.RequireFromString("15.99"),
		EstimatedTime: "30-45 min", Rating: 4.8, Available: true,
	}
	standard = models.DeliveryService{
		ID: "2", Name: "Standard Delivery", Price: decimal.RequireFromString("8.99"),
		EstimatedTime: "60-90 min", Rating: 4.5, Available: true,
	}
	premium = models.DeliveryService{
		ID: "4", Name: "Premium Delivery", Price: decimal.RequireFromString("24.99"),
		EstimatedTime: "15-30 min", Rating: 4.9, Available: false,
	}
)

func newController(t *testing.T) *Controller {
	t.Helper()
	created := time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC)
	c, err := New([]models.Product{
		{ID: "p1", Name: "Luxury Chronograph Watch", Price: decimal.RequireFromString("299.99"), Category: "luxury", StockStatus: models.InStock, CreatedAt: created},
		{ID: "p2", Name: "Sports Digital Watch", Price: decimal.RequireFromString("149.50"), Category: "sports", StockStatus: models.LowStock, CreatedAt: created},
	}, []models.DeliveryService{express, standard, premium})
	require.NoError(t, err)
	return c
}

func TestAssignThenUnassign(t *testing.T) {
	c := newController(t)

	p, err := c.Assign("p1", express)
	require.NoError(t, err)
	require.NotNil(t, p.AssignedDelivery)
	assert.Equal(t, "1", p.AssignedDelivery.ID)

	p, err = c.Unassign("p1")
	require.NoError(t, err)
	assert.Nil(t, p.AssignedDelivery)

	stored, ok := c.Product("p1")
	require.True(t, ok)
	assert.Nil(t, stored.AssignedDelivery)
}

func TestAssignReplacesPrevious(t *testing.T) {
	c := newController(t)

	_, err := c.Assign("p1", express)
	require.NoError(t, err)
	p, err := c.Assign("p1", standard)
	require.NoError(t, err)
	assert.Equal(t, "2", p.AssignedDelivery.ID)
	assert.Equal(t, Stats{Total: 2, AssignedCount: 1, UnassignedCount: 1}, c.Stats())
}

func TestAssignUnavailableKeepsPrior(t *testing.T) {
	c := newController(t)

	_, err := c.Assign("p1", express)
	require.NoError(t, err)

	_, err = c.Assign("p1", premium)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	p, _ := c.Product("p1")
	require.NotNil(t, p.AssignedDelivery)
	assert.Equal(t, "1", p.AssignedDelivery.ID)

	_, err = c.Assign("p2", premium)
	require.Error(t, err)
	p, _ = c.Product("p2")
	assert.Nil(t, p.AssignedDelivery)
}

func TestAssignUnknownProduct(t *testing.T) {
	c := newController(t)

	_, err := c.Assign("nope", express)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = c.Unassign("nope")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestUnassignWhenUnassigned(t *testing.T) {
	c := newController(t)

	p, err := c.Unassign("p2")
	require.NoError(t, err)
	assert.Nil(t, p.AssignedDelivery)
}

func TestAssignFromCatalog(t *testing.T) {
	c := newController(t)

	price := decimal.RequireFromString("12.00")
	p, err := c.AssignFromCatalog("p1", "1", Override{Price: &price, EstimatedTime: "20-30 min"})
	require.NoError(t, err)
	assert.True(t, price.Equal(p.AssignedDelivery.Price))
	assert.Equal(t, "20-30 min", p.AssignedDelivery.EstimatedTime)

	// the catalog entry itself is untouched
	assert.True(t, express.Price.Equal(c.Services()[0].Price))
	assert.Equal(t, "30-45 min", c.Services()[0].EstimatedTime)

	p, err = c.AssignFromCatalog("p2", "2", Override{})
	require.NoError(t, err)
	assert.True(t, standard.Price.Equal(p.AssignedDelivery.Price))

	_, err = c.AssignFromCatalog("p2", "99", Override{})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = c.AssignFromCatalog("p2", "4", Override{})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	negative := decimal.NewFromInt(-1)
	_, err = c.AssignFromCatalog("p2", "2", Override{Price: &negative})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	p, _ = c.Product("p2")
	assert.Equal(t, "2", p.AssignedDelivery.ID)
	assert.True(t, standard.Price.Equal(p.AssignedDelivery.Price))
}

func TestStatsInvariant(t *testing.T) {
	c := newController(t)

	check := func() {
		s := c.Stats()
		assert.Equal(t, s.Total, s.AssignedCount+s.UnassignedCount)
		assert.Equal(t, len(c.Products()), s.Total)
	}

	check()
	_, _ = c.Assign("p1", express)
	check()
	_, _ = c.Add(models.Product{ID: "p3", Name: "Minimalist Watch", Price: decimal.RequireFromString("129.99")})
	check()
	require.NoError(t, c.Remove("p1"))
	check()
	assert.Equal(t, Stats{Total: 2, AssignedCount: 0, UnassignedCount: 2}, c.Stats())
}

func TestAddUpdateRemove(t *testing.T) {
	c := newController(t)

	_, err := c.Add(models.Product{ID: "p1"})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	_, err = c.Add(models.Product{})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = c.Assign("p2", standard)
	require.NoError(t, err)

	updated, err := c.Update(models.Product{ID: "p2", Name: "Sports Watch", Price: decimal.RequireFromString("139.00"), Category: "sports"})
	require.NoError(t, err)
	assert.Equal(t, "Sports Watch", updated.Name)
	require.NotNil(t, updated.AssignedDelivery)
	assert.Equal(t, "2", updated.AssignedDelivery.ID)
	assert.Equal(t, 2023, updated.CreatedAt.Year())

	_, err = c.Update(models.Product{ID: "nope"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	require.NoError(t, c.Remove("p2"))
	_, ok := c.Product("p2")
	assert.False(t, ok)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(c.Remove("p2")))
}

func TestSnapshotsAreDetached(t *testing.T) {
	c := newController(t)
	_, err := c.Assign("p1", express)
	require.NoError(t, err)

	products := c.Products()
	products[0].AssignedDelivery.Name = "mutated"
	products[0].Name = "mutated"

	p, _ := c.Product("p1")
	assert.Equal(t, "Luxury Chronograph Watch", p.Name)
	assert.Equal(t, "Express Delivery", p.AssignedDelivery.Name)
}

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := New(nil, []models.DeliveryService{express, express})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = New([]models.Product{{ID: "a"}, {ID: "a"}}, nil)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}
