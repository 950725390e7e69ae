// Package catalog turns product form submissions into Product records.
package catalog

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/safar/delivery-admin/internal/apperr"
	"github.com/safar/delivery-admin/internal/models"
	"github.com/shopspring/decimal"
)

// Categories is the fixed set a product may be filed under.
var Categories = []string{"luxury", "sports", "classic", "smart", "fashion"}

// Candidate is the product form as submitted. Price stays a string until
// it validates.
type Candidate struct {
	Name        string             `json:"name" validate:"min=2"`
	Description string             `json:"description" validate:"min=10"`
	Price       string             `json:"price" validate:"price"`
	Category    string             `json:"category" validate:"required,oneof=luxury sports classic smart fashion"`
	IsAvailable *bool              `json:"isAvailable,omitempty"`
	StockStatus models.StockStatus `json:"stockStatus,omitempty" validate:"omitempty,oneof=in-stock low-stock out-of-stock"`
}

var messages = map[string]string{
	"name":        "Product name must be at least 2 characters",
	"description": "Description must be at least 10 characters",
	"price":       "Price must be a valid non-negative number",
	"category":    "Please select a category",
	"stockStatus": "Stock status must be in-stock, low-stock or out-of-stock",
}

type Catalog struct {
	validate *validator.Validate
	now      func() time.Time
	newID    func() string
}

func New() *Catalog {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	_ = v.RegisterValidation("price", func(fl validator.FieldLevel) bool {
		_, err := parsePrice(fl.Field().String())
		return err == nil
	})

	return &Catalog{
		validate: v,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Validate returns a message for every failing field. An empty map means the
// candidate is acceptable.
func (c *Catalog) Validate(cand Candidate) map[string]string {
	cand = normalize(cand)
	fields := map[string]string{}

	err := c.validate.Struct(cand)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields[fe.Field()] = messages[fe.Field()]
		}
	}
	return fields
}

// Submit builds a new product from a valid candidate.
func (c *Catalog) Submit(cand Candidate, images []string) (models.Product, error) {
	if fields := c.Validate(cand); len(fields) > 0 {
		return models.Product{}, apperr.Validation("Invalid product", fields)
	}
	cand = normalize(cand)

	return c.build(models.Product{ID: c.newID(), CreatedAt: c.now()}, cand, images), nil
}

// Edit applies a valid candidate to existing. Images replace the current set
// only when non-empty.
func (c *Catalog) Edit(existing models.Product, cand Candidate, images []string) (models.Product, error) {
	if fields := c.Validate(cand); len(fields) > 0 {
		return models.Product{}, apperr.Validation("Invalid product", fields)
	}
	cand = normalize(cand)

	if len(images) == 0 {
		images = existing.Images
	}
	return c.build(existing.Clone(), cand, images), nil
}

func (c *Catalog) build(p models.Product, cand Candidate, images []string) models.Product {
	price, _ := parsePrice(cand.Price)

	p.Name = cand.Name
	p.Description = cand.Description
	p.Price = price
	p.Category = cand.Category
	p.StockStatus = stockStatus(cand)
	p.Images = append([]string(nil), images...)
	return p
}

// Filter keeps products in the given stock status (empty matches all) whose
// name or category contains search, case-insensitively.
func Filter(products []models.Product, status models.StockStatus, search string) []models.Product {
	search = strings.ToLower(strings.TrimSpace(search))
	out := []models.Product{}
	for _, p := range products {
		if status != "" && p.StockStatus != status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Category), search) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func normalize(cand Candidate) Candidate {
	cand.Name = strings.TrimSpace(cand.Name)
	cand.Description = strings.TrimSpace(cand.Description)
	cand.Price = strings.TrimSpace(cand.Price)
	cand.Category = strings.ToLower(strings.TrimSpace(cand.Category))
	return cand
}

func stockStatus(cand Candidate) models.StockStatus {
	if cand.StockStatus != "" {
		return cand.StockStatus
	}
	if cand.IsAvailable != nil && !*cand.IsAvailable {
		return models.OutOfStock
	}
	return models.InStock
}

func parsePrice(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, err
	}
	if d.IsNegative() {
		return decimal.Decimal{}, errNegativePrice
	}
	return d, nil
}

var errNegativePrice = errors.New("negative price")
