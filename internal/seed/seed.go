// Package seed provides the starter data loaded when SEED_DATA is set.
package seed

import (
	"time"

	"github.com/safar/delivery-admin/internal/models"
	"github.com/shopspring/decimal"
)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(d int) time.Time {
	return time.Date(2023, time.May, d, 0, 0, 0, 0, time.UTC)
}

func Products() []models.Product {
	return []models.Product{
		{ID: "1", Name: "Luxury Chronograph Watch", Description: "Swiss chronograph with sapphire crystal and steel bracelet.",
			Price: price("299.99"), Category: "luxury", StockStatus: models.InStock, CreatedAt: day(15)},
		{ID: "2", Name: "Sports Digital Watch", Description: "Water resistant digital watch with stopwatch and backlight.",
			Price: price("149.50"), Category: "sports", StockStatus: models.LowStock, CreatedAt: day(14)},
		{ID: "3", Name: "Classic Leather Watch", Description: "Analog dress watch on a genuine leather strap.",
			Price: price("199.99"), Category: "classic", StockStatus: models.InStock, CreatedAt: day(16)},
		{ID: "4", Name: "Smart Watch Pro", Description: "Fitness tracking, notifications and a week of battery life.",
			Price: price("349.99"), Category: "smart", StockStatus: models.OutOfStock, CreatedAt: day(13)},
		{ID: "5", Name: "Minimalist Watch", Description: "Slim case and clean dial for everyday wear.",
			Price: price("129.99"), Category: "fashion", StockStatus: models.InStock, CreatedAt: day(17)},
	}
}

func Services() []models.DeliveryService {
	return []models.DeliveryService{
		{ID: "1", Name: "Express Delivery", Price: price("15.99"), EstimatedTime: "30-45 min", Rating: 4.8, Available: true},
		{ID: "2", Name: "Standard Delivery", Price: price("8.99"), EstimatedTime: "60-90 min", Rating: 4.5, Available: true},
		{ID: "3", Name: "Economy Delivery", Price: price("5.99"), EstimatedTime: "90-120 min", Rating: 4.2, Available: true},
		{ID: "4", Name: "Premium Delivery", Price: price("24.99"), EstimatedTime: "15-30 min", Rating: 4.9, Available: false},
	}
}

func line(name, p string) models.LineItem {
	return models.LineItem{Name: name, Quantity: 1, Price: price(p)}
}

// Orders returns one or two orders per board column, all stamped with now.
func Orders(now time.Time) []models.Order {
	return []models.Order{
		{ID: "order-1", Customer: "John Doe", Phone: "(555) 123-4567", Address: "123 Main St, Anytown",
			Items: []models.LineItem{line("Organic Apples (2kg)", "9.49"), line("Whole Wheat Bread", "6.50")},
			Total: price("15.99"), Status: models.OrderStatusPending, Timestamp: now},
		{ID: "order-2", Customer: "Jane Smith", Phone: "(555) 987-6543", Address: "456 Oak Ave, Somewhere",
			Items: []models.LineItem{line("Free Range Eggs", "6.00"), line("Organic Milk", "7.50"), line("Cheese", "9.00")},
			Total: price("22.50"), Status: models.OrderStatusPending, Timestamp: now},
		{ID: "order-3", Customer: "Robert Johnson", Phone: "(555) 456-7890", Address: "789 Pine Rd, Elsewhere",
			Items: []models.LineItem{line("Fresh Salmon Fillet", "22.75"), line("Asparagus Bundle", "6.50"), line("Lemon", "3.50")},
			Total: price("32.75"), Status: models.OrderStatusPreparing, Timestamp: now},
		{ID: "order-4", Customer: "Emily Davis", Phone: "(555) 234-5678", Address: "321 Maple Dr, Nowhere",
			Items: []models.LineItem{line("Organic Chicken", "18.99"), line("Sweet Potatoes", "5.00"), line("Broccoli", "5.00")},
			Total: price("28.99"), Status: models.OrderStatusOutForDelivery, Timestamp: now},
		{ID: "order-5", Customer: "Michael Wilson", Phone: "(555) 876-5432", Address: "654 Cedar Ln, Anywhere",
			Items: []models.LineItem{line("Avocados (4)", "8.75"), line("Tortilla Chips", "4.50"), line("Salsa", "5.00")},
			Total: price("18.25"), Status: models.OrderStatusDelivered, Timestamp: now},
		{ID: "order-6", Customer: "Sarah Brown", Phone: "(555) 345-6789", Address: "987 Birch St, Someplace",
			Items: []models.LineItem{line("Pasta", "3.49"), line("Tomato Sauce", "4.00"), line("Parmesan Cheese", "5.50")},
			Total: price("12.99"), Status: models.OrderStatusDelivered, Timestamp: now},
	}
}
