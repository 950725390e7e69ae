// Package analytics computes the dashboard summary from snapshots of the
// board and the product collection.
package analytics

import (
	"sort"

	"github.com/safar/delivery-admin/internal/board"
	"github.com/safar/delivery-admin/internal/delivery"
	"github.com/safar/delivery-admin/internal/models"
	"github.com/shopspring/decimal"
)

const popularItemsLimit = 5

type DayCount struct {
	Date   string `json:"date"`
	Orders int    `json:"orders"`
}

type ItemCount struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type Overview struct {
	TotalOrders       int                        `json:"total_orders"`
	TotalProducts     int                        `json:"total_products"`
	TotalRevenue      decimal.Decimal            `json:"total_revenue"`
	AverageOrderValue decimal.Decimal            `json:"average_order_value"`
	PendingDeliveries int                        `json:"pending_deliveries"`
	CompletionRate    float64                    `json:"completion_rate"`
	OrdersByStatus    map[models.OrderStatus]int `json:"orders_by_status"`
	ProductsByStock   map[models.StockStatus]int `json:"products_by_stock"`
	Assignments       delivery.Stats             `json:"assignments"`
	DailyOrders       []DayCount                 `json:"daily_orders"`
	PopularItems      []ItemCount                `json:"popular_items"`
}

// Compute builds an Overview. Revenue counts delivered orders only; the
// average and completion rate are zero on an empty board.
func Compute(columns []board.Column, products []models.Product, stats delivery.Stats) Overview {
	ov := Overview{
		TotalProducts:   len(products),
		TotalRevenue:    decimal.Zero,
		OrdersByStatus:  make(map[models.OrderStatus]int, len(models.Lifecycle)),
		ProductsByStock: map[models.StockStatus]int{models.InStock: 0, models.LowStock: 0, models.OutOfStock: 0},
		Assignments:     stats,
	}
	for _, status := range models.Lifecycle {
		ov.OrdersByStatus[status] = 0
	}

	days := map[string]int{}
	items := map[string]int{}
	for _, col := range columns {
		for _, o := range col.Orders {
			ov.TotalOrders++
			ov.OrdersByStatus[o.Status]++
			if o.Status == models.OrderStatusDelivered {
				ov.TotalRevenue = ov.TotalRevenue.Add(o.Total)
			} else {
				ov.PendingDeliveries++
			}
			if !o.Timestamp.IsZero() {
				days[o.Timestamp.UTC().Format("2006-01-02")]++
			}
			for _, item := range o.Items {
				items[item.Name] += item.Quantity
			}
		}
	}

	if delivered := ov.OrdersByStatus[models.OrderStatusDelivered]; delivered > 0 {
		ov.AverageOrderValue = ov.TotalRevenue.Div(decimal.NewFromInt(int64(delivered))).Round(2)
	} else {
		ov.AverageOrderValue = decimal.Zero
	}
	if ov.TotalOrders > 0 {
		ov.CompletionRate = float64(ov.OrdersByStatus[models.OrderStatusDelivered]) / float64(ov.TotalOrders)
	}

	for _, p := range products {
		ov.ProductsByStock[p.StockStatus]++
	}

	ov.DailyOrders = make([]DayCount, 0, len(days))
	for day, n := range days {
		ov.DailyOrders = append(ov.DailyOrders, DayCount{Date: day, Orders: n})
	}
	sort.Slice(ov.DailyOrders, func(i, j int) bool { return ov.DailyOrders[i].Date < ov.DailyOrders[j].Date })

	ov.PopularItems = make([]ItemCount, 0, len(items))
	for name, qty := range items {
		ov.PopularItems = append(ov.PopularItems, ItemCount{Name: name, Quantity: qty})
	}
	sort.Slice(ov.PopularItems, func(i, j int) bool {
		a, b := ov.PopularItems[i], ov.PopularItems[j]
		if a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}
		return a.Name < b.Name
	})
	if len(ov.PopularItems) > popularItemsLimit {
		ov.PopularItems = ov.PopularItems[:popularItemsLimit]
	}

	return ov
}
