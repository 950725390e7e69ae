package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
)

// User is the public projection of a users row. The password hash is
// deliberately absent.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         Role      `json:"role"`
	ProfileImage string    `json:"profile_image"`
	CreatedAt    time.Time `json:"created_at"`
}

type StockStatus string

const (
	InStock    StockStatus = "in-stock"
	LowStock   StockStatus = "low-stock"
	OutOfStock StockStatus = "out-of-stock"
)

func (s StockStatus) Valid() bool {
	switch s {
	case InStock, LowStock, OutOfStock:
		return true
	}
	return false
}

type Product struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Description      string           `json:"description,omitempty"`
	Price            decimal.Decimal  `json:"price"`
	Category         string           `json:"category"`
	StockStatus      StockStatus      `json:"stock_status"`
	Images           []string         `json:"images,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	AssignedDelivery *DeliveryService `json:"assigned_delivery,omitempty"`
}

// Clone returns a copy that shares no mutable state with p.
func (p Product) Clone() Product {
	if p.Images != nil {
		p.Images = append([]string(nil), p.Images...)
	}
	if p.AssignedDelivery != nil {
		svc := *p.AssignedDelivery
		p.AssignedDelivery = &svc
	}
	return p
}

type DeliveryService struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	EstimatedTime string          `json:"estimated_time"`
	Rating        float64         `json:"rating"`
	Available     bool            `json:"available"`
	Image         string          `json:"image,omitempty"`
}

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusOutForDelivery OrderStatus = "out-for-delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
)

// Lifecycle lists the order statuses in fulfillment order.
var Lifecycle = []OrderStatus{
	OrderStatusPending,
	OrderStatusPreparing,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
}

func (s OrderStatus) Valid() bool {
	return s.Index() >= 0
}

// Index is the position of s in Lifecycle, or -1.
func (s OrderStatus) Index() int {
	for i, status := range Lifecycle {
		if status == s {
			return i
		}
	}
	return -1
}

// Next returns the following lifecycle status. ok is false for delivered and
// for unknown statuses.
func (s OrderStatus) Next() (next OrderStatus, ok bool) {
	i := s.Index()
	if i < 0 || i == len(Lifecycle)-1 {
		return "", false
	}
	return Lifecycle[i+1], true
}

type LineItem struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type Order struct {
	ID        string          `json:"id"`
	Customer  string          `json:"customer"`
	Phone     string          `json:"phone"`
	Address   string          `json:"address"`
	Items     []LineItem      `json:"items"`
	Total     decimal.Decimal `json:"total"`
	Status    OrderStatus     `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
}

func (o Order) Clone() Order {
	if o.Items != nil {
		o.Items = append([]LineItem(nil), o.Items...)
	}
	return o
}
