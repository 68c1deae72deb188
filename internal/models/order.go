package models

import (
	"time"

	"github.com/jinzhu/gorm"
)

// Order represents a customer order placed through the waiter
type Order struct {
	gorm.Model
	RestaurantID uint
	SessionID    uint
	TableNumber  int
	Items        []OrderItem `gorm:"foreignkey:OrderID"`
	Status       string
	Total        float64
	PlacedAt     time.Time
}

// OrderItem represents a line item in an order
type OrderItem struct {
	gorm.Model
	OrderID    uint
	MenuItemID uint
	Name       string
	Quantity   int
	UnitPrice  float64
	LineTotal  float64
	Notes      string
}

// OrderStatus represents the possible states of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusServed    OrderStatus = "served"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Modifiable reports whether an order in this status can still be changed.
// Only pending orders are; once the kitchen picks an order up it is locked
// for good.
func (s OrderStatus) Modifiable() bool {
	return s == OrderStatusPending
}

// StatusModifiability maps every order status to its modifiability
func StatusModifiability() map[OrderStatus]bool {
	return map[OrderStatus]bool{
		OrderStatusPending:   true,
		OrderStatusPreparing: false,
		OrderStatusReady:     false,
		OrderStatusServed:    false,
		OrderStatusCancelled: false,
	}
}
