package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderStatus tracks an order through fulfilment.
type OrderStatus string

const (
	OrderStatusPlaced    OrderStatus = "placed"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// allowedOrderTransitions maps each status to the statuses it may move to.
var allowedOrderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPlaced:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

// CanTransitionTo reports whether an order in status s may move to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range allowedOrderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Order is a customer purchase of one or more catalog products.
type Order struct {
	ID         string      `gorm:"primaryKey;type:uuid" json:"id"`
	UserID     string      `gorm:"type:uuid;not null;index" json:"user_id"`
	Status     OrderStatus `gorm:"size:16;not null;default:'placed';index" json:"status"`
	TotalCents int64       `gorm:"not null" json:"total_cents"`
	Currency   string      `gorm:"size:3;default:'EUR'" json:"currency"`
	Address    string      `gorm:"type:text" json:"address"`
	Note       string      `gorm:"type:text" json:"note,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

// OrderItem is one product line within an order. Price is frozen at
// order time so later catalog edits do not change past orders.
type OrderItem struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"id"`
	OrderID    string `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID  string `gorm:"type:uuid;not null" json:"product_id"`
	Name       string `gorm:"not null" json:"name"` // snapshot of product name
	Quantity   int    `gorm:"not null;default:1" json:"quantity"`
	PriceCents int64  `gorm:"not null" json:"price_cents"`
}
