package model

import "time"

// DeliveryStatus tracks fulfillment of an order. Any status may be set from
// any other status; no transition graph is enforced.
type DeliveryStatus string

const (
	StatusPending    DeliveryStatus = "pending"
	StatusInProgress DeliveryStatus = "in_progress"
	StatusDelivered  DeliveryStatus = "delivered"
	StatusCancelled  DeliveryStatus = "cancelled"
)

func (s DeliveryStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

type Order struct {
	ID             int64          `json:"id"`
	UserID         int64          `json:"user_id"`
	OrderDate      time.Time      `json:"order_date"`
	OrderTotal     float64        `json:"order_total"`
	DeliveryStatus DeliveryStatus `json:"delivery_status"`
	User           *User          `json:"user,omitempty"`
	OrderItems     []OrderItem    `json:"order_items"`
}

type OrderItem struct {
	ID        int64   `json:"id"`
	OrderID   int64   `json:"order_id"`
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}
