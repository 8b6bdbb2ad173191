package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderLine is one requested (game, quantity) pair, before pricing.
type OrderLine struct {
	GameID   int64 `json:"game_id"`
	Quantity int   `json:"quantity"`
}

// OrderItem records a purchased line with the game price snapshotted at order
// time, so later catalog price changes never alter historical orders.
type OrderItem struct {
	ID              int64           `json:"order_item_id"`
	OrderID         string          `json:"order_id"`
	GameID          int64           `json:"game_id"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
}

type Order struct {
	ID         string          `json:"order_id"`
	UserID     int64           `json:"user_id"`
	Items      []OrderItem     `json:"order_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Status     OrderStatus     `json:"status"`
	OrderDate  time.Time       `json:"order_date"`
}
