package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TopicOrderPlaced = "order.placed"
	TopicOrderPaid   = "order.paid"
)

type OrderPlacedEvent struct {
	OrderID    string          `json:"order_id"`
	UserID     int64           `json:"user_id"`
	Items      []OrderItem     `json:"items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Timestamp  time.Time       `json:"timestamp"`
}

type OrderPaidEvent struct {
	OrderID       string          `json:"order_id"`
	PaymentID     string          `json:"payment_id"`
	UserID        int64           `json:"user_id"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	TransactionID string          `json:"transaction_id"`
	Timestamp     time.Time       `json:"timestamp"`
}
