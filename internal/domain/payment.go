package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const PaymentStatusSuccess = "Success"

type Payment struct {
	ID            string          `json:"payment_id"`
	OrderID       string          `json:"order_id"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	PaymentMethod string          `json:"payment_method"`
	PaymentStatus string          `json:"payment_status"`
	TransactionID string          `json:"transaction_id"`
	CreatedAt     time.Time       `json:"created_at"`
}
