package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/gamestore-labs/gamestore/internal/domain"
)

// PaymentRecorder attaches a simulated payment to a pending order and marks
// it paid. One payment per order, ever.
type PaymentRecorder struct {
	db        *sql.DB
	publisher Publisher
	logger    *slog.Logger
}

func NewPaymentRecorder(db *sql.DB, publisher Publisher, logger *slog.Logger) *PaymentRecorder {
	return &PaymentRecorder{
		db:        db,
		publisher: publisher,
		logger:    logger,
	}
}

// RecordPayment verifies the amount against the order total and, on match,
// writes the payment and flips the order to paid in one transaction. The
// gateway is simulated: a matching amount always succeeds.
func (p *PaymentRecorder) RecordPayment(ctx context.Context, orderID string, amount decimal.Decimal, method string, requesterID int64, elevated bool) (*domain.Payment, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var (
		userID    int64
		total     decimal.Decimal
		status    domain.OrderStatus
		orderDate time.Time
	)
	// FOR UPDATE serializes concurrent payment attempts on the same order.
	err = tx.QueryRowContext(ctx, `
		SELECT user_id, total_price, status, order_date
		FROM orders
		WHERE order_id = $1
		FOR UPDATE
	`, orderID).Scan(&userID, &total, &status, &orderDate)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}

	if userID != requesterID && !elevated {
		return nil, domain.ErrForbidden
	}

	switch status {
	case domain.OrderStatusPending:
	case domain.OrderStatusPaid:
		return nil, domain.ErrOrderAlreadyPaid
	default:
		return nil, fmt.Errorf("order %s cannot be paid in status %q", orderID, status)
	}

	if !amount.Equal(total) {
		return nil, &domain.AmountMismatchError{Expected: total, Actual: amount}
	}

	payment := &domain.Payment{
		ID:            uuid.New().String(),
		OrderID:       orderID,
		AmountPaid:    amount,
		PaymentMethod: method,
		PaymentStatus: domain.PaymentStatusSuccess,
		TransactionID: transactionID(orderID, orderDate),
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO payments (payment_id, order_id, amount_paid, payment_method, payment_status, transaction_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, payment.ID, payment.OrderID, payment.AmountPaid, payment.PaymentMethod, payment.PaymentStatus, payment.TransactionID).Scan(&payment.CreatedAt)
	if err != nil {
		// UNIQUE(order_id) backstop, in case the status check is ever bypassed.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, domain.ErrOrderAlreadyPaid
		}
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE orders SET status = $2 WHERE order_id = $1
	`, orderID, domain.OrderStatusPaid)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	p.publishPaid(ctx, payment, userID)

	return payment, nil
}

// transactionID derives a stable id from the order identity and timestamp, so
// replayed simulated payments for the same order produce the same id.
func transactionID(orderID string, orderDate time.Time) string {
	name := orderID + "/" + orderDate.UTC().Format(time.RFC3339Nano)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("gamestore:payment:"+name)).String()
}

func (p *PaymentRecorder) publishPaid(ctx context.Context, payment *domain.Payment, userID int64) {
	if p.publisher == nil {
		return
	}

	event := domain.OrderPaidEvent{
		OrderID:       payment.OrderID,
		PaymentID:     payment.ID,
		UserID:        userID,
		AmountPaid:    payment.AmountPaid,
		TransactionID: payment.TransactionID,
		Timestamp:     payment.CreatedAt,
	}
	if err := p.publisher.Publish(ctx, payment.OrderID, event); err != nil {
		p.logger.Error("failed to publish order paid event", "error", err, "order_id", payment.OrderID)
	}
}
