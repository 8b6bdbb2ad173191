package orders

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gamestore-labs/gamestore/internal/domain"
)

// CartSource provides the cart contents for checkout and clears them inside
// the order transaction.
type CartSource interface {
	Lines(ctx context.Context, userID int64) ([]domain.OrderLine, error)
	ClearTx(ctx context.Context, tx *sql.Tx, userID int64) error
}

// Publisher emits domain events after a successful commit. A nil Publisher
// disables publishing.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Engine turns a line-item list or a user's cart into a priced, stock-checked
// order. Order, items, stock decrement and (for checkout) cart clearing commit
// as one transaction; a failure anywhere rolls back everything.
type Engine struct {
	db        *sql.DB
	repo      *OrderRepository
	carts     CartSource
	publisher Publisher
	logger    *slog.Logger
}

func NewEngine(db *sql.DB, repo *OrderRepository, carts CartSource, publisher Publisher, logger *slog.Logger) *Engine {
	return &Engine{
		db:        db,
		repo:      repo,
		carts:     carts,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateOrder places an order from an explicit line-item list. The cart is not
// touched.
func (e *Engine) CreateOrder(ctx context.Context, userID int64, lines []domain.OrderLine) (*domain.Order, error) {
	return e.createOrder(ctx, userID, lines, nil)
}

// Checkout places an order from the user's current cart and clears the cart in
// the same transaction, so a committed order always means an emptied cart.
func (e *Engine) Checkout(ctx context.Context, userID int64) (*domain.Order, error) {
	lines, err := e.carts.Lines(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	return e.createOrder(ctx, userID, lines, func(ctx context.Context, tx *sql.Tx) error {
		return e.carts.ClearTx(ctx, tx, userID)
	})
}

func (e *Engine) createOrder(ctx context.Context, userID int64, lines []domain.OrderLine, beforeCommit func(context.Context, *sql.Tx) error) (*domain.Order, error) {
	if err := validateLines(lines); err != nil {
		return nil, err
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	order := &domain.Order{
		ID:         uuid.New().String(),
		UserID:     userID,
		TotalPrice: decimal.Zero,
		Status:     domain.OrderStatusPending,
		OrderDate:  time.Now().UTC(),
	}

	// Price every line first; the snapshot taken here is both the item price
	// and the authoritative total, independent of anything client-supplied.
	prices := make([]decimal.Decimal, len(lines))
	for i, line := range lines {
		err := tx.QueryRowContext(ctx, `
			SELECT price FROM games WHERE game_id = $1
		`, line.GameID).Scan(&prices[i])
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, &domain.GameNotFoundError{GameID: line.GameID}
			}
			return nil, err
		}
	}
	order.TotalPrice = orderTotal(prices, lines)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (order_id, user_id, total_price, status, order_date)
		VALUES ($1, $2, $3, $4, $5)
	`, order.ID, order.UserID, order.TotalPrice, order.Status, order.OrderDate)
	if err != nil {
		return nil, err
	}

	for i, line := range lines {
		// Conditional decrement: the stock check is part of the UPDATE itself,
		// so two concurrent orders for the same game can never drive the
		// quantity negative. Zero rows affected means the check failed.
		result, err := tx.ExecContext(ctx, `
			UPDATE games
			SET stock_quantity = stock_quantity - $2, updated_at = NOW()
			WHERE game_id = $1 AND stock_quantity >= $2
		`, line.GameID, line.Quantity)
		if err != nil {
			return nil, err
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return nil, err
		}
		if rowsAffected == 0 {
			var available int
			if err := tx.QueryRowContext(ctx, `
				SELECT stock_quantity FROM games WHERE game_id = $1
			`, line.GameID).Scan(&available); err != nil {
				return nil, err
			}
			return nil, &domain.InsufficientStockError{
				GameID:    line.GameID,
				Requested: line.Quantity,
				Available: available,
			}
		}

		item := domain.OrderItem{
			OrderID:         order.ID,
			GameID:          line.GameID,
			Quantity:        line.Quantity,
			PriceAtPurchase: prices[i],
		}
		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, game_id, quantity, price_at_purchase)
			VALUES ($1, $2, $3, $4)
			RETURNING order_item_id
		`, item.OrderID, item.GameID, item.Quantity, item.PriceAtPurchase).Scan(&item.ID)
		if err != nil {
			return nil, err
		}

		order.Items = append(order.Items, item)
	}

	if beforeCommit != nil {
		if err := beforeCommit(ctx, tx); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	e.publishPlaced(ctx, order)

	return order, nil
}

// GetOrder returns the order aggregate. Callers other than the order's owner
// need an elevated role.
func (e *Engine) GetOrder(ctx context.Context, orderID string, requesterID int64, elevated bool) (*domain.Order, error) {
	order, err := e.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}

	if order.UserID != requesterID && !elevated {
		return nil, domain.ErrForbidden
	}

	return order, nil
}

func (e *Engine) ListOrdersForUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	return e.repo.ListForUser(ctx, userID)
}

func (e *Engine) publishPlaced(ctx context.Context, order *domain.Order) {
	if e.publisher == nil {
		return
	}

	event := domain.OrderPlacedEvent{
		OrderID:    order.ID,
		UserID:     order.UserID,
		Items:      order.Items,
		TotalPrice: order.TotalPrice,
		Timestamp:  order.OrderDate,
	}
	if err := e.publisher.Publish(ctx, order.ID, event); err != nil {
		e.logger.Error("failed to publish order placed event", "error", err, "order_id", order.ID)
	}
}

// orderTotal sums price times quantity per line in exact decimal arithmetic.
// prices[i] is the snapshot price for lines[i].
func orderTotal(prices []decimal.Decimal, lines []domain.OrderLine) decimal.Decimal {
	total := decimal.Zero
	for i, line := range lines {
		total = total.Add(prices[i].Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

func validateLines(lines []domain.OrderLine) error {
	if len(lines) == 0 {
		return domain.ErrEmptyOrder
	}

	seen := make(map[int64]struct{}, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return &domain.InvalidQuantityError{GameID: line.GameID, Quantity: line.Quantity}
		}
		if _, dup := seen[line.GameID]; dup {
			return &domain.DuplicateLineItemError{GameID: line.GameID}
		}
		seen[line.GameID] = struct{}{}
	}

	return nil
}
