package cart

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/gamestore-labs/gamestore/internal/domain"
)

type CartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) *CartRepository {
	return &CartRepository{db: db}
}

// Items returns the user's cart joined with game data, fully materialized.
// Rows come back in the order the games were first added.
func (r *CartRepository) Items(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.game_id, g.title, g.price, c.quantity
		FROM cart_items c
		JOIN games g ON g.game_id = c.game_id
		WHERE c.user_id = $1
		ORDER BY c.added_at, c.game_id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	lines := []domain.CartLine{}
	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(&line.GameID, &line.Title, &line.Price, &line.Quantity); err != nil {
			return nil, err
		}
		line.LineTotal = line.Price.Mul(decimalFromInt(line.Quantity))
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

// Lines returns the cart as order input, in insertion order.
func (r *CartRepository) Lines(ctx context.Context, userID int64) ([]domain.OrderLine, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT game_id, quantity
		FROM cart_items
		WHERE user_id = $1
		ORDER BY added_at, game_id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var lines []domain.OrderLine
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.GameID, &line.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

// Add inserts a cart row or bumps the quantity when the game is already in
// the cart.
func (r *CartRepository) Add(ctx context.Context, userID, gameID int64, quantity int) (*domain.CartItem, error) {
	item := &domain.CartItem{UserID: userID, GameID: gameID}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO cart_items (user_id, game_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, game_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING quantity
	`, userID, gameID, quantity).Scan(&item.Quantity)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return nil, &domain.GameNotFoundError{GameID: gameID}
		}
		return nil, err
	}

	return item, nil
}

func (r *CartRepository) SetQuantity(ctx context.Context, userID, gameID int64, quantity int) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE cart_items SET quantity = $3
		WHERE user_id = $1 AND game_id = $2
	`, userID, gameID, quantity)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

func (r *CartRepository) Remove(ctx context.Context, userID, gameID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_items
		WHERE user_id = $1 AND game_id = $2
	`, userID, gameID)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

// ClearTx deletes the user's cart rows inside an existing transaction. The
// checkout flow calls it on the same transaction that creates the order, so an
// order and a stale cart can never both be committed.
func (r *CartRepository) ClearTx(ctx context.Context, tx *sql.Tx, userID int64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	return err
}

func decimalFromInt(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}
