package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyOrder       = errors.New("order has no line items")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrOrderNotFound    = errors.New("order not found")
	ErrOrderAlreadyPaid = errors.New("order already paid")
	ErrForbidden        = errors.New("forbidden")
	ErrUserNotFound     = errors.New("user not found")
)

type GameNotFoundError struct {
	GameID int64
}

func (e *GameNotFoundError) Error() string {
	return fmt.Sprintf("game %d not found", e.GameID)
}

type InsufficientStockError struct {
	GameID    int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for game %d: requested %d, available %d", e.GameID, e.Requested, e.Available)
}

type InvalidQuantityError struct {
	GameID   int64
	Quantity int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity %d for game %d", e.Quantity, e.GameID)
}

// DuplicateLineItemError rejects order requests naming the same game twice.
// Merging the lines instead would make per-line stock reporting ambiguous.
type DuplicateLineItemError struct {
	GameID int64
}

func (e *DuplicateLineItemError) Error() string {
	return fmt.Sprintf("game %d appears more than once in the order", e.GameID)
}

type AmountMismatchError struct {
	Expected decimal.Decimal
	Actual   decimal.Decimal
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("payment amount %s does not match order total %s", e.Actual, e.Expected)
}

// DuplicateAccountError reports which unique user field collided on signup.
type DuplicateAccountError struct {
	Field string
}

func (e *DuplicateAccountError) Error() string {
	return fmt.Sprintf("a user with this %s already exists", e.Field)
}
