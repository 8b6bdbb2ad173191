package domain

import "github.com/shopspring/decimal"

// CartItem is one (user, game) row. Re-adding a game bumps Quantity instead of
// inserting a second row.
type CartItem struct {
	UserID   int64 `json:"user_id"`
	GameID   int64 `json:"game_id"`
	Quantity int   `json:"quantity"`
}

// CartLine is a cart item joined with its game, fully materialized for display.
type CartLine struct {
	GameID    int64           `json:"game_id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}
