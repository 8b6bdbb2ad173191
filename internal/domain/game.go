package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Game struct {
	ID            int64           `json:"game_id"`
	Title         string          `json:"title"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Genre         string          `json:"genre,omitempty"`
	Platform      string          `json:"platform,omitempty"`
	ReleaseDate   *time.Time      `json:"release_date,omitempty"`
	StockQuantity int             `json:"stock_quantity"`
	ImageURL      string          `json:"image_url,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
