package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/gamestore-labs/gamestore/internal/domain"
)

// ErrGameReferenced is returned when deleting a game that existing order
// items still point at.
var ErrGameReferenced = errors.New("game is referenced by existing orders")

type GameRepository struct {
	db *sql.DB
}

func NewGameRepository(db *sql.DB) *GameRepository {
	return &GameRepository{db: db}
}

const gameColumns = `game_id, title, description, price, genre, platform, release_date, stock_quantity, image_url, created_at, updated_at`

func (r *GameRepository) List(ctx context.Context, limit, offset int) ([]domain.Game, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+gameColumns+`
		FROM games
		ORDER BY game_id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	games := []domain.Game{}
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, *game)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return games, nil
}

func (r *GameRepository) Get(ctx context.Context, id int64) (*domain.Game, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+gameColumns+`
		FROM games
		WHERE game_id = $1
	`, id)

	game, err := scanGame(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return game, nil
}

func (r *GameRepository) Create(ctx context.Context, game *domain.Game) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO games (title, description, price, genre, platform, release_date, stock_quantity, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING game_id, created_at, updated_at
	`,
		game.Title,
		nullString(game.Description),
		game.Price,
		nullString(game.Genre),
		nullString(game.Platform),
		game.ReleaseDate,
		game.StockQuantity,
		nullString(game.ImageURL),
	).Scan(&game.ID, &game.CreatedAt, &game.UpdatedAt)
}

// GameUpdate carries a partial update; nil fields keep their current value.
type GameUpdate struct {
	Title         *string          `json:"title"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	Genre         *string          `json:"genre"`
	Platform      *string          `json:"platform"`
	ReleaseDate   *time.Time       `json:"release_date"`
	StockQuantity *int             `json:"stock_quantity"`
	ImageURL      *string          `json:"image_url"`
}

func (r *GameRepository) Update(ctx context.Context, id int64, update GameUpdate) (*domain.Game, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE games SET
			title          = COALESCE($2, title),
			description    = COALESCE($3, description),
			price          = COALESCE($4, price),
			genre          = COALESCE($5, genre),
			platform       = COALESCE($6, platform),
			release_date   = COALESCE($7, release_date),
			stock_quantity = COALESCE($8, stock_quantity),
			image_url      = COALESCE($9, image_url),
			updated_at     = NOW()
		WHERE game_id = $1
		RETURNING `+gameColumns,
		id,
		update.Title,
		update.Description,
		update.Price,
		update.Genre,
		update.Platform,
		update.ReleaseDate,
		update.StockQuantity,
		update.ImageURL,
	)

	game, err := scanGame(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return game, nil
}

func (r *GameRepository) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM games WHERE game_id = $1`, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return false, ErrGameReferenced
		}
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*domain.Game, error) {
	game := &domain.Game{}
	var description, genre, platform, imageURL sql.NullString
	var releaseDate sql.NullTime

	err := row.Scan(
		&game.ID,
		&game.Title,
		&description,
		&game.Price,
		&genre,
		&platform,
		&releaseDate,
		&game.StockQuantity,
		&imageURL,
		&game.CreatedAt,
		&game.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	game.Description = description.String
	game.Genre = genre.String
	game.Platform = platform.String
	game.ImageURL = imageURL.String
	if releaseDate.Valid {
		t := releaseDate.Time
		game.ReleaseDate = &t
	}

	return game, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
