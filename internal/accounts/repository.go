package accounts

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/gamestore-labs/gamestore/internal/domain"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user. The role is decided by the policy inside the same
// transaction as the insert, so concurrent signups cannot both claim a
// bootstrap role.
func (r *UserRepository) Create(ctx context.Context, username, email, passwordHash string, policy RoleAssignmentPolicy) (*domain.User, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	role, err := policy.RoleFor(ctx, tx)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username: username,
		Email:    email,
		Role:     role,
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO users (username, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING user_id, created_at
	`, username, email, passwordHash, role).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return nil, mapUniqueViolation(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getWhere(ctx, "email = $1", email)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getWhere(ctx, "user_id = $1", id)
}

func (r *UserRepository) getWhere(ctx context.Context, where string, arg any) (*domain.User, error) {
	user := &domain.User{}

	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, username, email, password_hash, role, created_at
		FROM users
		WHERE `+where,
		arg,
	).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return user, nil
}

// mapUniqueViolation translates a postgres unique-constraint error into a
// domain error naming the offending field. Constraint names come from the
// migrations; no error-message string matching.
func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return err
	}

	switch pqErr.Constraint {
	case "users_email_key":
		return &domain.DuplicateAccountError{Field: "email"}
	case "users_username_key":
		return &domain.DuplicateAccountError{Field: "username"}
	}
	return err
}
