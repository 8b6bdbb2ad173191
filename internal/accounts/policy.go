package accounts

import (
	"context"
	"database/sql"

	"github.com/gamestore-labs/gamestore/internal/domain"
)

// Querier is the subset of *sql.Tx the role policies need.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// RoleAssignmentPolicy decides the role of a new account. It runs inside the
// signup transaction.
type RoleAssignmentPolicy interface {
	RoleFor(ctx context.Context, tx Querier) (domain.Role, error)
}

// signupLockID keys the transaction-scoped advisory lock taken by
// FirstUserAdminPolicy.
const signupLockID = 430817

// FirstUserAdminPolicy makes the first registered user an admin and every
// later one a customer. The advisory lock serializes concurrent signups so at
// most one of them can observe an empty users table.
type FirstUserAdminPolicy struct{}

func (FirstUserAdminPolicy) RoleFor(ctx context.Context, tx Querier) (domain.Role, error) {
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, signupLockID); err != nil {
		return "", err
	}

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return "", err
	}

	if count == 0 {
		return domain.RoleAdmin, nil
	}
	return domain.RoleCustomer, nil
}

// StaticRolePolicy assigns a fixed role, for deployments where admins are
// provisioned out of band.
type StaticRolePolicy struct {
	Role domain.Role
}

func (p StaticRolePolicy) RoleFor(context.Context, Querier) (domain.Role, error) {
	return p.Role, nil
}
