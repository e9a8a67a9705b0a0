package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stemsi/exprep-backend/internal/model"
)

// AccountRepository handles account data access.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

const accountColumns = `id, email, display_name, password_hash, is_instructor, is_admin, created_at, last_login_at`

func scanAccount(row interface{ Scan(...any) error }) (*model.Account, error) {
	a := &model.Account{}
	if err := row.Scan(&a.ID, &a.Email, &a.DisplayName, &a.PasswordHash, &a.Instructor, &a.Admin, &a.CreatedAt, &a.LastLoginAt); err != nil {
		return nil, err
	}
	return a, nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
}

// GetByEmail retrieves an account by its unique, lower-cased email.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = LOWER($1)`, email))
}

// Create inserts a new account and fills its generated fields.
func (r *AccountRepository) Create(ctx context.Context, a *model.Account) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO accounts (email, display_name, password_hash, is_instructor, is_admin)
		 VALUES (LOWER($1), $2, $3, $4, $5)
		 RETURNING id, email, created_at`,
		a.Email, a.DisplayName, a.PasswordHash, a.Instructor, a.Admin,
	).Scan(&a.ID, &a.Email, &a.CreatedAt)
}

// UpdateRoles replaces the role flags of an account.
func (r *AccountRepository) UpdateRoles(ctx context.Context, id uuid.UUID, instructor, admin bool) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE accounts SET is_instructor = $2, is_admin = $3 WHERE id = $1`, id, instructor, admin)
	return err
}

// TouchLogin records a successful login.
func (r *AccountRepository) TouchLogin(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE accounts SET last_login_at = NOW() WHERE id = $1`, id)
	return err
}
