package repository

import (
	"context"

	"shib_mining/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type AccountRepository struct {
	db *pgxpool.Pool
}

func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{db: db}
}

// Get retrieves the account for email. Returns (nil, nil) when no row exists.
func (r *AccountRepository) Get(ctx context.Context, email string) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, `
		SELECT email, balance, plan, updated_at
		FROM accounts
		WHERE email = $1
	`, email)

	var a domain.Account
	if err := row.Scan(&a.Email, &a.Balance, &a.Plan, &a.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// CreateIfAbsent inserts a fresh account row. Losing the creation race to a
// concurrent session is not an error; callers re-read to adopt the winner's
// row.
func (r *AccountRepository) CreateIfAbsent(ctx context.Context, a *domain.Account) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO accounts (email, balance, plan)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO NOTHING
	`, a.Email, a.Balance, a.Plan)
	return err
}

// SaveBalance upserts the persisted balance for email. Last writer wins
// across sessions; there is no server-side accrual to reconcile against.
func (r *AccountRepository) SaveBalance(ctx context.Context, email string, balance decimal.Decimal) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO accounts (email, balance, plan)
		VALUES ($1, $2, 'start')
		ON CONFLICT (email) DO UPDATE
		SET balance = EXCLUDED.balance, updated_at = now()
	`, email, balance)
	return err
}

// SavePlan changes the account's tier.
func (r *AccountRepository) SavePlan(ctx context.Context, email string, p domain.Plan) error {
	_, err := r.db.Exec(ctx, `
		UPDATE accounts SET plan = $2, updated_at = now() WHERE email = $1
	`, email, p)
	return err
}
