package repository

import (
	"context"

	"shib_mining/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type WithdrawalRepository struct {
	db *pgxpool.Pool
}

func NewWithdrawalRepository(db *pgxpool.Pool) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

// Create inserts a pending withdrawal request. The table is append-only
// from this service's perspective; status transitions happen in the
// back office.
func (r *WithdrawalRepository) Create(ctx context.Context, w *domain.Withdrawal) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO withdrawals (email, amount, status, wallet_address)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, w.Email, w.Amount, w.Status, w.WalletAddress).Scan(&w.ID, &w.CreatedAt)
}

// GetByEmail lists a user's withdrawal requests, newest first.
func (r *WithdrawalRepository) GetByEmail(ctx context.Context, email string, limit int) ([]domain.Withdrawal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, email, amount, status, wallet_address, created_at
		FROM withdrawals
		WHERE email = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, email, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var withdrawals []domain.Withdrawal
	for rows.Next() {
		var w domain.Withdrawal
		if err := rows.Scan(&w.ID, &w.Email, &w.Amount, &w.Status, &w.WalletAddress, &w.CreatedAt); err != nil {
			return nil, err
		}
		withdrawals = append(withdrawals, w)
	}
	return withdrawals, rows.Err()
}
