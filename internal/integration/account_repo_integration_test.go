package integration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"shib_mining/internal/domain"
	"shib_mining/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

func applyMigrations(t *testing.T, db *pgxpool.Pool) {
	t.Helper()
	migDir := filepath.Join("..", "..", "internal", "migrations")
	files, err := os.ReadDir(migDir)
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	for _, f := range files {
		b, err := os.ReadFile(filepath.Join(migDir, f.Name()))
		if err != nil {
			t.Fatalf("read file: %v", err)
		}
		if _, err := db.Exec(context.Background(), string(b)); err != nil {
			t.Fatalf("apply migration %s: %v", f.Name(), err)
		}
	}
}

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	db, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)

	applyMigrations(t, db)
	return db
}

func testEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@test.local", prefix, time.Now().UnixNano())
}

func TestAccountRepository_CreateIfAbsent_SaveBalance(t *testing.T) {
	db := testPool(t)
	repo := repository.NewAccountRepository(db)
	ctx := context.Background()
	email := testEmail("acct")

	a := &domain.Account{Email: email, Balance: decimal.Zero, Plan: domain.PlanStart}
	if err := repo.CreateIfAbsent(ctx, a); err != nil {
		t.Fatalf("create: %v", err)
	}
	// idempotent
	if err := repo.CreateIfAbsent(ctx, a); err != nil {
		t.Fatalf("create twice: %v", err)
	}

	got, err := repo.Get(ctx, email)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || !got.Balance.IsZero() || got.Plan != domain.PlanStart {
		t.Fatalf("fresh account = %+v", got)
	}

	want := decimal.RequireFromString("17.80")
	if err := repo.SaveBalance(ctx, email, want); err != nil {
		t.Fatalf("save balance: %v", err)
	}
	got, err = repo.Get(ctx, email)
	if err != nil {
		t.Fatalf("get after save: %v", err)
	}
	if !got.Balance.Equal(want) {
		t.Fatalf("balance = %s; want %s", got.Balance, want)
	}

	if err := repo.SavePlan(ctx, email, domain.PlanVIP2); err != nil {
		t.Fatalf("save plan: %v", err)
	}
	got, err = repo.Get(ctx, email)
	if err != nil {
		t.Fatalf("get after plan: %v", err)
	}
	if got.Plan != domain.PlanVIP2 {
		t.Fatalf("plan = %s; want vip++", got.Plan)
	}
}

func TestAccountRepository_GetMissing(t *testing.T) {
	db := testPool(t)
	repo := repository.NewAccountRepository(db)

	got, err := repo.Get(context.Background(), testEmail("missing"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for a missing row, got %+v", got)
	}
}

func TestWithdrawalRepository_Create_GetByEmail(t *testing.T) {
	db := testPool(t)
	repo := repository.NewWithdrawalRepository(db)
	ctx := context.Background()
	email := testEmail("wd")

	for _, amt := range []string{"350000", "400000"} {
		w := &domain.Withdrawal{
			Email:         email,
			Amount:        decimal.RequireFromString(amt),
			Status:        domain.WithdrawalStatusPending,
			WalletAddress: "0xabc",
		}
		if err := repo.Create(ctx, w); err != nil {
			t.Fatalf("create: %v", err)
		}
		if w.ID == 0 || w.CreatedAt.IsZero() {
			t.Fatalf("returning clause not populated: %+v", w)
		}
	}

	rows, err := repo.GetByEmail(ctx, email, 10)
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d; want 2", len(rows))
	}
	// newest first
	if !rows[0].Amount.Equal(decimal.NewFromInt(400000)) {
		t.Fatalf("first row amount = %s; want 400000", rows[0].Amount)
	}
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	db := testPool(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()
	email := testEmail("user")

	u := &domain.User{Email: email, PasswordHash: "x"}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, &domain.User{Email: email, PasswordHash: "y"}); !errors.Is(err, repository.ErrDuplicateEmail) {
		t.Fatalf("err = %v; want ErrDuplicateEmail", err)
	}

	got, err := repo.GetByEmail(ctx, email)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.ID == 0 {
		t.Fatalf("user = %+v", got)
	}
}
