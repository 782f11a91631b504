package main

import (
	"context"
	"flag"
	"log"

	"shib_mining/internal/db"
	"shib_mining/internal/domain"
	"shib_mining/internal/repository"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/joho/godotenv"
	"os"
)

func main() {
	_ = godotenv.Load()

	email := flag.String("email", "miner@example.com", "user email")
	password := flag.String("password", "password123", "user password")
	planName := flag.String("plan", "start", "account plan")
	balance := flag.String("balance", "0", "initial balance")
	flag.Parse()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	pool := db.Connect(dsn)
	defer pool.Close()

	ctx := context.Background()
	users := repository.NewUserRepository(pool)
	accounts := repository.NewAccountRepository(pool)

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	u := &domain.User{Email: *email, PasswordHash: string(hash)}
	if err := users.Create(ctx, u); err != nil {
		if err == repository.ErrDuplicateEmail {
			log.Printf("user %s already exists, updating account only", *email)
		} else {
			log.Fatalf("create user: %v", err)
		}
	}

	bal, err := decimal.NewFromString(*balance)
	if err != nil {
		log.Fatalf("parse balance: %v", err)
	}

	acct := &domain.Account{Email: *email, Balance: bal, Plan: domain.Plan(*planName)}
	if err := accounts.CreateIfAbsent(ctx, acct); err != nil {
		log.Fatalf("create account: %v", err)
	}
	if err := accounts.SaveBalance(ctx, *email, bal); err != nil {
		log.Fatalf("set balance: %v", err)
	}
	if err := accounts.SavePlan(ctx, *email, domain.Plan(*planName)); err != nil {
		log.Fatalf("set plan: %v", err)
	}

	log.Printf("test user ready: %s plan=%s balance=%s", *email, *planName, bal)
}
