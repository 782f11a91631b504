package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"shib_mining/internal/domain"
	"shib_mining/internal/logger"
	"shib_mining/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be 8-72 characters")
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// AuthService validates credentials and issues session tokens.
type AuthService struct {
	users    *repository.UserRepository
	accounts *repository.AccountRepository
}

func NewAuthService(db *pgxpool.Pool) *AuthService {
	return &AuthService{
		users:    repository.NewUserRepository(db),
		accounts: repository.NewAccountRepository(db),
	}
}

// SignUp registers a user and seeds their account record, so the balance
// row exists before the first dashboard load.
func (s *AuthService) SignUp(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRe.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if len(password) < 8 || len(password) > 72 {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &domain.User{Email: email, PasswordHash: string(hash)}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	acct := &domain.Account{Email: email, Balance: decimal.Zero, Plan: domain.PlanStart}
	if err := s.accounts.CreateIfAbsent(ctx, acct); err != nil {
		// the dashboard load recreates a missing row, so this is not fatal
		logger.Warn("failed to seed account at signup", "email", email, "error", err)
	}

	return u, nil
}

// SignIn checks the password and returns the user plus a signed session
// token. Wrong email and wrong password collapse into one generic error.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*domain.User, string, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, "", err
	}
	if u == nil {
		return nil, "", ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := GenerateJWT(u.Email)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}
