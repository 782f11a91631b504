package handlers

import (
	"shib_mining/internal/mining"
	"shib_mining/internal/repository"
	"shib_mining/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Handler struct {
	DB             *pgxpool.Pool
	Auth           *service.AuthService
	Engine         *mining.Engine
	AccountRepo    *repository.AccountRepository
	WithdrawalRepo *repository.WithdrawalRepository
}

func NewHandler(db *pgxpool.Pool, engine *mining.Engine) *Handler {
	return &Handler{
		DB:             db,
		Auth:           service.NewAuthService(db),
		Engine:         engine,
		AccountRepo:    repository.NewAccountRepository(db),
		WithdrawalRepo: repository.NewWithdrawalRepository(db),
	}
}

// getEmail pulls the authenticated email set by the JWT middleware.
func getEmail(c *gin.Context) (string, bool) {
	v, ok := c.Get("email")
	if !ok {
		return "", false
	}
	email, ok := v.(string)
	return email, ok && email != ""
}
