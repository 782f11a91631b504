package config

import (
	"os"
	"strconv"
	"time"

	"shib_mining/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort     string
	DatabaseURL string
	JWTSecret   string

	LogLevel string
	LogJSON  bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Mining engine
	FlushInterval  time.Duration
	SessionIdleTTL time.Duration
	MinWithdrawal  int64
	MaxWithdrawal  int64

	// Rate limits
	APIRateLimit       int
	APIRateWindow      time.Duration
	AuthRateLimit      int
	AuthRateWindow     time.Duration
	WithdrawRateLimit  int
	WithdrawRateWindow time.Duration
}

// Load reads configuration from the environment (.env honored when present).
// Missing required values are fatal.
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	return &Config{
		AppPort:     port,
		DatabaseURL: dbURL,
		JWTSecret:   jwtSecret,

		LogLevel: os.Getenv("LOG_LEVEL"),
		LogJSON:  os.Getenv("LOG_JSON") == "true",

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		FlushInterval:  envSeconds("FLUSH_INTERVAL_SECONDS", 20),
		SessionIdleTTL: envSeconds("SESSION_IDLE_SECONDS", 1800),
		MinWithdrawal:  envInt64("MIN_WITHDRAWAL", 350000),
		MaxWithdrawal:  envInt64("MAX_WITHDRAWAL", 3500000),

		APIRateLimit:       envInt("API_RATE_LIMIT", 60),
		APIRateWindow:      envSeconds("API_RATE_WINDOW_SECONDS", 60),
		AuthRateLimit:      envInt("AUTH_RATE_LIMIT", 5),
		AuthRateWindow:     envSeconds("AUTH_RATE_WINDOW_SECONDS", 60),
		WithdrawRateLimit:  envInt("WITHDRAW_RATE_LIMIT", 5),
		WithdrawRateWindow: envSeconds("WITHDRAW_RATE_WINDOW_SECONDS", 60),
	}
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envSeconds(key string, def int) time.Duration {
	return time.Duration(envInt(key, def)) * time.Second
}
