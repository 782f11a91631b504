package mining

import (
	"context"
	"errors"
	"sync"
	"time"

	"shib_mining/internal/domain"
	"shib_mining/internal/logger"

	"github.com/shopspring/decimal"
)

var ErrNoSession = errors.New("no active session")

// AccountStore is the persistence surface the engine needs for accounts.
// Get returns (nil, nil) when no row exists.
type AccountStore interface {
	Get(ctx context.Context, email string) (*domain.Account, error)
	CreateIfAbsent(ctx context.Context, acct *domain.Account) error
	SaveBalance(ctx context.Context, email string, balance decimal.Decimal) error
	SavePlan(ctx context.Context, email string, p domain.Plan) error
}

// WithdrawalStore records withdrawal requests.
type WithdrawalStore interface {
	Create(ctx context.Context, w *domain.Withdrawal) error
}

// Config tunes the engine's timers and withdrawal bounds.
type Config struct {
	TickInterval  time.Duration
	FlushInterval time.Duration
	// Sessions nobody has looked at for this long are flushed and dropped.
	IdleTTL       time.Duration
	MinWithdrawal decimal.Decimal
	MaxWithdrawal decimal.Decimal
}

func DefaultConfig() Config {
	return Config{
		TickInterval:  time.Second,
		FlushInterval: 20 * time.Second,
		IdleTTL:       30 * time.Minute,
		MinWithdrawal: decimal.NewFromInt(350000),
		MaxWithdrawal: decimal.NewFromInt(3500000),
	}
}

// Engine owns every live mining session and reconciles them against the
// account store. Accrual keeps running while flushes are in flight or
// failing; persistence is best effort and the in-memory value is the
// source of truth.
type Engine struct {
	accounts    AccountStore
	withdrawals WithdrawalStore
	cfg         Config

	mu       sync.RWMutex
	sessions map[string]*Session

	done      chan struct{}
	closeOnce sync.Once
}

func NewEngine(accounts AccountStore, withdrawals WithdrawalStore) *Engine {
	return NewEngineWithConfig(accounts, withdrawals, DefaultConfig())
}

func NewEngineWithConfig(accounts AccountStore, withdrawals WithdrawalStore, cfg Config) *Engine {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 20 * time.Second
	}
	if cfg.MinWithdrawal.IsZero() {
		cfg.MinWithdrawal = decimal.NewFromInt(350000)
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	if cfg.MaxWithdrawal.IsZero() {
		cfg.MaxWithdrawal = decimal.NewFromInt(3500000)
	}
	e := &Engine{
		accounts:    accounts,
		withdrawals: withdrawals,
		cfg:         cfg,
		sessions:    make(map[string]*Session),
		done:        make(chan struct{}),
	}
	go e.runReaper()
	return e
}

// StartSession loads the account record for email and registers a live
// session for it. A missing record is created with balance 0 on plan start;
// the insert is idempotent, and after losing a creation race the winner's
// row is adopted. Calling StartSession again for an email with a live
// session returns that session untouched.
func (e *Engine) StartSession(ctx context.Context, email string) (*Session, error) {
	e.mu.RLock()
	if s, ok := e.sessions[email]; ok {
		e.mu.RUnlock()
		return s, nil
	}
	e.mu.RUnlock()

	acct, err := e.accounts.Get(ctx, email)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		acct = &domain.Account{Email: email, Balance: decimal.Zero, Plan: domain.PlanStart}
		if err := e.accounts.CreateIfAbsent(ctx, acct); err != nil {
			return nil, err
		}
		if existing, err := e.accounts.Get(ctx, email); err == nil && existing != nil {
			acct = existing
		}
	}

	s := newSession(acct)

	e.mu.Lock()
	defer e.mu.Unlock()
	if existing, ok := e.sessions[email]; ok {
		// lost a registration race with a concurrent login
		return existing, nil
	}
	e.sessions[email] = s
	logger.Info("session started", "email", email, "plan", acct.Plan, "balance", acct.Balance)
	return s, nil
}

// Session returns the live session for email, if any.
func (e *Engine) Session(email string) (*Session, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.sessions[email]
	return s, ok
}

// ToggleMining starts accrual if it is stopped and stops it if it is
// running. Starting resets the session counters; stopping performs one
// synchronous flush before the session is marked inactive. Returns the new
// mining state.
func (e *Engine) ToggleMining(ctx context.Context, email string) (bool, error) {
	s, ok := e.Session(email)
	if !ok {
		return false, ErrNoSession
	}

	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		e.stopAccrual(ctx, s)
		return false, nil
	}

	s.active = true
	s.sessionTotal = decimal.Zero
	s.elapsed = 0
	s.stop = make(chan struct{})
	stop := s.stop
	s.mu.Unlock()

	go e.runAccrual(s, stop)
	go e.runFlusher(s, stop)
	return true, nil
}

// StopMining halts accrual for email's session if it is running, flushing
// first. No-op when there is no session or it is already stopped. Called
// when the dashboard's state stream goes away, the server-side analogue of
// closing the page.
func (e *Engine) StopMining(ctx context.Context, email string) {
	s, ok := e.Session(email)
	if !ok || !s.Mining() {
		return
	}
	e.stopAccrual(ctx, s)
}

// stopAccrual flushes, then marks the session inactive and cancels its
// tickers. The flush happens before the stop becomes visible.
func (e *Engine) stopAccrual(ctx context.Context, s *Session) {
	if err := e.Flush(ctx, s); err != nil {
		logger.Warn("flush on stop failed", "email", s.Email, "error", err)
	}
	s.mu.Lock()
	s.active = false
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	s.mu.Unlock()
}

// ChangePlan persists a new tier and points the live session at it. The new
// rate applies from the next tick.
func (e *Engine) ChangePlan(ctx context.Context, email string, p domain.Plan) error {
	if err := e.accounts.SavePlan(ctx, email, p); err != nil {
		return err
	}
	if s, ok := e.Session(email); ok {
		s.SetPlan(p)
	}
	return nil
}

// Flush writes the session's balance, rounded to 2 decimals and read at
// flush time, to the account store. At most one flush per session is in
// flight. A failure only moves the saving indicator: nothing is rolled
// back, accrual keeps going, and the next interval retries with whatever
// the balance is by then.
func (e *Engine) Flush(ctx context.Context, s *Session) error {
	balance, ok := s.beginFlush()
	if !ok {
		return nil
	}
	return e.writeFlush(ctx, s, balance)
}

func (e *Engine) writeFlush(ctx context.Context, s *Session, balance decimal.Decimal) error {
	err := e.accounts.SaveBalance(ctx, s.Email, balance)
	s.endFlush(err)
	if err != nil {
		flushTotal.WithLabelValues("error").Inc()
		return err
	}
	flushTotal.WithLabelValues("ok").Inc()
	return nil
}

// flushFinal keeps trying while a periodic flush holds the slot, so ticks
// accrued since that flush captured its balance are not dropped at
// teardown.
func (e *Engine) flushFinal(ctx context.Context, s *Session) error {
	for {
		balance, ok := s.beginFlush()
		if ok {
			return e.writeFlush(ctx, s, balance)
		}
		select {
		case <-ctx.Done():
			logger.Debug("final flush skipped, another flush still in flight", "email", s.Email)
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// EndSession tears a session down: cancels its timers, performs a
// best-effort final flush when there is a balance to save, and forgets the
// session. The final write runs under a short deadline so logout cannot
// hang on a slow store; an in-flight flush is waited out within that
// deadline so the freshest balance wins.
func (e *Engine) EndSession(email string) {
	e.mu.Lock()
	s, ok := e.sessions[email]
	if ok {
		delete(e.sessions, email)
	}
	e.mu.Unlock()
	if !ok {
		return
	}

	s.mu.Lock()
	if s.active {
		s.active = false
		if s.stop != nil {
			close(s.stop)
			s.stop = nil
		}
	}
	positive := s.balance.IsPositive()
	s.mu.Unlock()

	if positive {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.flushFinal(ctx, s); err != nil {
			logger.Warn("final flush failed", "email", email, "error", err)
		}
	}
	logger.Info("session ended", "email", email)
}

// Shutdown ends every live session, flushing balances where possible. Used
// on graceful server shutdown.
func (e *Engine) Shutdown(ctx context.Context) {
	e.closeOnce.Do(func() { close(e.done) })

	e.mu.RLock()
	emails := make([]string, 0, len(e.sessions))
	for email := range e.sessions {
		emails = append(emails, email)
	}
	e.mu.RUnlock()

	for _, email := range emails {
		select {
		case <-ctx.Done():
			logger.Warn("shutdown deadline hit before all sessions flushed")
			return
		default:
		}
		e.EndSession(email)
	}
}

// MinWithdrawal returns the configured lower withdrawal bound.
func (e *Engine) MinWithdrawal() decimal.Decimal { return e.cfg.MinWithdrawal }

// MaxWithdrawal returns the configured upper withdrawal bound.
func (e *Engine) MaxWithdrawal() decimal.Decimal { return e.cfg.MaxWithdrawal }

func (e *Engine) runAccrual(s *Session, stop <-chan struct{}) {
	t := time.NewTicker(e.cfg.TickInterval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			s.tick()
		case <-stop:
			return
		}
	}
}

const reapInterval = time.Minute

func (e *Engine) runReaper() {
	t := time.NewTicker(reapInterval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			e.reapIdle()
		case <-e.done:
			return
		}
	}
}

// reapIdle ends sessions nobody has looked at for IdleTTL. Bounds the
// registry when a browser goes away without a logout and the stream
// teardown was missed.
func (e *Engine) reapIdle() {
	cutoff := time.Now().Add(-e.cfg.IdleTTL)

	e.mu.RLock()
	var idle []string
	for email, s := range e.sessions {
		s.mu.Lock()
		if s.lastSeen.Before(cutoff) {
			idle = append(idle, email)
		}
		s.mu.Unlock()
	}
	e.mu.RUnlock()

	for _, email := range idle {
		logger.Info("ending idle session", "email", email)
		e.EndSession(email)
	}
}

func (e *Engine) runFlusher(s *Session, stop <-chan struct{}) {
	t := time.NewTicker(e.cfg.FlushInterval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			if err := e.Flush(context.Background(), s); err != nil {
				logger.Warn("periodic flush failed", "email", s.Email, "error", err)
			}
		case <-stop:
			return
		}
	}
}
