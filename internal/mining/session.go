package mining

import (
	"sync"
	"time"

	"shib_mining/internal/domain"
	"shib_mining/internal/plan"

	"github.com/shopspring/decimal"
)

// SaveStatus is the dashboard's persistence indicator. Saved and error
// states revert to idle on their own after a short delay.
type SaveStatus string

const (
	SaveIdle   SaveStatus = "idle"
	SaveSaving SaveStatus = "saving"
	SaveSaved  SaveStatus = "saved"
	SaveError  SaveStatus = "error"
)

const (
	savedRevertDelay = 2 * time.Second
	errorRevertDelay = 3 * time.Second
)

// Session is one user's live mining state. The in-memory balance is
// authoritative between flushes; the persisted row may lag by up to one
// flush interval.
type Session struct {
	Email string

	mu           sync.Mutex
	plan         domain.Plan
	balance      decimal.Decimal
	sessionTotal decimal.Decimal
	elapsed      int64
	active       bool
	saveStatus   SaveStatus
	flushing     bool
	withdrawing  bool

	// last time a viewer looked at this session; idle sessions get reaped
	lastSeen time.Time

	// closed to cancel the accrual and flush tickers; nil while stopped
	stop chan struct{}
	// pending saveStatus auto-revert
	revert *time.Timer
}

// State is a read-consistent snapshot of a session.
type State struct {
	Email          string          `json:"email"`
	Plan           domain.Plan     `json:"plan"`
	Rate           decimal.Decimal `json:"rate"`
	Balance        decimal.Decimal `json:"balance"`
	SessionTotal   decimal.Decimal `json:"session_total"`
	ElapsedSeconds int64           `json:"elapsed_seconds"`
	Mining         bool            `json:"mining"`
	SavingStatus   SaveStatus      `json:"saving_status"`
	HourlyYield    decimal.Decimal `json:"hourly_yield"`
}

func newSession(acct *domain.Account) *Session {
	return &Session{
		Email:      acct.Email,
		plan:       acct.Plan,
		balance:    acct.Balance,
		saveStatus: SaveIdle,
		lastSeen:   time.Now(),
	}
}

// tick applies one whole second of accrual. Balance, session total and
// elapsed seconds move under a single lock hold, so no reader observes a
// partial tick. The rate is looked up per tick: a plan change applies from
// the next tick, never retroactively.
func (s *Session) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	r := plan.Rate(s.plan)
	s.balance = s.balance.Add(r)
	s.sessionTotal = s.sessionTotal.Add(r)
	s.elapsed++
	ticksTotal.Inc()
}

// Snapshot returns the current session state. Taking one counts as viewer
// activity for the idle reaper.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
	r := plan.Rate(s.plan)
	return State{
		Email:          s.Email,
		Plan:           s.plan,
		Rate:           r,
		Balance:        s.balance,
		SessionTotal:   s.sessionTotal,
		ElapsedSeconds: s.elapsed,
		Mining:         s.active,
		SavingStatus:   s.saveStatus,
		HourlyYield:    r.Mul(decimal.NewFromInt(3600)),
	}
}

// SetPlan points the accrual at a new tier. Ticks already applied keep the
// rate they accrued at.
func (s *Session) SetPlan(p domain.Plan) {
	s.mu.Lock()
	s.plan = p
	s.mu.Unlock()
}

// Mining reports whether the accrual loop is running.
func (s *Session) Mining() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// beginFlush reads the balance to persist at call time and claims the
// single-flush slot. It returns ok=false while another flush is in flight.
func (s *Session) beginFlush() (balance decimal.Decimal, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flushing {
		return decimal.Zero, false
	}
	s.flushing = true
	s.setSaveStatusLocked(SaveSaving)
	return s.balance.Round(2), true
}

// endFlush releases the flush slot and moves the saving indicator. Failures
// never touch the in-memory balance.
func (s *Session) endFlush(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushing = false
	if err != nil {
		s.setSaveStatusLocked(SaveError)
		s.revertAfterLocked(errorRevertDelay)
		return
	}
	s.setSaveStatusLocked(SaveSaved)
	s.revertAfterLocked(savedRevertDelay)
}

func (s *Session) setSaveStatusLocked(st SaveStatus) {
	if s.revert != nil {
		s.revert.Stop()
		s.revert = nil
	}
	s.saveStatus = st
}

func (s *Session) revertAfterLocked(d time.Duration) {
	s.revert = time.AfterFunc(d, func() {
		s.mu.Lock()
		if s.saveStatus == SaveSaved || s.saveStatus == SaveError {
			s.saveStatus = SaveIdle
		}
		s.mu.Unlock()
	})
}
