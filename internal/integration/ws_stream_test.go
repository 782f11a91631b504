package integration

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"shib_mining/internal/domain"
	"shib_mining/internal/http/handlers"
	"shib_mining/internal/mining"
	"shib_mining/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

// memAccounts is a minimal in-memory store so the stream test needs no
// database.
type memAccounts struct {
	mu   sync.Mutex
	rows map[string]*domain.Account
}

func (m *memAccounts) Get(ctx context.Context, email string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[email]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *memAccounts) CreateIfAbsent(ctx context.Context, a *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[a.Email]; !ok {
		cp := *a
		m.rows[a.Email] = &cp
	}
	return nil
}

func (m *memAccounts) SaveBalance(ctx context.Context, email string, balance decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.rows[email]; ok {
		a.Balance = balance
	}
	return nil
}

func (m *memAccounts) SavePlan(ctx context.Context, email string, p domain.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.rows[email]; ok {
		a.Plan = p
	}
	return nil
}

type memWithdrawals struct{}

func (memWithdrawals) Create(ctx context.Context, w *domain.Withdrawal) error { return nil }

func TestWSStreamsState(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	service.InitJWT()

	engine := mining.NewEngine(&memAccounts{rows: map[string]*domain.Account{}}, memWithdrawals{})
	h := &handlers.Handler{Engine: engine}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", h.WS)

	ts := httptest.NewServer(r)
	defer ts.Close()

	email := "ws@test.local"
	if _, err := engine.StartSession(context.Background(), email); err != nil {
		t.Fatalf("start session: %v", err)
	}
	if _, err := engine.ToggleMining(context.Background(), email); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	token, err := service.GenerateJWT(email)
	if err != nil {
		t.Fatalf("gen token: %v", err)
	}

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}

	var frame struct {
		Type  string       `json:"type"`
		State mining.State `json:"state"`
	}
	if err := json.Unmarshal(msg, &frame); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if frame.Type != "state" {
		t.Fatalf("frame type = %q; want state", frame.Type)
	}
	if frame.State.Email != email {
		t.Fatalf("state email = %q; want %q", frame.State.Email, email)
	}
	if !frame.State.Mining {
		t.Fatal("state frame reports mining off")
	}
}

func TestWSNotifiesSessionEnd(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	service.InitJWT()

	engine := mining.NewEngine(&memAccounts{rows: map[string]*domain.Account{}}, memWithdrawals{})
	h := &handlers.Handler{Engine: engine}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", h.WS)

	ts := httptest.NewServer(r)
	defer ts.Close()

	email := "bye@test.local"
	if _, err := engine.StartSession(context.Background(), email); err != nil {
		t.Fatalf("start session: %v", err)
	}

	token, err := service.GenerateJWT(email)
	if err != nil {
		t.Fatalf("gen token: %v", err)
	}

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	engine.EndSession(email)

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var obj map[string]any
		if err := json.Unmarshal(msg, &obj); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if obj["type"] == "session_ended" {
			return
		}
	}
}

func TestWSDisconnectStopsMining(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	service.InitJWT()

	engine := mining.NewEngine(&memAccounts{rows: map[string]*domain.Account{}}, memWithdrawals{})
	h := &handlers.Handler{Engine: engine}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", h.WS)

	ts := httptest.NewServer(r)
	defer ts.Close()

	email := "unload@test.local"
	if _, err := engine.StartSession(context.Background(), email); err != nil {
		t.Fatalf("start session: %v", err)
	}
	if _, err := engine.ToggleMining(context.Background(), email); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	token, err := service.GenerateJWT(email)
	if err != nil {
		t.Fatalf("gen token: %v", err)
	}

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	// closing the stream is the dashboard going away; accrual must stop
	conn.Close()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		s, ok := engine.Session(email)
		if !ok {
			t.Fatal("session removed instead of stopped")
		}
		if !s.Mining() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("mining still running after the stream closed")
}

func TestWSRejectsWithoutSession(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	service.InitJWT()

	engine := mining.NewEngine(&memAccounts{rows: map[string]*domain.Account{}}, memWithdrawals{})
	h := &handlers.Handler{Engine: engine}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", h.WS)

	ts := httptest.NewServer(r)
	defer ts.Close()

	token, err := service.GenerateJWT("nobody@test.local")
	if err != nil {
		t.Fatalf("gen token: %v", err)
	}

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws?token=" + token
	if _, resp, err := websocket.DefaultDialer.Dial(wsURL, nil); err == nil {
		t.Fatal("dial succeeded without a live session")
	} else if resp == nil || resp.StatusCode != 404 {
		t.Fatalf("expected 404 handshake rejection, got %v", resp)
	}
}
