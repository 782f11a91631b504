package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"shib_mining/internal/domain"
	"shib_mining/internal/mining"

	"github.com/gin-gonic/gin"
)

func TestToggleMiningSurvivesConcurrentLogout(t *testing.T) {
	// zero balance so the teardown inside the stop-flush does not try a
	// second flush of its own
	accounts := &logoutOnSave{
		stubAccounts: &stubAccounts{rows: map[string]*domain.Account{
			"a@b.com": {Email: "a@b.com", Plan: domain.PlanStart},
		}},
		email: "a@b.com",
	}
	engine := mining.NewEngine(accounts, stubWithdrawals{})
	accounts.engine = engine
	if _, err := engine.StartSession(context.Background(), "a@b.com"); err != nil {
		t.Fatalf("start session: %v", err)
	}

	h := &Handler{Engine: engine}
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/toggle", func(c *gin.Context) {
		c.Set("email", "a@b.com")
		h.ToggleMining(c)
	})

	// start: no store write happens, session stays
	w := postJSON(r, "/toggle", "")
	if w.Code != http.StatusOK {
		t.Fatalf("start: status = %d: %s", w.Code, w.Body.String())
	}

	// stop: the flush write triggers the logout; the handler must not
	// panic on the vanished session
	w = postJSON(r, "/toggle", "")
	if w.Code != http.StatusOK {
		t.Fatalf("stop: status = %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if active, ok := resp["mining"].(bool); !ok || active {
		t.Fatalf("mining = %v; want false", resp["mining"])
	}
	if _, ok := resp["state"]; ok {
		t.Fatal("response carries state for a session that is gone")
	}
}
