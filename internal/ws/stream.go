package ws

import (
	"context"
	"encoding/json"
	"time"

	"shib_mining/internal/logger"
	"shib_mining/internal/mining"

	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 30 * time.Second
	pingPeriod   = 25 * time.Second
	statePeriod  = time.Second
	maxFrameSize = 512
)

// Client streams one user's mining state to a connected dashboard, one
// frame per second. The socket is read-only from the peer's side; inbound
// frames are discarded and only keep the pong handler alive.
type Client struct {
	Email  string
	Conn   *websocket.Conn
	engine *mining.Engine

	done chan struct{}
}

func NewClient(email string, conn *websocket.Conn, engine *mining.Engine) *Client {
	return &Client{
		Email:  email,
		Conn:   conn,
		engine: engine,
		done:   make(chan struct{}),
	}
}

// Run pumps state frames until the peer goes away. Blocks until the
// connection is closed. A dropped stream means the dashboard is gone, so
// accrual stops and the balance gets flushed rather than running unwatched.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
	c.engine.StopMining(context.Background(), c.Email)
}

func (c *Client) readPump() {
	defer func() {
		close(c.done)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxFrameSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	state := time.NewTicker(statePeriod)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		state.Stop()
		ping.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case <-state.C:
			s, ok := c.engine.Session(c.Email)
			if !ok {
				// session ended (logout elsewhere); tell the peer and stop
				c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = c.Conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"session_ended"}`))
				return
			}

			frame, err := json.Marshal(map[string]any{
				"type":  "state",
				"state": s.Snapshot(),
			})
			if err != nil {
				logger.Error("failed to marshal state frame", "email", c.Email, "error", err)
				continue
			}

			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ping.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
