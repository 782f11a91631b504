package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"shib_mining/internal/service"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
)

// Dials the live state stream for a user and prints a few frames. The
// target user must already have a session (log in and open the dashboard
// first, or use create_test_user plus an API login).
func main() {
	_ = godotenv.Load()

	if os.Getenv("JWT_SECRET") == "" {
		log.Fatal("JWT_SECRET not set")
	}
	service.InitJWT()

	email := "miner@example.com"
	if v := os.Getenv("SMOKE_EMAIL"); v != "" {
		email = v
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	token, err := service.GenerateJWT(email)
	if err != nil {
		log.Fatalf("gen token: %v", err)
	}

	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	wsURL := fmt.Sprintf("ws://127.0.0.1:%s/ws?token=%s", port, token)

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			log.Fatalf("dial: no live session for %s (open the dashboard first)", email)
		}
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	for i := 0; i < 5; i++ {
		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			log.Fatalf("read: %v", err)
		}
		fmt.Println(string(msg))
	}
}
