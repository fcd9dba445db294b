package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"chessworker/internal/client/display"
	"chessworker/internal/server/board"
	"chessworker/internal/server/core"
	"chessworker/internal/server/processor"

	"github.com/gorilla/websocket"
)

// SearchResult is the answer of a remote search worker
type SearchResult struct {
	Move  string // empty when the side to move has no move
	Nodes int
}

// WorkerHealthResponse is the socket listener's health report
type WorkerHealthResponse struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
}

// WorkerHealth reads the health endpoint of the socket listener
func WorkerHealth(apiBaseURL string, port int, timeout time.Duration) (*WorkerHealthResponse, error) {
	u, err := url.Parse(apiBaseURL)
	if err != nil {
		return nil, err
	}
	u.Host = fmt.Sprintf("%s:%d", u.Hostname(), port)
	u.Path = "/health"

	client := http.Client{Timeout: timeout}
	resp, err := client.Get(u.String())
	if err != nil {
		return nil, fmt.Errorf("worker socket unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("worker socket health: %s", resp.Status)
	}

	var health WorkerHealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, err
	}
	return &health, nil
}

// WorkerURL derives the socket endpoint from an API base URL and the socket port
func WorkerURL(apiBaseURL string, port int) (string, error) {
	u, err := url.Parse(apiBaseURL)
	if err != nil {
		return "", err
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s:%d/worker", scheme, u.Hostname(), port), nil
}

// Search asks a remote worker for the best move of the side to move in fen
func Search(workerURL, fen string, depth int, timeout time.Duration) (*SearchResult, error) {
	b, err := board.ParseFEN(strings.TrimSpace(fen))
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.Dial(workerURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to worker: %w", err)
	}
	defer conn.Close()

	fmt.Printf("\n%s[WS] %s%s\n", display.Blue, workerURL, display.Reset)

	if depth > 0 {
		if err := conn.WriteJSON(processor.NewDepthMessage(depth)); err != nil {
			return nil, err
		}
	}
	// The worker answers for the side opposite the caller
	if err := conn.WriteJSON(processor.NewPlayMessage(b.Position(), core.OppositeColor(b.Turn()))); err != nil {
		return nil, err
	}

	conn.SetReadDeadline(time.Now().Add(timeout))

	result := &SearchResult{}
	for {
		var msg processor.Message
		if err := conn.ReadJSON(&msg); err != nil {
			return nil, fmt.Errorf("worker did not answer: %w", err)
		}

		switch msg.Cmd {
		case processor.MsgPlay:
			move, err := msg.Move()
			if err != nil {
				return nil, err
			}
			result.Move = move.String()
		case processor.MsgInfo:
			nodes, err := msg.Nodes()
			if err != nil {
				return nil, err
			}
			result.Nodes = nodes
			return result, nil
		}
	}
}
