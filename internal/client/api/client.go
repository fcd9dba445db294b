package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"chessworker/internal/client/display"
)

const (
	gamesPath = "/api/v1/games"
	authPath  = "/api/v1/auth"

	// Above the server's long-poll timeout
	requestTimeout = 30 * time.Second

	// Long-polls before WaitForComputer gives up on a search
	maxPolls = 8
)

// Error is a non-2xx answer of the API server
type Error struct {
	Status int
	Body   ErrorResponse
}

func (e *Error) Error() string {
	if e.Body.Code == "" {
		return fmt.Sprintf("%d %s", e.Status, http.StatusText(e.Status))
	}
	msg := fmt.Sprintf("%s (%s)", e.Body.Error, e.Body.Code)
	if e.Body.Details != "" {
		msg += ": " + e.Body.Details
	}
	return msg
}

// Client talks to the game REST API and traces every exchange to Out
type Client struct {
	BaseURL    string
	AuthToken  string
	HTTPClient *http.Client
	Verbose    bool
	Out        io.Writer
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: requestTimeout},
		Out:        os.Stdout,
	}
}

func (c *Client) SetVerbose(v bool) {
	c.Verbose = v
}

func (c *Client) SetBaseURL(url string) {
	c.BaseURL = strings.TrimRight(url, "/")
}

func (c *Client) SetToken(token string) {
	c.AuthToken = token
}

// call sends body as JSON and decodes a successful answer into T
func call[T any](c *Client, method, path string, body any) (*T, error) {
	data, err := c.send(method, path, body)
	if err != nil {
		return nil, err
	}

	result := new(T)
	if len(data) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return nil, fmt.Errorf("unexpected response from %s: %w", path, err)
		}
	}
	return result, nil
}

func (c *Client) send(method, path string, body any) ([]byte, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequest(method, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AuthToken)
	}

	c.tracef(display.Blue, "\n[API] %s %s\n", method, path)
	c.dump("Request", payload)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	color := display.Green
	if resp.StatusCode >= 400 {
		color = display.Red
	}
	c.tracef(color, "[%d %s]\n", resp.StatusCode, http.StatusText(resp.StatusCode))
	c.dump("Response", data)

	if resp.StatusCode >= 400 {
		apiErr := &Error{Status: resp.StatusCode}
		json.Unmarshal(data, &apiErr.Body)
		return nil, apiErr
	}
	return data, nil
}

func (c *Client) tracef(color, format string, args ...any) {
	fmt.Fprintf(c.Out, color+format+display.Reset, args...)
}

// dump prints a JSON body indented in verbose mode and inline otherwise
func (c *Client) dump(label string, data []byte) {
	if len(data) == 0 {
		return
	}
	if !c.Verbose {
		if label == "Request" {
			c.tracef(display.Blue, "%s\n", data)
		}
		return
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		pretty.Reset()
		pretty.Write(data)
	}
	fmt.Fprintf(c.Out, "%s%s Body:%s\n%s\n", display.Cyan, label, display.Reset, pretty.String())
}

func gamePath(gameID string, parts ...string) string {
	return gamesPath + "/" + url.PathEscape(gameID) + strings.Join(parts, "")
}

// Games

func (c *Client) Health() (*HealthResponse, error) {
	return call[HealthResponse](c, http.MethodGet, "/health", nil)
}

func (c *Client) CreateGame(req *CreateGameRequest) (*GameResponse, error) {
	return call[GameResponse](c, http.MethodPost, gamesPath, req)
}

func (c *Client) GetGame(gameID string) (*GameResponse, error) {
	return call[GameResponse](c, http.MethodGet, gamePath(gameID), nil)
}

// GetGameWithPoll blocks server-side until the game has moved past moveCount
// moves or the long-poll expires
func (c *Client) GetGameWithPoll(gameID string, moveCount int) (*GameResponse, error) {
	return call[GameResponse](c, http.MethodGet, gamePath(gameID, fmt.Sprintf("?wait=true&moveCount=%d", moveCount)), nil)
}

func (c *Client) DeleteGame(gameID string) error {
	_, err := c.send(http.MethodDelete, gamePath(gameID), nil)
	return err
}

func (c *Client) MakeMove(gameID, move string) (*GameResponse, error) {
	return call[GameResponse](c, http.MethodPost, gamePath(gameID, "/moves"), &MoveRequest{Move: move})
}

func (c *Client) UndoMoves(gameID string, count int) (*GameResponse, error) {
	return call[GameResponse](c, http.MethodPost, gamePath(gameID, "/undo"), &UndoRequest{Count: count})
}

func (c *Client) GetBoard(gameID string) (*BoardResponse, error) {
	return call[BoardResponse](c, http.MethodGet, gamePath(gameID, "/board"), nil)
}

func (c *Client) GetPGN(gameID string) (*PGNResponse, error) {
	return call[PGNResponse](c, http.MethodGet, gamePath(gameID, "/pgn"), nil)
}

// Search

// SetDepth changes the computer's search depth. A game stuck on a timed out
// search retries at the new depth.
func (c *Client) SetDepth(gameID string, depth int) (*GameResponse, error) {
	return call[GameResponse](c, http.MethodPut, gamePath(gameID, "/depth"), &DepthRequest{Depth: depth})
}

// WaitForComputer long-polls until the game is no longer waiting for the computer
func (c *Client) WaitForComputer(gameID string, moveCount int) (*GameResponse, error) {
	for range maxPolls {
		resp, err := c.GetGameWithPoll(gameID, moveCount)
		if err != nil {
			return nil, err
		}
		if resp.State != "pending" {
			return resp, nil
		}
		moveCount = len(resp.Moves)
	}
	return nil, fmt.Errorf("computer still thinking after %d polls", maxPolls)
}

// Accounts

func (c *Client) Register(username, password, email string) (*AuthResponse, error) {
	return call[AuthResponse](c, http.MethodPost, authPath+"/register", &RegisterRequest{
		Username: username,
		Password: password,
		Email:    email,
	})
}

func (c *Client) Login(identifier, password string) (*AuthResponse, error) {
	return call[AuthResponse](c, http.MethodPost, authPath+"/login", &LoginRequest{
		Identifier: identifier,
		Password:   password,
	})
}

// Account returns the signed in user and the games recorded for them
func (c *Client) Account() (*AccountResponse, error) {
	return call[AccountResponse](c, http.MethodGet, authPath+"/me", nil)
}

// RawRequest sends body as JSON when it parses, otherwise as a JSON string,
// and returns the raw answer
func (c *Client) RawRequest(method, path, body string) ([]byte, error) {
	var payload any
	if body != "" {
		if err := json.Unmarshal([]byte(body), &payload); err != nil {
			payload = body
		}
	}
	return c.send(method, path, payload)
}
