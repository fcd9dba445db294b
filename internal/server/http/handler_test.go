package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"chessworker/internal/server/core"
	"chessworker/internal/server/processor"
	"chessworker/internal/server/service"
	"chessworker/internal/server/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestApp(t *testing.T, store *storage.Store) *fiber.App {
	t.Helper()
	svc := service.New(store, testSecret, 0)
	proc := processor.New(svc, processor.Config{DefaultDepth: 1})
	t.Cleanup(func() {
		proc.Close()
		svc.Shutdown(time.Second)
	})
	return NewFiberApp(proc, svc, Config{RateLimit: 1000})
}

func do(t *testing.T, app *fiber.App, method, path, body string, header ...string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	resp, err := app.Test(req, 10000)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, nil)

	status, body := do(t, app, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, status)

	health := decode[map[string]any](t, body)
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "disabled", health["storage"])
	assert.EqualValues(t, 0, health["workers"])
}

func TestGameFlow(t *testing.T) {
	app := newTestApp(t, nil)

	status, body := do(t, app, http.MethodPost, "/api/v1/games", `{"playerColor":"w"}`)
	require.Equal(t, http.StatusCreated, status, string(body))
	game := decode[core.GameResponse](t, body)
	assert.Equal(t, "ongoing", game.State)
	assert.Equal(t, 1, game.Depth)
	base := "/api/v1/games/" + game.GameID

	status, body = do(t, app, http.MethodPost, base+"/moves", `{"move":"e2e4"}`)
	require.Equal(t, http.StatusOK, status, string(body))

	// Long-poll until the computer has replied
	status, body = do(t, app, http.MethodGet, base+"?wait=true&moveCount=1", "")
	require.Equal(t, http.StatusOK, status)
	game = decode[core.GameResponse](t, body)
	require.Len(t, game.Moves, 2)
	assert.Equal(t, "w", game.Turn)
	require.NotNil(t, game.LastMove)
	assert.Equal(t, 21, game.LastMove.Nodes)

	status, body = do(t, app, http.MethodPut, base+"/depth", `{"depth":2}`)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, 2, decode[core.GameResponse](t, body).Depth)

	status, body = do(t, app, http.MethodGet, base+"/board", "")
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, decode[core.BoardResponse](t, body).Board)

	status, body = do(t, app, http.MethodGet, base+"/pgn?format=text", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "1.e4")

	status, body = do(t, app, http.MethodPost, base+"/undo", `{"count":2}`)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Empty(t, decode[core.GameResponse](t, body).Moves)

	status, _ = do(t, app, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNoContent, status)

	status, body = do(t, app, http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, core.ErrGameNotFound, decode[core.ErrorResponse](t, body).Code)
}

func TestRequestValidation(t *testing.T) {
	app := newTestApp(t, nil)

	status, body := do(t, app, http.MethodPost, "/api/v1/games", `{"playerColor":"w"}`)
	require.Equal(t, http.StatusCreated, status)
	base := "/api/v1/games/" + decode[core.GameResponse](t, body).GameID

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"bad color", http.MethodPost, "/api/v1/games", `{"playerColor":"x"}`, http.StatusBadRequest, core.ErrInvalidRequest},
		{"depth too large", http.MethodPost, "/api/v1/games", `{"playerColor":"w","depth":5}`, http.StatusBadRequest, core.ErrInvalidRequest},
		{"bad fen", http.MethodPost, "/api/v1/games", `{"playerColor":"w","fen":"8/8/8"}`, http.StatusBadRequest, core.ErrInvalidFEN},
		{"broken json", http.MethodPost, "/api/v1/games", `{"playerColor":`, http.StatusBadRequest, core.ErrInvalidRequest},
		{"bad game id", http.MethodGet, "/api/v1/games/not-a-uuid", "", http.StatusBadRequest, core.ErrInvalidRequest},
		{"unknown game", http.MethodGet, "/api/v1/games/1b4e28ba-2fa1-11d2-883f-0016d3cca427", "", http.StatusNotFound, core.ErrGameNotFound},
		{"short move", http.MethodPost, base + "/moves", `{"move":"e2"}`, http.StatusBadRequest, core.ErrInvalidRequest},
		{"illegal move", http.MethodPost, base + "/moves", `{"move":"e2e5"}`, http.StatusBadRequest, core.ErrInvalidMove},
		{"depth beyond limit", http.MethodPut, base + "/depth", `{"depth":5}`, http.StatusBadRequest, core.ErrInvalidRequest},
		{"zero depth", http.MethodPut, base + "/depth", `{"depth":0}`, http.StatusBadRequest, core.ErrInvalidRequest},
		{"nothing to undo", http.MethodPost, base + "/undo", `{"count":1}`, http.StatusBadRequest, core.ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, app, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, status, string(body))
			assert.Equal(t, tt.code, decode[core.ErrorResponse](t, body).Code)
		})
	}
}

func TestUnsupportedContentType(t *testing.T) {
	app := newTestApp(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/games", strings.NewReader("playerColor=w"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestAuthFlow(t *testing.T) {
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "chess.db"), false)
	require.NoError(t, err)
	require.NoError(t, store.InitDB())
	app := newTestApp(t, store)

	status, body := do(t, app, http.MethodPost, "/api/v1/auth/register", `{"username":"Alice","password":"secret123"}`)
	require.Equal(t, http.StatusCreated, status, string(body))
	registered := decode[AuthResponse](t, body)
	assert.Equal(t, "alice", registered.Username)
	assert.NotEmpty(t, registered.Token)

	status, _ = do(t, app, http.MethodPost, "/api/v1/auth/register", `{"username":"alice","password":"secret123"}`)
	assert.Equal(t, http.StatusConflict, status)

	for _, body := range []string{
		`{"username":"bob","password":"password"}`,
		`{"username":"bob smith","password":"secret123"}`,
		`{"username":"bob","email":"not-an-email","password":"secret123"}`,
	} {
		status, resp := do(t, app, http.MethodPost, "/api/v1/auth/register", body)
		assert.Equal(t, http.StatusBadRequest, status, body)
		assert.Equal(t, core.ErrInvalidRequest, decode[core.ErrorResponse](t, resp).Code)
	}

	status, _ = do(t, app, http.MethodPost, "/api/v1/auth/login", `{"identifier":"alice","password":"wrong123"}`)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = do(t, app, http.MethodPost, "/api/v1/auth/login", `{"identifier":"ALICE","password":"secret123"}`)
	require.Equal(t, http.StatusOK, status, string(body))
	token := decode[AuthResponse](t, body).Token

	status, body = do(t, app, http.MethodGet, "/api/v1/auth/me", "", "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, status, string(body))
	account := decode[AccountResponse](t, body)
	assert.Equal(t, registered.UserID, account.UserID)
	assert.Empty(t, account.Games)

	status, _ = do(t, app, http.MethodGet, "/api/v1/auth/me", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	// Authenticated games carry the user as the human player
	status, body = do(t, app, http.MethodPost, "/api/v1/games", `{"playerColor":"w","depth":2}`, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusCreated, status)
	created := decode[core.GameResponse](t, body)
	assert.Equal(t, registered.UserID, created.Players.White.ID)

	// Game records are written in the background
	require.Eventually(t, func() bool {
		_, body := do(t, app, http.MethodGet, "/api/v1/auth/me", "", "Authorization", "Bearer "+token)
		return len(decode[AccountResponse](t, body).Games) == 1
	}, 5*time.Second, 20*time.Millisecond)

	_, body = do(t, app, http.MethodGet, "/api/v1/auth/me", "", "Authorization", "Bearer "+token)
	game := decode[AccountResponse](t, body).Games[0]
	assert.Equal(t, created.GameID, game.GameID)
	assert.Equal(t, "w", game.PlayerColor)
	assert.Equal(t, 2, game.Depth)
}

func TestAuthWithoutStorage(t *testing.T) {
	app := newTestApp(t, nil)

	status, body := do(t, app, http.MethodPost, "/api/v1/auth/register", `{"username":"alice","password":"secret123"}`)
	assert.Equal(t, http.StatusServiceUnavailable, status, string(body))
}
