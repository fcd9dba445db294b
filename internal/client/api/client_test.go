package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New(srv.URL + "/")
	c.Out = io.Discard
	return c
}

func TestSetDepthSendsTokenAndBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v1/games/g1/depth", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req DepthRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		json.NewEncoder(w).Encode(GameResponse{GameID: "g1", Depth: req.Depth, State: "ongoing"})
	})
	c.SetToken("tok")

	resp, err := c.SetDepth("g1", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Depth)
}

func TestErrorResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"validation failed","code":"INVALID_REQUEST","details":"Depth must be at most 4"}`)
	})

	_, err := c.SetDepth("g1", 5)
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "INVALID_REQUEST", apiErr.Body.Code)
	assert.Equal(t, "validation failed (INVALID_REQUEST): Depth must be at most 4", err.Error())
}

func TestErrorWithoutBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	err := c.DeleteGame("g1")
	assert.EqualError(t, err, "502 Bad Gateway")
}

func TestWaitForComputer(t *testing.T) {
	var polls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("wait"))
		n := polls.Add(1)
		moveCount, _ := strconv.Atoi(r.URL.Query().Get("moveCount"))
		assert.Equal(t, 1, moveCount)

		resp := GameResponse{GameID: "g1", State: "pending", Moves: []string{"e2e4"}}
		if n == 3 {
			resp.State = "ongoing"
			resp.Moves = append(resp.Moves, "e7e5")
			resp.LastMove = &MoveInfo{Move: "e7e5", PlayerColor: "b", Depth: 2, Nodes: 421}
		}
		json.NewEncoder(w).Encode(resp)
	})

	resp, err := c.WaitForComputer("g1", 1)
	require.NoError(t, err)
	assert.Equal(t, int32(3), polls.Load())
	assert.Equal(t, 421, resp.LastMove.Nodes)
}

func TestWaitForComputerGivesUp(t *testing.T) {
	var polls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		polls.Add(1)
		json.NewEncoder(w).Encode(GameResponse{State: "pending"})
	})

	_, err := c.WaitForComputer("g1", 0)
	assert.ErrorContains(t, err, "still thinking")
	assert.Equal(t, int32(maxPolls), polls.Load())
}

func TestAccount(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/auth/me", r.URL.Path)
		fmt.Fprint(w, `{"userId":"u1","username":"alice","games":[{"gameId":"g1","playerColor":"b","depth":3}]}`)
	})

	account, err := c.Account()
	require.NoError(t, err)
	require.Len(t, account.Games, 1)
	assert.Equal(t, 3, account.Games[0].Depth)
}

func TestRawRequest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Write(body)
	})

	data, err := c.RawRequest(http.MethodPost, "/echo", `{"count": 2}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":2}`, string(data))

	data, err = c.RawRequest(http.MethodPost, "/echo", `not json`)
	require.NoError(t, err)
	assert.Equal(t, `"not json"`, strings.TrimSpace(string(data)))
}

func TestWorkerHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		fmt.Fprint(w, `{"status":"healthy","connections":2}`)
	}))
	defer srv.Close()

	port, err := strconv.Atoi(srv.URL[strings.LastIndex(srv.URL, ":")+1:])
	require.NoError(t, err)

	health, err := WorkerHealth("http://127.0.0.1:8080/chess", port, 0)
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, 2, health.Connections)
}

func TestWorkerURL(t *testing.T) {
	u, err := WorkerURL("https://example.com/chess", 8081)
	require.NoError(t, err)
	assert.Equal(t, "wss://example.com:8081/worker", u)
}
