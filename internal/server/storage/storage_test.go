package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := NewStore(path, false)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chess.db")
	s := openStore(t, path)
	require.NoError(t, s.InitDB())
	return s, path
}

func TestAsyncGameAndMoveWrites(t *testing.T) {
	s, path := newTestStore(t)
	start := time.Now().UTC().Truncate(time.Second)

	s.RecordNewGame(GameRecord{
		GameID:       "game-1",
		InitialFEN:   "8/8/8/8/8/8/8/8 w - - 0 1",
		PlayerColor:  "w",
		UserID:       "user-1",
		SearchDepth:  3,
		StartTimeUTC: start,
	})
	s.RecordMove(MoveRecord{GameID: "game-1", MoveNumber: 1, MoveUCI: "e2e4", FENAfterMove: "fen-1", PlayerColor: "w", MoveTimeUTC: start})
	s.RecordMove(MoveRecord{GameID: "game-1", MoveNumber: 2, MoveUCI: "e7e5", FENAfterMove: "fen-2", PlayerColor: "b", NodesVisited: 421, SearchDepth: 2, MoveTimeUTC: start})
	s.RecordMove(MoveRecord{GameID: "game-1", MoveNumber: 3, MoveUCI: "g1f3", FENAfterMove: "fen-3", PlayerColor: "w", MoveTimeUTC: start})
	s.DeleteUndoneMoves("game-1", 2)
	s.UpdateGameDepth("game-1", 4)

	// Close drains the writer
	require.NoError(t, s.Close())
	assert.True(t, s.IsHealthy())

	reopened := openStore(t, path)

	games, err := reopened.QueryGames("*", "user-1")
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "game-1", games[0].GameID)
	assert.Equal(t, "w", games[0].PlayerColor)
	assert.Equal(t, 4, games[0].SearchDepth)

	moves, err := reopened.QueryMoves("game-1")
	require.NoError(t, err)
	require.Len(t, moves, 2)
	assert.Equal(t, "e2e4", moves[0].MoveUCI)
	assert.Equal(t, 421, moves[1].NodesVisited)
	assert.Equal(t, 2, moves[1].SearchDepth)

	none, err := reopened.QueryGames("missing", "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFailedWriteDegradesStore(t *testing.T) {
	s, _ := newTestStore(t)

	// Violates the player_color check constraint
	s.RecordNewGame(GameRecord{GameID: "bad", InitialFEN: "x", PlayerColor: "red", StartTimeUTC: time.Now().UTC()})

	require.Eventually(t, func() bool { return !s.IsHealthy() }, 2*time.Second, 10*time.Millisecond)

	// Further writes are dropped silently
	s.RecordMove(MoveRecord{GameID: "bad", MoveNumber: 1, MoveUCI: "e2e4", FENAfterMove: "f", PlayerColor: "w"})
}

func TestUsers(t *testing.T) {
	s, _ := newTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, s.CreateUser(UserRecord{UserID: "u1", Username: "Alice", Email: "alice@example.com", PasswordHash: "hash", CreatedAt: now}))
	require.NoError(t, s.CreateUser(UserRecord{UserID: "u2", Username: "bob", PasswordHash: "hash", CreatedAt: now}))

	err := s.CreateUser(UserRecord{UserID: "u3", Username: "alice", PasswordHash: "hash", CreatedAt: now})
	assert.ErrorIs(t, err, ErrUserExists)

	byName, err := s.GetUserByUsername("ALICE")
	require.NoError(t, err)
	assert.Equal(t, "u1", byName.UserID)
	assert.Nil(t, byName.LastLoginAt)

	byEmail, err := s.GetUserByEmail("Alice@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", byEmail.UserID)

	require.NoError(t, s.UpdateUserLastLoginSync("u2", now))
	bob, err := s.GetUserByID("u2")
	require.NoError(t, err)
	assert.Empty(t, bob.Email)
	require.NotNil(t, bob.LastLoginAt)

	require.NoError(t, s.UpdateUserPassword("u2", "newhash"))
	bob, err = s.GetUserByID("u2")
	require.NoError(t, err)
	assert.Equal(t, "newhash", bob.PasswordHash)

	users, err := s.GetAllUsers()
	require.NoError(t, err)
	assert.Len(t, users, 2)

	require.NoError(t, s.DeleteUserByID("u1"))
	assert.Error(t, s.DeleteUserByID("u1"))
	_, err = s.GetUserByID("u1")
	assert.Error(t, err)
}

func TestDeleteDB(t *testing.T) {
	s, path := newTestStore(t)
	require.NoError(t, s.DeleteDB())
	assert.NoFileExists(t, path)
}
