package cli

import (
	"path/filepath"
	"testing"

	"chessworker/internal/server/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chess.db")

	require.NoError(t, Run([]string{"init", "-path", path}))
	require.NoError(t, Run([]string{"user", "add", "-path", path, "-username", "Alice", "-password", "secret123"}))

	assert.Error(t, Run([]string{"user", "add", "-path", path, "-username", "alice", "-password", "secret123"}), "duplicate username")
	assert.Error(t, Run([]string{"user", "add", "-path", path, "-username", "bob", "-password", "short"}))
	assert.Error(t, Run([]string{"user", "add", "-path", path, "-username", "bob", "-password", "secret123", "-hash", "x"}))

	store, err := storage.NewStore(path, false)
	require.NoError(t, err)
	user, err := store.GetUserByUsername("alice")
	require.NoError(t, err)
	oldHash := user.PasswordHash
	require.NoError(t, store.Close())

	require.NoError(t, Run([]string{"user", "set-password", "-path", path, "-username", "alice", "-password", "another123"}))
	require.NoError(t, Run([]string{"user", "list", "-path", path}))

	store, err = storage.NewStore(path, false)
	require.NoError(t, err)
	user, err = store.GetUserByUsername("alice")
	require.NoError(t, err)
	assert.NotEqual(t, oldHash, user.PasswordHash)
	require.NoError(t, store.Close())

	require.NoError(t, Run([]string{"user", "delete", "-path", path, "-id", user.UserID}))
	assert.Error(t, Run([]string{"user", "delete", "-path", path, "-id", user.UserID}))
}

func TestQueries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chess.db")
	require.NoError(t, Run([]string{"init", "-path", path}))

	require.NoError(t, Run([]string{"games", "-path", path}))
	require.NoError(t, Run([]string{"moves", "-path", path, "-gameId", "missing"}))
	assert.Error(t, Run([]string{"moves", "-path", path}))

	require.NoError(t, Run([]string{"delete", "-path", path}))
	assert.NoFileExists(t, path)
}

func TestRunErrors(t *testing.T) {
	assert.Error(t, Run(nil))
	assert.Error(t, Run([]string{"bogus"}))
	assert.Error(t, Run([]string{"user"}))
	assert.Error(t, Run([]string{"user", "bogus"}))
	assert.Error(t, Run([]string{"init"}), "missing path")
}
