package main

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritePIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chess.pid")

	cleanup, err := writePIDFile(path, true)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), strings.TrimSpace(string(data)))

	// Our own process is alive, so a second locked instance is refused
	_, err = writePIDFile(path, true)
	assert.Error(t, err)

	cleanup()
	assert.NoFileExists(t, path)
}

func TestWritePIDFileOverwritesWithoutLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chess.pid")
	require.NoError(t, os.WriteFile(path, []byte("garbage\n"), 0644))

	cleanup, err := writePIDFile(path, false)
	require.NoError(t, err)
	defer cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), strings.TrimSpace(string(data)))
}

func TestCheckStalePID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chess.pid")

	require.NoError(t, os.WriteFile(path, []byte("not-a-pid"), 0644))
	assert.ErrorContains(t, checkStalePID(path), "corrupted")

	require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0644))
	assert.ErrorContains(t, checkStalePID(path), "still running")
}

func TestNewJWTSecret(t *testing.T) {
	dev, err := newJWTSecret(true)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(dev), 32)

	a, err := newJWTSecret(false)
	require.NoError(t, err)
	b, err := newJWTSecret(false)
	require.NoError(t, err)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}
