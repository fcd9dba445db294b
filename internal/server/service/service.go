package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"chessworker/internal/server/game"
	"chessworker/internal/server/storage"

	"github.com/hashicorp/go-multierror"
)

const (
	MaxComputerGames = 10
	TokenTTL         = 7 * 24 * time.Hour
)

// Service coordinates game state, user management, and storage
type Service struct {
	games         map[string]*game.Game
	mu            sync.RWMutex
	store         *storage.Store
	jwtSecret     []byte
	waiter        *WaitRegistry
	computerGames atomic.Int32
	maxComputer   int32
}

// New creates a new service instance with optional storage. maxComputerGames
// below 1 selects MaxComputerGames.
func New(store *storage.Store, jwtSecret []byte, maxComputerGames int) *Service {
	if maxComputerGames < 1 {
		maxComputerGames = MaxComputerGames
	}
	return &Service{
		games:       make(map[string]*game.Game),
		store:       store,
		jwtSecret:   jwtSecret,
		waiter:      NewWaitRegistry(),
		maxComputer: int32(maxComputerGames),
	}
}

// GetStorageHealth returns the storage component status
func (s *Service) GetStorageHealth() string {
	if s.store == nil {
		return "disabled"
	}
	if s.store.IsHealthy() {
		return "ok"
	}
	return "degraded"
}

// RegisterWait registers a client to wait for game state changes
func (s *Service) RegisterWait(ctx context.Context, gameID string, moveCount int) <-chan struct{} {
	return s.waiter.RegisterWait(ctx, gameID, moveCount)
}

// ReserveComputerGame claims a computer game slot, reporting false when all
// slots are taken
func (s *Service) ReserveComputerGame() bool {
	for {
		n := s.computerGames.Load()
		if n >= s.maxComputer {
			return false
		}
		if s.computerGames.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// ReleaseComputerGame returns a slot claimed by ReserveComputerGame
func (s *Service) ReleaseComputerGame() {
	s.computerGames.Add(-1)
}

// GetComputerGameCount returns current computer game count
func (s *Service) GetComputerGameCount() int32 {
	return s.computerGames.Load()
}

// Shutdown releases waiters, drops in-memory games and closes storage
func (s *Service) Shutdown(timeout time.Duration) error {
	var result *multierror.Error

	if err := s.waiter.Shutdown(timeout); err != nil {
		result = multierror.Append(result, fmt.Errorf("wait registry: %w", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.games = make(map[string]*game.Game)

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("storage: %w", err))
		}
	}

	return result.ErrorOrNil()
}
