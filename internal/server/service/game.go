package service

import (
	"errors"
	"fmt"
	"time"

	"chessworker/internal/server/core"
	"chessworker/internal/server/game"
	"chessworker/internal/server/storage"

	"github.com/google/uuid"
)

// CreateGame registers a new game with pre-constructed players
func (s *Service) CreateGame(id string, whitePlayer, blackPlayer *core.Player, initialFEN string, startingTurn core.Color, depth int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.games[id]; exists {
		return fmt.Errorf("game %s already exists", id)
	}

	g := game.New(initialFEN, whitePlayer, blackPlayer, startingTurn, depth)
	s.games[id] = g

	if s.store != nil {
		human := g.HumanColor()
		s.store.RecordNewGame(storage.GameRecord{
			GameID:       id,
			InitialFEN:   initialFEN,
			PlayerColor:  human.String(),
			UserID:       g.GetPlayer(human).ID,
			SearchDepth:  depth,
			StartTimeUTC: time.Now().UTC(),
		})
	}

	return nil
}

// GetGame retrieves a game by ID
func (s *Service) GetGame(gameID string) (*game.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.games[gameID]
	if !ok {
		return nil, fmt.Errorf("game not found: %s", gameID)
	}
	return g, nil
}

// GameCount returns the number of games held in memory
func (s *Service) GameCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}

// GenerateGameID creates a new unique game ID
func (s *Service) GenerateGameID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for {
		id := uuid.New().String()
		if _, exists := s.games[id]; !exists {
			return id
		}
	}
}

// ErrNotPending is returned when a computer move arrives for a game that is
// no longer waiting for one
var ErrNotPending = errors.New("game is not waiting for a computer move")

// ApplyMove adds a validated move to the game history and records result as
// the last move
func (s *Service) ApplyMove(gameID, newFEN string, result *game.MoveResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[gameID]
	if !ok {
		return fmt.Errorf("game not found: %s", gameID)
	}

	s.applyLocked(gameID, g, newFEN, result)
	return nil
}

// ApplyComputerMove applies a searched move and leaves the pending state in
// one step, so waiters never observe the move while the game is still pending
func (s *Service) ApplyComputerMove(gameID, newFEN string, result *game.MoveResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[gameID]
	if !ok {
		return fmt.Errorf("game not found: %s", gameID)
	}
	if !g.CompareAndSetState(core.StatePending, core.StateOngoing) {
		return ErrNotPending
	}

	s.applyLocked(gameID, g, newFEN, result)
	return nil
}

func (s *Service) applyLocked(gameID string, g *game.Game, newFEN string, result *game.MoveResult) {
	g.AddSnapshot(newFEN, result.Move, core.OppositeColor(result.PlayerColor))
	g.SetLastResult(result)
	moveCount := g.MoveCount()

	s.waiter.NotifyGame(gameID, moveCount)

	if s.store != nil {
		s.store.RecordMove(storage.MoveRecord{
			GameID:       gameID,
			MoveNumber:   moveCount,
			MoveUCI:      result.Move,
			FENAfterMove: newFEN,
			PlayerColor:  result.PlayerColor.String(),
			NodesVisited: result.Nodes,
			SearchDepth:  result.Depth,
			MoveTimeUTC:  time.Now().UTC(),
		})
	}
}

// UpdateGameState sets the game state and wakes waiters when the game ends
// or gets stuck
func (s *Service) UpdateGameState(gameID string, state core.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[gameID]
	if !ok {
		return fmt.Errorf("game not found: %s", gameID)
	}

	g.SetState(state)
	s.notifyState(gameID, state)
	return nil
}

// TransitionGameState moves a game from one state to another only if it is
// currently in the expected state
func (s *Service) TransitionGameState(gameID string, expect, next core.State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[gameID]
	if !ok || !g.CompareAndSetState(expect, next) {
		return false
	}
	s.notifyState(gameID, next)
	return true
}

func (s *Service) notifyState(gameID string, state core.State) {
	if state != core.StateOngoing && state != core.StatePending {
		s.waiter.NotifyGame(gameID, -1)
	}
}

// SetDepth records the computer player's search depth
func (s *Service) SetDepth(gameID string, depth int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[gameID]
	if !ok {
		return fmt.Errorf("game not found: %s", gameID)
	}

	g.SetDepth(depth)
	if s.store != nil {
		s.store.UpdateGameDepth(gameID, depth)
	}
	return nil
}

// UndoMoves removes the specified number of moves from game history
func (s *Service) UndoMoves(gameID string, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[gameID]
	if !ok {
		return fmt.Errorf("game not found: %s", gameID)
	}

	if err := g.UndoMoves(count); err != nil {
		return err
	}
	remaining := g.MoveCount()

	s.waiter.NotifyGame(gameID, remaining)

	if s.store != nil {
		s.store.DeleteUndoneMoves(gameID, remaining)
	}

	return nil
}

// DeleteGame removes a game from memory
func (s *Service) DeleteGame(gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[gameID]; !ok {
		return fmt.Errorf("game not found: %s", gameID)
	}

	s.waiter.RemoveGame(gameID)

	delete(s.games, gameID)
	return nil
}
