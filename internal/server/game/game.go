package game

import (
	"fmt"
	"sync"

	"chessworker/internal/server/board"
	"chessworker/internal/server/core"
)

type Snapshot struct {
	FEN           string          `json:"fen"`
	PreviousMove  string          `json:"previousMove"`
	NextTurnColor core.Color      `json:"nextTurnColor"`
	PlayerType    core.PlayerType `json:"playerType"`
	PlayerID      string          `json:"playerId"` // ID of the player whose turn it is
}

// MoveResult tracks the outcome of a move
type MoveResult struct {
	Move        string     `json:"move"`
	PlayerColor core.Color `json:"playerColor"`
	GameState   core.State `json:"gameState"`
	Score       float64    `json:"score"`
	Depth       int        `json:"depth"`
	Nodes       int        `json:"nodes"`
}

// Game is a human versus computer game. All methods are safe for concurrent use.
type Game struct {
	mu         sync.RWMutex
	snapshots  []Snapshot
	players    map[core.Color]*core.Player
	state      core.State
	depth      int
	lastResult *MoveResult
}

func New(initialFEN string, whitePlayer, blackPlayer *core.Player, startingTurnColor core.Color, depth int) *Game {
	g := &Game{
		players: map[core.Color]*core.Player{
			core.ColorWhite: whitePlayer,
			core.ColorBlack: blackPlayer,
		},
		state: core.StateOngoing,
		depth: depth,
	}

	next := g.players[startingTurnColor]
	g.snapshots = []Snapshot{
		{
			FEN:           initialFEN,
			NextTurnColor: startingTurnColor,
			PlayerType:    next.Type,
			PlayerID:      next.ID,
		},
	}
	return g
}

func (g *Game) SetLastResult(result *MoveResult) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastResult = result
}

func (g *Game) LastResult() *MoveResult {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.lastResult
}

// CurrentSnapshot returns the latest game snapshot
func (g *Game) CurrentSnapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.snapshots[len(g.snapshots)-1]
}

// CurrentFEN returns the current position in FEN notation
func (g *Game) CurrentFEN() string {
	return g.CurrentSnapshot().FEN
}

// CurrentBoard parses the current position
func (g *Game) CurrentBoard() (*board.Board, error) {
	return board.ParseFEN(g.CurrentFEN())
}

func (g *Game) NextTurnColor() core.Color {
	return g.CurrentSnapshot().NextTurnColor
}

func (g *Game) NextPlayer() *core.Player {
	return g.GetPlayer(g.NextTurnColor())
}

func (g *Game) GetPlayer(color core.Color) *core.Player {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.players[color]
}

// HumanColor returns the side played by the human, or 0 if neither is
func (g *Game) HumanColor() core.Color {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for color, p := range g.players {
		if p.Type == core.PlayerHuman {
			return color
		}
	}
	return 0
}

func (g *Game) AddSnapshot(fen string, move string, nextTurnColor core.Color) {
	g.mu.Lock()
	defer g.mu.Unlock()

	nextPlayer := g.players[nextTurnColor]
	g.snapshots = append(g.snapshots, Snapshot{
		FEN:           fen,
		PreviousMove:  move,
		NextTurnColor: nextTurnColor,
		PlayerType:    nextPlayer.Type,
		PlayerID:      nextPlayer.ID,
	})
}

func (g *Game) UndoMoves(count int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if count < 1 {
		return fmt.Errorf("invalid undo count: %d", count)
	}

	availableMoves := len(g.snapshots) - 1
	if availableMoves < count {
		return fmt.Errorf("cannot undo %d moves: only %d moves available", count, availableMoves)
	}

	g.snapshots = g.snapshots[:len(g.snapshots)-count]
	g.state = core.StateOngoing
	g.lastResult = nil
	return nil
}

func (g *Game) Moves() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	moves := []string{}
	for i := 1; i < len(g.snapshots); i++ {
		if g.snapshots[i].PreviousMove != "" {
			moves = append(moves, g.snapshots[i].PreviousMove)
		}
	}
	return moves
}

// MoveCount returns the number of moves played since the initial position
func (g *Game) MoveCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.snapshots) - 1
}

func (g *Game) State() core.State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

func (g *Game) SetState(s core.State) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = s
}

// CompareAndSetState moves the game from expect to next, reporting whether
// the current state was expect
func (g *Game) CompareAndSetState(expect, next core.State) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != expect {
		return false
	}
	g.state = next
	return true
}

// Depth is the search depth of the computer player
func (g *Game) Depth() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.depth
}

func (g *Game) SetDepth(depth int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.depth = depth
}

func (g *Game) InitialFEN() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if len(g.snapshots) > 0 {
		return g.snapshots[0].FEN
	}
	return board.StartingFEN
}
