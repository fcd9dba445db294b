// Package engine selects moves with a fixed-depth, full-width minimax search.
//
// There is no pruning, no transposition table and no iterative deepening:
// every node down to the configured depth is visited.
package engine

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"

	"chessworker/internal/server/board"
	"chessworker/internal/server/core"
)

const DefaultDepth = 3

// Forced win and loss scores, relative to the searching side. They are the
// float64 extremes so that ordinary comparison orders them correctly.
const (
	ForcedWin  = math.MaxFloat64
	ForcedLoss = -math.MaxFloat64
)

// Rules are the game collaborators the search consumes. Implementations must
// be pure: After returns a new position and never mutates its input.
type Rules interface {
	Evaluate(p board.Position) float64
	ValidMoves(origin core.Coordinate, attackingOnly bool, p board.Position, side core.Color) []core.Coordinate
	After(p board.Position, from, to core.Coordinate) board.Position
	GameOver(side core.Color, p board.Position) core.Terminal
}

// SearchResult is the outcome of a single FindBestMove call
type SearchResult struct {
	BestMove *core.Move // nil when the root has no legal move
	Score    float64
	Nodes    int
	Depth    int
	Side     core.Color // side the move was searched for
}

type Engine struct {
	rules     Rules
	depth     atomic.Int64
	maximizer core.Color
	drawScore *float64
}

type Option func(*Engine)

// WithDepth sets the initial search depth
func WithDepth(depth int) Option {
	return func(e *Engine) {
		e.Configure(depth)
	}
}

// WithDrawScore scores non-checkmate terminal positions (stalemate) as score
// instead of falling through to static evaluation
func WithDrawScore(score float64) Option {
	return func(e *Engine) {
		e.drawScore = &score
	}
}

// WithMaximizer selects which side picks the highest backed-up score.
// White maximizes by default, matching the sign of rules.Evaluate.
func WithMaximizer(c core.Color) Option {
	return func(e *Engine) {
		e.maximizer = c
	}
}

func New(rules Rules, opts ...Option) *Engine {
	e := &Engine{
		rules:     rules,
		maximizer: core.ColorWhite,
	}
	e.depth.Store(DefaultDepth)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Configure sets the search depth; values below 1 are raised to 1
func (e *Engine) Configure(depth int) {
	if depth < 1 {
		depth = 1
	}
	e.depth.Store(int64(depth))
}

func (e *Engine) Depth() int {
	return int(e.depth.Load())
}

// FindBestMove searches for the side opposing callerSide, since the engine
// always answers the caller's move. All per-search state is local to the
// call, so concurrent searches on one Engine do not interfere.
func (e *Engine) FindBestMove(ctx context.Context, p board.Position, callerSide core.Color) (*SearchResult, error) {
	if !callerSide.Valid() {
		return nil, fmt.Errorf("invalid caller side %d", callerSide)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	depth := e.Depth()
	s := &search{
		ctx:       ctx,
		rules:     e.rules,
		searching: core.OppositeColor(callerSide),
		maximizer: e.maximizer,
		drawScore: e.drawScore,
	}

	score, move, err := s.tree(p, depth, s.searching)
	if err != nil {
		return nil, err
	}

	return &SearchResult{
		BestMove: move,
		Score:    score,
		Nodes:    s.nodes,
		Depth:    depth,
		Side:     s.searching,
	}, nil
}
