package engine

import (
	"context"
	"testing"

	"chessworker/internal/server/board"
	"chessworker/internal/server/core"
	"chessworker/internal/server/rules"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRules lets tests script every collaborator. Unset hooks fall back to
// the standard rules.
type stubRules struct {
	eval     func(board.Position) float64
	moves    func(origin core.Coordinate, p board.Position, side core.Color) []core.Coordinate
	gameOver func(side core.Color, p board.Position) core.Terminal
}

func (s stubRules) Evaluate(p board.Position) float64 {
	if s.eval != nil {
		return s.eval(p)
	}
	return rules.Evaluate(p)
}

func (s stubRules) ValidMoves(origin core.Coordinate, attackingOnly bool, p board.Position, side core.Color) []core.Coordinate {
	if s.moves != nil {
		return s.moves(origin, p, side)
	}
	return rules.ValidMoves(origin, attackingOnly, p, side)
}

func (s stubRules) After(p board.Position, from, to core.Coordinate) board.Position {
	return rules.After(p, from, to)
}

func (s stubRules) GameOver(side core.Color, p board.Position) core.Terminal {
	if s.gameOver != nil {
		return s.gameOver(side, p)
	}
	return core.TerminalNone
}

func sq(t *testing.T, s string) core.Coordinate {
	t.Helper()
	c, err := core.ParseSquare(s)
	require.NoError(t, err)
	return c
}

func startingPosition(t *testing.T) board.Position {
	t.Helper()
	b, err := board.ParseFEN(board.StartingFEN)
	require.NoError(t, err)
	return b.Position()
}

func TestConfigureClampsDepth(t *testing.T) {
	e := New(rules.Standard{})
	assert.Equal(t, DefaultDepth, e.Depth())

	e.Configure(0)
	assert.Equal(t, 1, e.Depth())

	e.Configure(-5)
	assert.Equal(t, 1, e.Depth())

	e.Configure(4)
	assert.Equal(t, 4, e.Depth())
}

func TestSinglePieceSingleMove(t *testing.T) {
	var p board.Position
	p[0][0] = 'R'

	stub := stubRules{
		moves: func(origin core.Coordinate, p board.Position, side core.Color) []core.Coordinate {
			if origin == (core.Coordinate{Row: 0, Col: 0}) {
				return []core.Coordinate{{Row: 0, Col: 1}}
			}
			return nil
		},
	}

	e := New(stub, WithDepth(1))
	result, err := e.FindBestMove(context.Background(), p, core.ColorBlack)
	require.NoError(t, err)
	require.NotNil(t, result.BestMove)

	assert.Equal(t, core.Move{From: core.Coordinate{Row: 0, Col: 0}, To: core.Coordinate{Row: 0, Col: 1}}, *result.BestMove)
	assert.Equal(t, 2, result.Nodes)
	assert.Equal(t, core.ColorWhite, result.Side)
}

func TestDepthZeroLeafReturnsEvaluation(t *testing.T) {
	p := startingPosition(t)
	s := &search{
		ctx:       context.Background(),
		rules:     stubRules{eval: func(board.Position) float64 { return 7.5 }},
		searching: core.ColorWhite,
		maximizer: core.ColorWhite,
	}

	score, move, err := s.tree(p, 0, core.ColorWhite)
	require.NoError(t, err)
	assert.Nil(t, move)
	assert.Equal(t, 7.5, score)
	assert.Equal(t, 1, s.nodes)
}

func TestCheckmateAtRoot(t *testing.T) {
	mated := stubRules{
		gameOver: func(core.Color, board.Position) core.Terminal { return core.TerminalCheckmate },
	}
	p := startingPosition(t)

	tests := []struct {
		name   string
		caller core.Color
		side   core.Color
		want   float64
	}{
		{"side is searching side", core.ColorBlack, core.ColorWhite, ForcedWin},
		{"side is opponent", core.ColorWhite, core.ColorWhite, ForcedLoss},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &search{
				ctx:       context.Background(),
				rules:     mated,
				searching: core.OppositeColor(tt.caller),
				maximizer: core.ColorWhite,
			}
			score, move, err := s.tree(p, 3, tt.side)
			require.NoError(t, err)
			assert.Nil(t, move)
			assert.Equal(t, tt.want, score)
			assert.Equal(t, 1, s.nodes)
		})
	}

	e := New(mated)
	result, err := e.FindBestMove(context.Background(), p, core.ColorBlack)
	require.NoError(t, err)
	assert.Nil(t, result.BestMove)
	assert.Equal(t, ForcedWin, result.Score)
	assert.Equal(t, 1, result.Nodes)
}

func TestNoLegalMoveAtRoot(t *testing.T) {
	stub := stubRules{
		eval:  func(board.Position) float64 { return -3 },
		moves: func(core.Coordinate, board.Position, core.Color) []core.Coordinate { return nil },
	}

	e := New(stub, WithDepth(3))
	result, err := e.FindBestMove(context.Background(), startingPosition(t), core.ColorWhite)
	require.NoError(t, err)
	assert.Nil(t, result.BestMove)
	assert.Equal(t, -3.0, result.Score)
	assert.Equal(t, 1, result.Nodes)
}

func TestStalemateHandling(t *testing.T) {
	stalemated := func(core.Color, board.Position) core.Terminal { return core.TerminalStalemate }
	noMoves := func(core.Coordinate, board.Position, core.Color) []core.Coordinate { return nil }
	eval := func(board.Position) float64 { return 4 }

	t.Run("falls through to evaluation by default", func(t *testing.T) {
		e := New(stubRules{eval: eval, moves: noMoves, gameOver: stalemated}, WithDepth(2))
		result, err := e.FindBestMove(context.Background(), startingPosition(t), core.ColorWhite)
		require.NoError(t, err)
		assert.Nil(t, result.BestMove)
		assert.Equal(t, 4.0, result.Score)
	})

	t.Run("draw score when configured", func(t *testing.T) {
		e := New(stubRules{eval: eval, gameOver: stalemated}, WithDepth(2), WithDrawScore(0))
		result, err := e.FindBestMove(context.Background(), startingPosition(t), core.ColorWhite)
		require.NoError(t, err)
		assert.Nil(t, result.BestMove)
		assert.Equal(t, 0.0, result.Score)
		assert.Equal(t, 1, result.Nodes)
	})
}

func TestNodeCountsFromStartingPosition(t *testing.T) {
	p := startingPosition(t)
	e := New(rules.Standard{})

	e.Configure(1)
	d1, err := e.FindBestMove(context.Background(), p, core.ColorBlack)
	require.NoError(t, err)
	assert.Equal(t, 1+20, d1.Nodes)

	e.Configure(2)
	d2, err := e.FindBestMove(context.Background(), p, core.ColorBlack)
	require.NoError(t, err)
	assert.Equal(t, 1+20+400, d2.Nodes)

	assert.GreaterOrEqual(t, d2.Nodes, d1.Nodes)
}

func TestDeterministicAcrossCalls(t *testing.T) {
	p := startingPosition(t)
	e := New(rules.Standard{}, WithDepth(2))

	first, err := e.FindBestMove(context.Background(), p, core.ColorWhite)
	require.NoError(t, err)
	second, err := e.FindBestMove(context.Background(), p, core.ColorWhite)
	require.NoError(t, err)

	require.NotNil(t, first.BestMove)
	assert.Equal(t, *first.BestMove, *second.BestMove)
	assert.Equal(t, first.Nodes, second.Nodes)
	assert.Equal(t, first.Score, second.Score)
}

func TestTiesKeepGenerationOrder(t *testing.T) {
	var p board.Position
	p[4][4] = 'R'
	flat := stubRules{eval: func(board.Position) float64 { return 0 }}

	white := New(flat, WithDepth(1))
	result, err := white.FindBestMove(context.Background(), p, core.ColorBlack)
	require.NoError(t, err)
	require.NotNil(t, result.BestMove)
	// Maximizer takes the last of the equal scores
	assert.Equal(t, core.Move{From: sq(t, "e4"), To: sq(t, "a4")}, *result.BestMove)

	p[4][4] = 'r'
	black := New(flat, WithDepth(1))
	result, err = black.FindBestMove(context.Background(), p, core.ColorWhite)
	require.NoError(t, err)
	require.NotNil(t, result.BestMove)
	// Minimizer takes the first
	assert.Equal(t, core.Move{From: sq(t, "e4"), To: sq(t, "e3")}, *result.BestMove)
}

func TestPolarityLaw(t *testing.T) {
	// Distinct leaf scores per destination column
	byColumn := func(p board.Position) float64 {
		for r := 0; r < 8; r++ {
			for f := 0; f < 8; f++ {
				if p[r][f] == 'N' {
					return float64(f*10 + r)
				}
			}
		}
		return 0
	}
	negated := func(p board.Position) float64 { return -byColumn(p) }

	var p board.Position
	p[4][3] = 'N'

	plain := New(stubRules{eval: byColumn}, WithDepth(1))
	swapped := New(stubRules{eval: negated}, WithDepth(1), WithMaximizer(core.ColorBlack))

	a, err := plain.FindBestMove(context.Background(), p, core.ColorBlack)
	require.NoError(t, err)
	b, err := swapped.FindBestMove(context.Background(), p, core.ColorBlack)
	require.NoError(t, err)

	require.NotNil(t, a.BestMove)
	require.NotNil(t, b.BestMove)
	assert.Equal(t, *a.BestMove, *b.BestMove)
	assert.Equal(t, a.Score, -b.Score)
}

func TestBlackFindsBackRankMate(t *testing.T) {
	b, err := board.ParseFEN("r6k/8/8/8/8/8/5PPP/6K1 b - - 0 1")
	require.NoError(t, err)

	e := New(rules.Standard{}, WithDepth(1))
	result, err := e.FindBestMove(context.Background(), b.Position(), core.ColorWhite)
	require.NoError(t, err)
	require.NotNil(t, result.BestMove)

	assert.Equal(t, "a8a1", result.BestMove.String())
	assert.Equal(t, ForcedLoss, result.Score)
}

func TestSearchDoesNotMutateInput(t *testing.T) {
	p := startingPosition(t)
	before := p

	_, err := New(rules.Standard{}, WithDepth(2)).FindBestMove(context.Background(), p, core.ColorBlack)
	require.NoError(t, err)
	assert.Equal(t, before, p)
}

func TestInvalidInputs(t *testing.T) {
	e := New(rules.Standard{})

	var p board.Position
	p[0][0] = 'x'
	_, err := e.FindBestMove(context.Background(), p, core.ColorWhite)
	assert.ErrorIs(t, err, core.ErrInvalidPosition)

	_, err = e.FindBestMove(context.Background(), startingPosition(t), core.Color(0))
	assert.Error(t, err)
}

func TestCancelledSearch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := New(rules.Standard{}).FindBestMove(ctx, startingPosition(t), core.ColorWhite)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
}
