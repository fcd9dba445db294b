package engine

import (
	"cmp"
	"context"
	"slices"

	"chessworker/internal/server/board"
	"chessworker/internal/server/core"
)

// search holds the state of one FindBestMove call
type search struct {
	ctx       context.Context
	rules     Rules
	searching core.Color
	maximizer core.Color
	drawScore *float64
	nodes     int
}

type outcome struct {
	score float64
	move  core.Move
}

// tree evaluates p with side to move, returning the backed-up score and the
// move that achieves it
func (s *search) tree(p board.Position, depth int, side core.Color) (float64, *core.Move, error) {
	if err := s.ctx.Err(); err != nil {
		return 0, nil, err
	}
	s.nodes++

	switch s.rules.GameOver(side, p) {
	case core.TerminalNone:
	case core.TerminalCheckmate:
		if side == s.searching {
			return ForcedWin, nil, nil
		}
		return ForcedLoss, nil, nil
	default:
		if s.drawScore != nil {
			return *s.drawScore, nil, nil
		}
	}

	if depth == 0 {
		return s.rules.Evaluate(p), nil, nil
	}

	candidates := s.candidates(p, side)
	if len(candidates) == 0 {
		return s.rules.Evaluate(p), nil, nil
	}

	outcomes := make([]outcome, 0, len(candidates))
	for _, m := range candidates {
		child := s.rules.After(p, m.From, m.To)
		score, _, err := s.tree(child, depth-1, core.OppositeColor(side))
		if err != nil {
			return 0, nil, err
		}
		outcomes = append(outcomes, outcome{score: score, move: m})
	}

	// Stable: equal scores keep generation order
	slices.SortStableFunc(outcomes, func(a, b outcome) int {
		return cmp.Compare(a.score, b.score)
	})

	chosen := outcomes[0]
	if side == s.maximizer {
		chosen = outcomes[len(outcomes)-1]
	}
	return chosen.score, &chosen.move, nil
}

// candidates lists side's moves: pieces in row-major order, then each piece's
// destinations in the order the rules return them
func (s *search) candidates(p board.Position, side core.Color) []core.Move {
	var moves []core.Move
	for r := 0; r < 8; r++ {
		for f := 0; f < 8; f++ {
			origin := core.Coordinate{Row: r, Col: f}
			if p.At(origin) == 0 || p.ColorAt(origin) != side {
				continue
			}
			for _, to := range s.rules.ValidMoves(origin, false, p, side) {
				moves = append(moves, core.Move{From: origin, To: to})
			}
		}
	}
	return moves
}
