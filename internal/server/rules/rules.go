// Package rules implements the move generation, move application, terminal
// detection and static evaluation consumed by the search engine.
//
// The rule set is a reduced chess: no castling, no en passant, and pawns
// always promote to a queen.
package rules

import (
	"chessworker/internal/server/board"
	"chessworker/internal/server/core"
)

// Standard is the default rule set. It is stateless and safe for concurrent use.
type Standard struct{}

func (Standard) Evaluate(p board.Position) float64 {
	return Evaluate(p)
}

func (Standard) ValidMoves(origin core.Coordinate, attackingOnly bool, p board.Position, side core.Color) []core.Coordinate {
	return ValidMoves(origin, attackingOnly, p, side)
}

func (Standard) After(p board.Position, from, to core.Coordinate) board.Position {
	return After(p, from, to)
}

func (Standard) GameOver(side core.Color, p board.Position) core.Terminal {
	return GameOver(side, p)
}

var pieceValues = map[byte]float64{
	'p': 1,
	'n': 3,
	'b': 3,
	'r': 5,
	'q': 9,
	'k': 1000,
}

// Evaluate returns white material minus black material
func Evaluate(p board.Position) float64 {
	var white, black float64
	for r := 0; r < 8; r++ {
		for f := 0; f < 8; f++ {
			piece := p[r][f]
			if piece == 0 {
				continue
			}
			if board.PieceColor(piece) == core.ColorWhite {
				white += pieceValues[board.Kind(piece)]
			} else {
				black += pieceValues[board.Kind(piece)]
			}
		}
	}
	return white - black
}

// After returns a copy of p with the piece on from moved to to. Pawns that
// reach the last row become queens. p itself is never modified.
func After(p board.Position, from, to core.Coordinate) board.Position {
	next := p
	piece := next.At(from)
	next.Set(from, 0)
	next.Set(to, piece)

	if board.Kind(piece) == 'p' {
		switch to.Row {
		case 0:
			next.Set(to, 'Q')
		case 7:
			next.Set(to, 'q')
		}
	}

	return next
}

// InCheck reports whether side's king is attacked, returning the king's square
func InCheck(side core.Color, p board.Position) (core.Coordinate, bool) {
	king := byte('K')
	if side == core.ColorBlack {
		king = 'k'
	}
	opponent := core.OppositeColor(side)

	for r := 0; r < 8; r++ {
		for f := 0; f < 8; f++ {
			origin := core.Coordinate{Row: r, Col: f}
			if p.At(origin) == 0 || p.ColorAt(origin) != opponent {
				continue
			}
			for _, target := range ValidMoves(origin, true, p, opponent) {
				if p.At(target) == king {
					return target, true
				}
			}
		}
	}
	return core.Coordinate{}, false
}

// GameOver reports checkmate or stalemate for side to move, or TerminalNone
// while side still has a legal move
func GameOver(side core.Color, p board.Position) core.Terminal {
	for r := 0; r < 8; r++ {
		for f := 0; f < 8; f++ {
			origin := core.Coordinate{Row: r, Col: f}
			if p.At(origin) != 0 && p.ColorAt(origin) == side {
				if len(ValidMoves(origin, false, p, side)) != 0 {
					return core.TerminalNone
				}
			}
		}
	}

	if _, inCheck := InCheck(side, p); inCheck {
		return core.TerminalCheckmate
	}
	return core.TerminalStalemate
}

// LegalMoves lists every legal move for side, pieces in row-major order
func LegalMoves(side core.Color, p board.Position) []core.Move {
	var moves []core.Move
	for r := 0; r < 8; r++ {
		for f := 0; f < 8; f++ {
			origin := core.Coordinate{Row: r, Col: f}
			if p.At(origin) == 0 || p.ColorAt(origin) != side {
				continue
			}
			for _, to := range ValidMoves(origin, false, p, side) {
				moves = append(moves, core.Move{From: origin, To: to})
			}
		}
	}
	return moves
}

// IsLegal reports whether m is a legal move for side
func IsLegal(side core.Color, p board.Position, m core.Move) bool {
	if !m.From.InBounds() || !m.To.InBounds() || p.ColorAt(m.From) != side {
		return false
	}
	for _, to := range ValidMoves(m.From, false, p, side) {
		if to == m.To {
			return true
		}
	}
	return false
}
