package rules

import (
	"chessworker/internal/server/board"
	"chessworker/internal/server/core"
)

var (
	diagonalDirs = [4][2]int{{1, 1}, {-1, 1}, {-1, -1}, {1, -1}}
	lineDirs     = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	knightJumps  = [8][2]int{{1, 2}, {1, -2}, {-1, -2}, {-1, 2}, {2, 1}, {2, -1}, {-2, -1}, {-2, 1}}
	kingSteps    = [8][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {-1, -1}, {-1, 1}, {1, -1}}
)

// ValidMoves returns the destinations for the piece at origin. With
// attackingOnly set, moves that leave side's king in check are kept; this is
// the form used for attack detection.
func ValidMoves(origin core.Coordinate, attackingOnly bool, p board.Position, side core.Color) []core.Coordinate {
	piece := p.At(origin)
	var targets []core.Coordinate

	switch board.Kind(piece) {
	case 'p':
		targets = pawnMoves(origin, p)
	case 'b':
		targets = slide(origin, p, diagonalDirs[:])
	case 'r':
		targets = slide(origin, p, lineDirs[:])
	case 'n':
		targets = step(origin, p, knightJumps[:])
	case 'k':
		targets = step(origin, p, kingSteps[:])
	case 'q':
		targets = slide(origin, p, diagonalDirs[:])
		targets = append(targets, slide(origin, p, lineDirs[:])...)
	}

	if attackingOnly {
		return targets
	}

	legal := targets[:0:0]
	for _, target := range targets {
		if _, inCheck := InCheck(side, After(p, origin, target)); !inCheck {
			legal = append(legal, target)
		}
	}
	return legal
}

func pawnMoves(origin core.Coordinate, p board.Position) []core.Coordinate {
	piece := p.At(origin)
	dir, firstRank := -1, 6
	if board.PieceColor(piece) == core.ColorBlack {
		dir, firstRank = 1, 1
	}

	var targets []core.Coordinate

	one := core.Coordinate{Row: origin.Row + dir, Col: origin.Col}
	oneEmpty := one.InBounds() && p.At(one) == 0
	if oneEmpty {
		targets = append(targets, one)
	}

	two := core.Coordinate{Row: origin.Row + 2*dir, Col: origin.Col}
	if two.InBounds() && p.At(two) == 0 && origin.Row == firstRank && oneEmpty {
		targets = append(targets, two)
	}

	for _, df := range [2]int{1, -1} {
		capture := core.Coordinate{Row: origin.Row + dir, Col: origin.Col + df}
		if capture.InBounds() && p.At(capture) != 0 && p.ColorAt(capture) != board.PieceColor(piece) {
			targets = append(targets, capture)
		}
	}

	return targets
}

func slide(origin core.Coordinate, p board.Position, dirs [][2]int) []core.Coordinate {
	color := p.ColorAt(origin)
	var targets []core.Coordinate
	for _, d := range dirs {
		for r, f := origin.Row+d[0], origin.Col+d[1]; ; r, f = r+d[0], f+d[1] {
			target := core.Coordinate{Row: r, Col: f}
			if !target.InBounds() {
				break
			}
			if p.ColorAt(target) != color {
				targets = append(targets, target)
			}
			if p.At(target) != 0 {
				break
			}
		}
	}
	return targets
}

func step(origin core.Coordinate, p board.Position, offsets [][2]int) []core.Coordinate {
	color := p.ColorAt(origin)
	var targets []core.Coordinate
	for _, o := range offsets {
		target := core.Coordinate{Row: origin.Row + o[0], Col: origin.Col + o[1]}
		if target.InBounds() && p.ColorAt(target) != color {
			targets = append(targets, target)
		}
	}
	return targets
}
