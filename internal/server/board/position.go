package board

import (
	"fmt"
	"strings"

	"chessworker/internal/server/core"
)

// Position is an 8x8 grid of cells. A zero byte is an empty cell, otherwise the
// cell holds a FEN piece letter: uppercase for white, lowercase for black.
// Positions are values; copying one yields an independent board.
type Position [8][8]byte

const pieceLetters = "pnbrqkPNBRQK"

// IsPiece reports whether b is a FEN piece letter
func IsPiece(b byte) bool {
	return b != 0 && strings.IndexByte(pieceLetters, b) >= 0
}

// PieceColor returns the side owning a piece, or 0 for an empty cell
func PieceColor(piece byte) core.Color {
	switch {
	case piece == 0:
		return 0
	case piece >= 'a' && piece <= 'z':
		return core.ColorBlack
	default:
		return core.ColorWhite
	}
}

// Kind returns the lowercase piece letter regardless of color
func Kind(piece byte) byte {
	if piece >= 'A' && piece <= 'Z' {
		return piece + ('a' - 'A')
	}
	return piece
}

func (p Position) At(c core.Coordinate) byte {
	return p[c.Row][c.Col]
}

func (p *Position) Set(c core.Coordinate, piece byte) {
	p[c.Row][c.Col] = piece
}

// ColorAt returns the side occupying c, or 0 when empty
func (p Position) ColorAt(c core.Coordinate) core.Color {
	return PieceColor(p.At(c))
}

// Validate checks that every occupied cell holds a known piece letter
func (p Position) Validate() error {
	for r := 0; r < 8; r++ {
		for f := 0; f < 8; f++ {
			if cell := p[r][f]; cell != 0 && !IsPiece(cell) {
				return fmt.Errorf("%w: unknown piece %q at %s", core.ErrInvalidPosition, cell, core.Coordinate{Row: r, Col: f}.Square())
			}
		}
	}
	return nil
}

// FromGrid builds a Position from rows of cell strings, "" for empty.
// The grid must be exactly 8 rows of 8 cells.
func FromGrid(grid [][]string) (Position, error) {
	var p Position
	if len(grid) != 8 {
		return p, fmt.Errorf("%w: expected 8 rows, got %d", core.ErrInvalidPosition, len(grid))
	}
	for r, row := range grid {
		if len(row) != 8 {
			return p, fmt.Errorf("%w: row %d has %d cells", core.ErrInvalidPosition, r, len(row))
		}
		for f, cell := range row {
			switch {
			case cell == "":
			case len(cell) == 1 && IsPiece(cell[0]):
				p[r][f] = cell[0]
			default:
				return p, fmt.Errorf("%w: unknown piece %q at row %d col %d", core.ErrInvalidPosition, cell, r, f)
			}
		}
	}
	return p, nil
}

// Grid returns the position as rows of cell strings, "" for empty
func (p Position) Grid() [][]string {
	grid := make([][]string, 8)
	for r := 0; r < 8; r++ {
		grid[r] = make([]string, 8)
		for f := 0; f < 8; f++ {
			if p[r][f] != 0 {
				grid[r][f] = string(p[r][f])
			}
		}
	}
	return grid
}

// ToASCII creates an ASCII representation of the position
func (p Position) ToASCII() string {
	var sb strings.Builder
	sb.WriteString("  a b c d e f g h\n")

	for r := 0; r < 8; r++ {
		sb.WriteString(fmt.Sprintf("%d ", 8-r))
		for f := 0; f < 8; f++ {
			if piece := p[r][f]; piece == 0 {
				sb.WriteString(". ")
			} else {
				sb.WriteString(fmt.Sprintf("%c ", piece))
			}
		}
		sb.WriteString(fmt.Sprintf(" %d\n", 8-r))
	}
	sb.WriteString("  a b c d e f g h")

	return sb.String()
}
