package board

import (
	"fmt"
	"strconv"
	"strings"

	"chessworker/internal/server/core"
)

const (
	StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
)

// Board is a Position plus the FEN side-to-move and counters
type Board struct {
	position  Position
	turn      core.Color
	castling  string
	enPassant string
	halfmove  int
	fullmove  int
}

// New wraps a position as a board with the given side to move
func New(p Position, turn core.Color, fullmove int) *Board {
	if fullmove < 1 {
		fullmove = 1
	}
	return &Board{
		position:  p,
		turn:      turn,
		castling:  "-",
		enPassant: "-",
		fullmove:  fullmove,
	}
}

func ParseFEN(fen string) (*Board, error) {
	parts := strings.Fields(fen)
	if len(parts) != 6 {
		return nil, fmt.Errorf("invalid FEN: expected 6 parts, got %d", len(parts))
	}

	b := &Board{}

	// Parse board
	ranks := strings.Split(parts[0], "/")
	if len(ranks) != 8 {
		return nil, fmt.Errorf("invalid FEN: expected 8 ranks")
	}

	for r := 0; r < 8; r++ {
		file := 0
		for _, ch := range ranks[r] {
			if ch >= '1' && ch <= '8' {
				file += int(ch - '0')
			} else {
				if file >= 8 {
					return nil, fmt.Errorf("invalid FEN: too many pieces in rank %d", r+1)
				}
				if ch > 0x7f || !IsPiece(byte(ch)) {
					return nil, fmt.Errorf("invalid FEN: unknown piece %q", ch)
				}
				b.position[r][file] = byte(ch)
				file++
			}
		}
		if file != 8 {
			return nil, fmt.Errorf("invalid FEN: rank %d has %d files", r+1, file)
		}
	}

	switch parts[1] {
	case "w":
		b.turn = core.ColorWhite
	case "b":
		b.turn = core.ColorBlack
	default:
		return nil, fmt.Errorf("invalid FEN: turn must be 'w' or 'b'")
	}
	b.castling = parts[2]
	b.enPassant = parts[3]

	var err error
	if b.halfmove, err = strconv.Atoi(parts[4]); err != nil || b.halfmove < 0 {
		return nil, fmt.Errorf("invalid FEN: halfmove counter")
	}
	if b.fullmove, err = strconv.Atoi(parts[5]); err != nil || b.fullmove < 1 {
		return nil, fmt.Errorf("invalid FEN: fullmove counter")
	}

	return b, nil
}

// FEN serializes the board. Castling and en passant are not tracked by the
// rules, so positions produced by moves always carry "-" for both.
func (b *Board) FEN() string {
	var sb strings.Builder
	for r := 0; r < 8; r++ {
		empty := 0
		for f := 0; f < 8; f++ {
			piece := b.position[r][f]
			if piece == 0 {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(piece)
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if r < 7 {
			sb.WriteByte('/')
		}
	}
	return fmt.Sprintf("%s %s %s %s %d %d", sb.String(), b.turn, b.castling, b.enPassant, b.halfmove, b.fullmove)
}

// ToASCII creates an ASCII representation of the board
func (b *Board) ToASCII() string {
	return b.position.ToASCII()
}

func (b *Board) Turn() core.Color {
	return b.turn
}

func (b *Board) Position() Position {
	return b.position
}

func (b *Board) Fullmove() int {
	return b.fullmove
}

func (b *Board) GetPieceAt(square string) byte {
	c, err := core.ParseSquare(square)
	if err != nil {
		return 0
	}
	return b.position.At(c)
}
