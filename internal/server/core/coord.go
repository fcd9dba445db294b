package core

import (
	"encoding/json"
	"fmt"
)

// Coordinate addresses a cell; row 0 is rank 8 and col 0 is file a
type Coordinate struct {
	Row int
	Col int
}

// InBounds reports whether the coordinate lies on the 8x8 board
func (c Coordinate) InBounds() bool {
	return c.Row >= 0 && c.Row < 8 && c.Col >= 0 && c.Col < 8
}

// Square returns the algebraic square name, e.g. "e2"
func (c Coordinate) Square() string {
	return fmt.Sprintf("%c%d", 'a'+c.Col, 8-c.Row)
}

// ParseSquare converts an algebraic square name to a Coordinate
func ParseSquare(s string) (Coordinate, error) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return Coordinate{}, fmt.Errorf("invalid square %q", s)
	}
	return Coordinate{Row: int('8' - s[1]), Col: int(s[0] - 'a')}, nil
}

// MarshalJSON encodes the coordinate as [row, col]
func (c Coordinate) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{c.Row, c.Col})
}

func (c *Coordinate) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	*c = Coordinate{Row: pair[0], Col: pair[1]}
	return nil
}

// Move is an ordered (origin, destination) pair
type Move struct {
	From Coordinate
	To   Coordinate
}

// String returns the move in square notation, e.g. "e2e4"
func (m Move) String() string {
	return m.From.Square() + m.To.Square()
}

// MarshalJSON encodes the move as [[row, col], [row, col]]
func (m Move) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]Coordinate{m.From, m.To})
}

func (m *Move) UnmarshalJSON(data []byte) error {
	var pair [2]Coordinate
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	*m = Move{From: pair[0], To: pair[1]}
	return nil
}

// ParseMove parses square notation with an optional promotion suffix.
// Promotion is always to a queen, so the suffix may only be 'q'.
func ParseMove(s string) (Move, error) {
	if len(s) < 4 || len(s) > 5 {
		return Move{}, fmt.Errorf("invalid move %q: expected 4-5 characters", s)
	}
	if len(s) == 5 && s[4] != 'q' {
		return Move{}, fmt.Errorf("invalid move %q: only queen promotion is supported", s)
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return Move{}, err
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return Move{}, err
	}
	return Move{From: from, To: to}, nil
}
