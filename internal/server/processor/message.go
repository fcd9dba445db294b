package processor

import (
	"encoding/json"
	"fmt"
	"strconv"

	"chessworker/internal/server/board"
	"chessworker/internal/server/core"
)

// Worker protocol commands
const (
	MsgSetSearchDepth = "set_search_depth"
	MsgPlay           = "play"
	MsgInfo           = "info"
)

// Message is one worker protocol frame: {"cmd": ..., "data": ...}
type Message struct {
	Cmd  string          `json:"cmd"`
	Data json.RawMessage `json:"data,omitempty"`
}

// PlayRequest is the data of an inbound play message
type PlayRequest struct {
	Board       [][]string `json:"board"`
	PlayerColor string     `json:"player_color"`
}

func newMessage(cmd string, data any) (Message, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Message{}, fmt.Errorf("failed to encode %s data: %w", cmd, err)
	}
	return Message{Cmd: cmd, Data: raw}, nil
}

// NewDepthMessage builds a set_search_depth request
func NewDepthMessage(depth int) Message {
	return Message{Cmd: MsgSetSearchDepth, Data: json.RawMessage(strconv.Itoa(depth))}
}

// NewPlayMessage builds a play request asking for a reply to caller's move
func NewPlayMessage(p board.Position, caller core.Color) Message {
	// PlayRequest holds only strings, so encoding cannot fail
	msg, _ := newMessage(MsgPlay, PlayRequest{
		Board:       p.Grid(),
		PlayerColor: caller.String(),
	})
	return msg
}

// Move decodes the data of an outbound play message
func (m Message) Move() (core.Move, error) {
	var move core.Move
	if m.Cmd != MsgPlay {
		return move, fmt.Errorf("not a play message: %q", m.Cmd)
	}
	if err := json.Unmarshal(m.Data, &move); err != nil {
		return move, fmt.Errorf("invalid play data: %w", err)
	}
	return move, nil
}

// Nodes decodes the node count of an info message
func (m Message) Nodes() (int, error) {
	if m.Cmd != MsgInfo {
		return 0, fmt.Errorf("not an info message: %q", m.Cmd)
	}
	var info []int
	if err := json.Unmarshal(m.Data, &info); err != nil {
		return 0, fmt.Errorf("invalid info data: %w", err)
	}
	if len(info) == 0 {
		return 0, fmt.Errorf("empty info data")
	}
	return info[0], nil
}

// decodePlay validates a play request, returning the position and caller side
func decodePlay(data json.RawMessage) (board.Position, core.Color, error) {
	var req PlayRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return board.Position{}, 0, fmt.Errorf("invalid play request: %w", err)
	}

	p, err := board.FromGrid(req.Board)
	if err != nil {
		return board.Position{}, 0, err
	}

	color, err := core.ParseColor(req.PlayerColor)
	if err != nil {
		return board.Position{}, 0, err
	}

	return p, color, nil
}
