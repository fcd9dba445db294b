package core

// MaxGameDepth is the deepest search a game may request. Full-width search
// at depth 5 from the opening runs past the default search timeout.
const MaxGameDepth = 4

// Request types

type CreateGameRequest struct {
	PlayerColor string `json:"playerColor" validate:"required,oneof=w b"` // side the human plays
	Depth       int    `json:"depth,omitempty" validate:"omitempty,min=1,max=4"`
	FEN         string `json:"fen,omitempty" validate:"omitempty,max=100"`
}

type MoveRequest struct {
	Move string `json:"move" validate:"required,min=4,max=5"`
}

type DepthRequest struct {
	Depth int `json:"depth" validate:"required,min=1,max=4"`
}

type UndoRequest struct {
	Count int `json:"count" validate:"required,min=1,max=300"`
}

// Response types

type GameResponse struct {
	GameID   string          `json:"gameId"`
	FEN      string          `json:"fen"`
	Turn     string          `json:"turn"`  // "w" or "b"
	State    string          `json:"state"` // "ongoing", "pending", "white wins", etc
	Depth    int             `json:"depth"`
	Moves    []string        `json:"moves"`
	Players  PlayersResponse `json:"players"`
	LastMove *MoveInfo       `json:"lastMove,omitempty"`
}

type MoveInfo struct {
	Move        string  `json:"move"`
	PlayerColor string  `json:"playerColor"` // "w" or "b"
	Score       float64 `json:"score,omitempty"`
	Depth       int     `json:"depth,omitempty"`
	Nodes       int     `json:"nodes,omitempty"`
}

type BoardResponse struct {
	FEN   string `json:"fen"`
	Board string `json:"board"` // ASCII representation
}

type PGNResponse struct {
	PGN string `json:"pgn"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}
