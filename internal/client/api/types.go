package api

import "time"

// Request types

type CreateGameRequest struct {
	PlayerColor string `json:"playerColor"`
	Depth       int    `json:"depth,omitempty"`
	FEN         string `json:"fen,omitempty"`
}

type MoveRequest struct {
	Move string `json:"move"`
}

type DepthRequest struct {
	Depth int `json:"depth"`
}

type UndoRequest struct {
	Count int `json:"count"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// Response types

type PlayerInfo struct {
	ID    string `json:"id"`
	Color string `json:"color"`
	Type  int    `json:"type"` // 1 human, 2 computer
}

type PlayersInfo struct {
	White PlayerInfo `json:"white"`
	Black PlayerInfo `json:"black"`
}

type MoveInfo struct {
	Move        string  `json:"move"`
	PlayerColor string  `json:"playerColor"`
	Score       float64 `json:"score,omitempty"`
	Depth       int     `json:"depth,omitempty"`
	Nodes       int     `json:"nodes,omitempty"`
}

type GameResponse struct {
	GameID   string      `json:"gameId"`
	FEN      string      `json:"fen"`
	Turn     string      `json:"turn"`
	State    string      `json:"state"`
	Depth    int         `json:"depth"`
	Moves    []string    `json:"moves"`
	Players  PlayersInfo `json:"players"`
	LastMove *MoveInfo   `json:"lastMove,omitempty"`
}

// HumanColor returns the side played by the human
func (g *GameResponse) HumanColor() string {
	if g.Players.White.Type == 2 {
		return "b"
	}
	return "w"
}

type BoardResponse struct {
	FEN   string `json:"fen"`
	Board string `json:"board"`
}

type PGNResponse struct {
	PGN string `json:"pgn"`
}

type HealthResponse struct {
	Status        string `json:"status"`
	Time          int64  `json:"time"`
	Storage       string `json:"storage,omitempty"`
	Workers       int    `json:"workers"`
	ComputerGames int    `json:"computerGames"`
}

type AuthResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type AccountResponse struct {
	UserID    string        `json:"userId"`
	Username  string        `json:"username"`
	Email     string        `json:"email,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	Games     []GameSummary `json:"games"`
}

type GameSummary struct {
	GameID      string    `json:"gameId"`
	PlayerColor string    `json:"playerColor"`
	Depth       int       `json:"depth"`
	StartedAt   time.Time `json:"startedAt"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}
