package game

import (
	"fmt"

	"chessworker/internal/server/board"
	"chessworker/internal/server/core"

	"github.com/notnil/chess"
)

// PGN replays the move history from the initial position and renders it as
// PGN with standard algebraic moves
func (g *Game) PGN() (string, error) {
	initial := g.InitialFEN()

	fen, err := chess.FEN(initial)
	if err != nil {
		return "", fmt.Errorf("invalid initial FEN: %w", err)
	}
	replay := chess.NewGame(fen)

	// History is stored in UCI; the game itself writes algebraic notation
	for i, move := range g.Moves() {
		m, err := chess.UCINotation{}.Decode(replay.Position(), move)
		if err != nil {
			return "", fmt.Errorf("replay failed at move %d (%s): %w", i+1, move, err)
		}
		if err := replay.Move(m); err != nil {
			return "", fmt.Errorf("replay failed at move %d (%s): %w", i+1, move, err)
		}
	}

	replay.AddTagPair("Event", "chessworker game")
	replay.AddTagPair("White", playerName(g.GetPlayer(core.ColorWhite)))
	replay.AddTagPair("Black", playerName(g.GetPlayer(core.ColorBlack)))
	if initial != board.StartingFEN {
		replay.AddTagPair("SetUp", "1")
		replay.AddTagPair("FEN", initial)
	}

	switch g.State() {
	case core.StateWhiteWins:
		replay.AddTagPair("Result", "1-0")
	case core.StateBlackWins:
		replay.AddTagPair("Result", "0-1")
	case core.StateStalemate:
		replay.AddTagPair("Result", "1/2-1/2")
	}

	return replay.String(), nil
}

func playerName(p *core.Player) string {
	if p == nil {
		return "?"
	}
	if p.Type == core.PlayerComputer {
		return "Computer"
	}
	return p.ID
}
