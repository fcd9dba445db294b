package commands

import (
	"fmt"

	"chessworker/internal/client/display"
)

var boardCommands = []*Command{
	{Name: "show", Alias: "h", Group: GroupBoard, Description: "Show board and game state", Handler: showBoardHandler},
	{Name: "state", Alias: "s", Group: GroupBoard, Description: "Show raw game JSON", Handler: gameStateHandler},
	{Name: "pgn", Alias: "g", Group: GroupBoard, Description: "Export the game as PGN", Handler: pgnHandler},
}

func showBoardHandler(s Session, args []string) error {
	gameID, err := currentGame(s)
	if err != nil {
		return err
	}

	c := s.GetClient()
	game, err := c.GetGame(gameID)
	if err != nil {
		return err
	}
	board, err := c.GetBoard(gameID)
	if err != nil {
		return err
	}
	s.SetGameState(game)

	fmt.Println()
	display.RenderBoard(board.Board)

	fmt.Printf("\nFEN: %s\n", game.FEN)
	fmt.Printf("Turn: %s | State: %s | Depth: %d | Moves: %d\n",
		display.ColorForTurn(game.Turn), game.State, game.Depth, len(game.Moves))

	if len(game.Moves) > 0 {
		fmt.Printf("\nHistory: %s\n", display.FormatHistory(game.Moves))
	}
	if game.LastMove != nil {
		fmt.Printf("Last move: %s by %s", game.LastMove.Move, display.ColorForTurn(game.LastMove.PlayerColor))
		if game.LastMove.Nodes > 0 {
			fmt.Printf(" (%s)", display.FormatSearch(game.LastMove.Depth, game.LastMove.Nodes, game.LastMove.Score, 0))
		}
		fmt.Println()
	}
	return nil
}

func gameStateHandler(s Session, args []string) error {
	gameID, err := currentGame(s)
	if err != nil {
		return err
	}

	resp, err := s.GetClient().GetGame(gameID)
	if err != nil {
		return err
	}
	s.SetGameState(resp)

	fmt.Printf("%sGame State:%s\n", display.Cyan, display.Reset)
	display.PrettyPrintJSON(resp)
	return nil
}

// pgnHandler prints the game in standard algebraic notation
func pgnHandler(s Session, args []string) error {
	gameID, err := currentGame(s)
	if err != nil {
		return err
	}

	resp, err := s.GetClient().GetPGN(gameID)
	if err != nil {
		return err
	}

	fmt.Printf("\n%s\n", resp.PGN)
	return nil
}
