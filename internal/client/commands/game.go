package commands

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"chessworker/internal/client/api"
	"chessworker/internal/client/display"
)

var gameCommands = []*Command{
	{Name: "new", Alias: "n", Group: GroupGame, Description: "Start a game against the computer", Handler: newGameHandler},
	{Name: "join", Alias: "j", Group: GroupGame, Usage: "<gameId>", Description: "Make a game current", Handler: joinGameHandler},
	{Name: "move", Alias: "m", Group: GroupGame, Usage: "<uci-move>", Description: "Make a move and wait for the reply", Handler: moveHandler},
	{Name: "undo", Alias: "u", Group: GroupGame, Usage: "[count]", Description: "Take back moves, clearing a stuck game", Handler: undoHandler},
	{Name: "poll", Alias: "p", Group: GroupGame, Description: "Long-poll for game updates", Handler: pollHandler},
	{Name: "delete", Alias: "d", Group: GroupGame, Usage: "[gameId]", Description: "Delete a game", Handler: deleteGameHandler},
}

func currentGame(s Session) (string, error) {
	gameID := s.GetCurrentGame()
	if gameID == "" {
		return "", fmt.Errorf("no current game, use 'new' or 'join <gameId>'")
	}
	return gameID, nil
}

func newGameHandler(s Session, args []string) error {
	scanner := bufio.NewScanner(os.Stdin)
	c := s.GetClient()

	fmt.Println("\n" + display.Cyan + "Creating new game..." + display.Reset)

	fmt.Print(display.Yellow + "Play as (w/b) [w]: " + display.Reset)
	scanner.Scan()
	color := strings.ToLower(strings.TrimSpace(scanner.Text()))
	if color == "" {
		color = "w"
	}

	fmt.Print(display.Yellow + "Search depth (1-4) [server default]: " + display.Reset)
	scanner.Scan()
	depth := 0
	if depthStr := strings.TrimSpace(scanner.Text()); depthStr != "" {
		var err error
		if depth, err = strconv.Atoi(depthStr); err != nil {
			return fmt.Errorf("invalid depth: %s", depthStr)
		}
	}

	fmt.Print(display.Yellow + "Starting position (FEN) [default]: " + display.Reset)
	scanner.Scan()
	fen := strings.TrimSpace(scanner.Text())

	resp, err := c.CreateGame(&api.CreateGameRequest{
		PlayerColor: color,
		Depth:       depth,
		FEN:         fen,
	})
	if err != nil {
		return err
	}

	s.SetCurrentGame(resp.GameID)
	s.SetGameState(resp)

	fmt.Printf("%sGame created: %s%s\n", display.Green, resp.GameID, display.Reset)
	fmt.Printf("You play %s at depth %d\n", display.ColorForTurn(resp.HumanColor()), resp.Depth)

	if resp.State == "pending" {
		return awaitComputer(s, resp)
	}
	return nil
}

func joinGameHandler(s Session, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: join <gameId>")
	}

	gameID := args[0]
	resp, err := s.GetClient().GetGame(gameID)
	if err != nil {
		return err
	}

	s.SetCurrentGame(gameID)
	s.SetGameState(resp)

	fmt.Printf("%sJoined game: %s%s\n", display.Green, gameID, display.Reset)
	fmt.Printf("Turn: %s | State: %s | Moves: %d\n", resp.Turn, resp.State, len(resp.Moves))

	return nil
}

func moveHandler(s Session, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: move <uci-move>")
	}

	gameID, err := currentGame(s)
	if err != nil {
		return err
	}

	resp, err := s.GetClient().MakeMove(gameID, args[0])
	if err != nil {
		return err
	}

	s.SetGameState(resp)
	fmt.Printf("%sMove accepted%s\n", display.Green, display.Reset)

	if resp.State == "pending" {
		return awaitComputer(s, resp)
	}
	if resp.State != "ongoing" {
		fmt.Printf("%sGame over: %s%s\n", display.Yellow, resp.State, display.Reset)
	}
	return nil
}

// awaitComputer long-polls until the computer has answered
func awaitComputer(s Session, game *api.GameResponse) error {
	fmt.Printf("%sComputer is thinking...%s\n", display.Magenta, display.Reset)
	start := time.Now()

	resp, err := s.GetClient().WaitForComputer(game.GameID, len(game.Moves))
	if err != nil {
		return err
	}
	s.SetGameState(resp)

	switch {
	case resp.State == "stuck":
		fmt.Printf("%sComputer failed to move, game is stuck%s\n", display.Red, display.Reset)
	case resp.LastMove != nil && len(resp.Moves) > len(game.Moves):
		fmt.Printf("%sComputer played: %s%s (%s)\n", display.Magenta, resp.LastMove.Move, display.Reset,
			display.FormatSearch(resp.LastMove.Depth, resp.LastMove.Nodes, resp.LastMove.Score, time.Since(start)))
	}
	if resp.State != "ongoing" && resp.State != "stuck" {
		fmt.Printf("%sGame over: %s%s\n", display.Yellow, resp.State, display.Reset)
	}
	return nil
}

func undoHandler(s Session, args []string) error {
	gameID, err := currentGame(s)
	if err != nil {
		return err
	}

	count := 1
	if len(args) > 0 {
		count, err = strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid count: %s", args[0])
		}
	}

	resp, err := s.GetClient().UndoMoves(gameID, count)
	if err != nil {
		return err
	}

	s.SetGameState(resp)
	fmt.Printf("%sUndid %d move(s)%s\n", display.Green, count, display.Reset)

	if resp.State == "pending" {
		return awaitComputer(s, resp)
	}
	return nil
}

func deleteGameHandler(s Session, args []string) error {
	gameID := s.GetCurrentGame()
	if len(args) > 0 {
		gameID = args[0]
	}

	if gameID == "" {
		return fmt.Errorf("specify game ID or set current game")
	}

	if err := s.GetClient().DeleteGame(gameID); err != nil {
		return err
	}

	if gameID == s.GetCurrentGame() {
		s.SetCurrentGame("")
		s.SetLastMoveCount(0)
	}

	fmt.Printf("%sGame deleted: %s%s\n", display.Green, gameID, display.Reset)
	return nil
}

func pollHandler(s Session, args []string) error {
	gameID, err := currentGame(s)
	if err != nil {
		return err
	}

	moveCount := s.GetLastMoveCount()

	fmt.Printf("%sLong-polling for updates (move count: %d)...%s\n",
		display.Cyan, moveCount, display.Reset)

	resp, err := s.GetClient().GetGameWithPoll(gameID, moveCount)
	if err != nil {
		return err
	}

	s.SetGameState(resp)

	if len(resp.Moves) != moveCount {
		fmt.Printf("%sGame updated! Move count now %d%s\n", display.Green, len(resp.Moves), display.Reset)
		if resp.LastMove != nil {
			fmt.Printf("Last move: %s\n", resp.LastMove.Move)
		}
	} else {
		fmt.Printf("%sNo new moves (state: %s)%s\n", display.Yellow, resp.State, display.Reset)
	}

	return nil
}
