package commands

import (
	"fmt"
	"strconv"
	"time"

	"chessworker/internal/client/api"
	"chessworker/internal/client/display"
)

// Deepest search the server accepts for a game
const maxDepth = 4

var searchCommands = []*Command{
	{Name: "depth", Alias: "t", Group: GroupSearch, Usage: "<1-4>", Description: "Set the computer's search depth, retrying a stuck game", Handler: depthHandler},
	{Name: "hint", Alias: "k", Group: GroupSearch, Usage: "[depth]", Description: "Ask a socket worker for a move in the current position", Handler: hintHandler},
	{Name: "last", Alias: "y", Group: GroupSearch, Description: "Show the search behind the computer's last move", Handler: lastSearchHandler},
}

func parseDepth(arg string) (int, error) {
	depth, err := strconv.Atoi(arg)
	if err != nil || depth < 1 || depth > maxDepth {
		return 0, fmt.Errorf("depth must be between 1 and %d: %s", maxDepth, arg)
	}
	return depth, nil
}

func depthHandler(s Session, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: depth <1-%d>", maxDepth)
	}
	gameID, err := currentGame(s)
	if err != nil {
		return err
	}
	depth, err := parseDepth(args[0])
	if err != nil {
		return err
	}

	resp, err := s.GetClient().SetDepth(gameID, depth)
	if err != nil {
		return err
	}
	s.SetGameState(resp)
	fmt.Printf("%sSearch depth set to %d%s\n", display.Green, resp.Depth, display.Reset)

	// Pending here means a stuck game is being retried
	if resp.State == "pending" {
		return awaitComputer(s, resp)
	}
	return nil
}

// hintHandler runs a search for the current position on a socket worker
// without touching the game
func hintHandler(s Session, args []string) error {
	if _, err := currentGame(s); err != nil {
		return err
	}
	game := s.GameState()
	if game == nil {
		return fmt.Errorf("no cached game state, use 'show' first")
	}

	depth := game.Depth
	if len(args) > 0 {
		var err error
		if depth, err = parseDepth(args[0]); err != nil {
			return err
		}
	}

	url, err := api.WorkerURL(s.GetAPIBaseURL(), s.GetWorkerPort())
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := api.Search(url, game.FEN, depth, time.Minute)
	if err != nil {
		return err
	}

	if result.Move == "" {
		fmt.Printf("%sNo move available (%d nodes)%s\n", display.Yellow, result.Nodes, display.Reset)
		return nil
	}
	fmt.Printf("%sHint: %s%s (%s)\n", display.Magenta, result.Move, display.Reset,
		display.FormatSearch(depth, result.Nodes, 0, time.Since(start)))
	return nil
}

func lastSearchHandler(s Session, args []string) error {
	gameID, err := currentGame(s)
	if err != nil {
		return err
	}

	resp, err := s.GetClient().GetGame(gameID)
	if err != nil {
		return err
	}
	s.SetGameState(resp)

	last := resp.LastMove
	if last == nil || last.Nodes == 0 {
		fmt.Printf("%sThe last move was not searched by the computer%s\n", display.Yellow, display.Reset)
		return nil
	}
	fmt.Printf("%s%s%s by %s\n", display.Magenta, last.Move, display.Reset, display.ColorForTurn(last.PlayerColor))
	fmt.Printf("  Depth: %d\n", last.Depth)
	fmt.Printf("  Nodes: %d\n", last.Nodes)
	fmt.Printf("  Score: %s\n", display.FormatScore(last.Score))
	return nil
}
