// Package main implements an interactive client for the chess worker server.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"chessworker/internal/client/api"
	"chessworker/internal/client/commands"
	"chessworker/internal/client/display"
	"chessworker/internal/client/session"

	"github.com/chzyer/readline"
)

func main() {
	apiURL := flag.String("api", defaultAPIBase, "API server base URL")
	workerPort := flag.Int("worker-port", 8081, "Socket worker port on the API host")
	history := flag.String("history", ".chess_history", "Readline history file")
	flag.Parse()

	for {
		s := &session.Session{
			APIBaseURL: strings.TrimRight(*apiURL, "/"),
			WorkerPort: *workerPort,
			Client:     api.New(*apiURL),
		}
		if err := run(s, *history); err != nil {
			display.Println(display.Red, err.Error())
			os.Exit(1)
		}
		if !handleExit() {
			return
		}
	}
}

// run reads and executes commands until exit or EOF
func run(s *session.Session, history string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          display.Prompt("chess"),
		HistoryFile:     history,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	fmt.Printf("%sChess Worker Client%s\n", display.Cyan, display.Reset)
	fmt.Printf("%sAPI: %s | worker port: %d%s\n", display.Cyan, s.APIBaseURL, s.WorkerPort, display.Reset)
	fmt.Printf("Type 'help' for commands\n\n")

	registry := commands.NewRegistry(s)

	for {
		rl.SetPrompt(buildPrompt(s))

		line, err := rl.Readline()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Trailing -v dumps request/response bodies for this command only
		s.Verbose = strings.HasSuffix(line, " -v")
		s.Client.SetVerbose(s.Verbose)
		line = strings.TrimSuffix(line, " -v")

		if err := registry.Execute(line); errors.Is(err, commands.ErrExit) {
			display.Println(display.Cyan, "Goodbye!")
			return nil
		} else if err != nil {
			display.Println(display.Red, "Error: "+err.Error())
		}
	}
}

func buildPrompt(s *session.Session) string {
	var parts []string

	if s.Username != "" {
		parts = append(parts, display.Magenta+s.Username+display.Reset)
	}
	if s.CurrentGame != "" {
		id := s.CurrentGame
		if len(id) > 8 {
			id = id[:8]
		}
		parts = append(parts, display.White+id+display.Reset)
	}
	if s.CurrentGameState != nil && s.PlayerColor != "" {
		parts = append(parts, display.ColorForTurn(s.PlayerColor))
	}

	prompt := "chess"
	if len(parts) > 0 {
		prompt += display.Yellow + " [" + display.Reset + strings.Join(parts, display.Yellow+" - "+display.Reset) + display.Yellow + "]"
	}

	if g := s.CurrentGameState; g != nil {
		player := g.Players.White
		if g.Turn == "b" {
			player = g.Players.Black
		}
		who := "h"
		if player.Type == 2 {
			who = "c"
		}
		prompt += fmt.Sprintf(" - Turn:%s(%s) %s", display.ColorForTurn(g.Turn), who, g.State)
	}

	return display.Prompt(prompt)
}
