package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"chessworker/internal/client/api"
	"chessworker/internal/client/display"
)

// ErrExit is returned by the exit command to end the session
var ErrExit = errors.New("exit")

// Command groups in help order
const (
	GroupGame    = "Game"
	GroupBoard   = "Board"
	GroupSearch  = "Search"
	GroupAccount = "Account"
	GroupTools   = "Tools"
)

var groups = []string{GroupGame, GroupBoard, GroupSearch, GroupAccount, GroupTools}

// Session is the client state commands read and update
type Session interface {
	GetAPIBaseURL() string
	SetAPIBaseURL(string)
	GetWorkerPort() int
	SetWorkerPort(int)
	GetCurrentGame() string
	SetCurrentGame(string)
	GetCurrentUser() string
	SetCurrentUser(string)
	GetAuthToken() string
	SetAuthToken(string)
	GetUsername() string
	SetUsername(string)
	GetLastMoveCount() int
	SetLastMoveCount(int)
	GetClient() *api.Client
	IsVerbose() bool
	GameState() *api.GameResponse
	SetGameState(*api.GameResponse)
	GetPlayerColor() string
}

type Command struct {
	Name        string
	Alias       string
	Group       string
	Usage       string // arguments after the name
	Description string
	Handler     func(Session, []string) error
}

// Registry resolves input lines to commands by name or alias
type Registry struct {
	session Session
	byName  map[string]*Command
	ordered []*Command
	out     io.Writer
}

func NewRegistry(session Session) *Registry {
	r := &Registry{
		session: session,
		byName:  make(map[string]*Command),
		out:     os.Stdout,
	}

	r.Add(gameCommands...)
	r.Add(boardCommands...)
	r.Add(searchCommands...)
	r.Add(accountCommands...)
	r.Add(toolCommands...)
	r.Add(
		&Command{Name: "help", Alias: "?", Group: GroupTools, Usage: "[command]", Description: "Show commands or one command's usage", Handler: r.help},
		&Command{Name: "exit", Alias: "x", Group: GroupTools, Description: "Exit the client", Handler: func(Session, []string) error { return ErrExit }},
	)

	return r
}

// Add registers commands. Names and aliases share one namespace; a clash is
// a programming error and panics.
func (r *Registry) Add(cmds ...*Command) {
	for _, cmd := range cmds {
		for _, key := range []string{cmd.Name, cmd.Alias} {
			if key == "" {
				continue
			}
			if prev, taken := r.byName[key]; taken {
				panic(fmt.Sprintf("command key %q used by both %s and %s", key, prev.Name, cmd.Name))
			}
			r.byName[key] = cmd
		}
		r.ordered = append(r.ordered, cmd)
	}
}

// Lookup finds a command by name or alias
func (r *Registry) Lookup(key string) (*Command, bool) {
	cmd, ok := r.byName[key]
	return cmd, ok
}

// Execute runs one input line
func (r *Registry) Execute(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	cmd, ok := r.Lookup(fields[0])
	if !ok {
		return fmt.Errorf("unknown command %q, type 'help' for commands", fields[0])
	}
	return cmd.Handler(r.session, fields[1:])
}

func (r *Registry) help(_ Session, args []string) error {
	if len(args) > 0 {
		cmd, ok := r.Lookup(args[0])
		if !ok {
			return fmt.Errorf("unknown command: %s", args[0])
		}
		fmt.Fprintf(r.out, "\n%s%s%s - %s\n", display.Cyan, cmd.Name, display.Reset, cmd.Description)
		fmt.Fprintf(r.out, "Usage: %s\n", strings.TrimSpace(cmd.Name+" "+cmd.Usage))
		if cmd.Alias != "" {
			fmt.Fprintf(r.out, "Alias: %s\n", cmd.Alias)
		}
		return nil
	}

	for _, group := range groups {
		fmt.Fprintf(r.out, "\n%s%s:%s\n", display.Yellow, group, display.Reset)
		for _, cmd := range r.ordered {
			if cmd.Group == group {
				fmt.Fprintf(r.out, "  [%s%s%s] %-9s %s\n", display.Cyan, cmd.Alias, display.Reset, cmd.Name, cmd.Description)
			}
		}
	}

	fmt.Fprintf(r.out, "\nSearch results show depth, nodes visited and score of the computer's moves\n")
	fmt.Fprintf(r.out, "Add '-v' to any command to dump request and response bodies\n")
	return nil
}
