package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"chessworker/internal/client/api"
	"chessworker/internal/client/display"

	"golang.org/x/term"
)

var accountCommands = []*Command{
	{Name: "register", Alias: "r", Group: GroupAccount, Description: "Create an account and sign in", Handler: registerHandler},
	{Name: "login", Alias: "l", Group: GroupAccount, Description: "Sign in; new games are recorded under the account", Handler: loginHandler},
	{Name: "logout", Alias: "o", Group: GroupAccount, Description: "Sign out", Handler: logoutHandler},
	{Name: "account", Alias: "i", Group: GroupAccount, Description: "Show the account and its recorded games", Handler: accountHandler},
}

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(bytePassword), nil
}

func registerHandler(s Session, args []string) error {
	scanner := bufio.NewScanner(os.Stdin)
	c := s.GetClient()

	fmt.Print(display.Yellow + "Username: " + display.Reset)
	scanner.Scan()
	username := strings.TrimSpace(scanner.Text())

	password, err := readPassword(display.Yellow + "Password: " + display.Reset)
	if err != nil {
		return err
	}

	fmt.Print(display.Yellow + "Email (optional): " + display.Reset)
	scanner.Scan()
	email := strings.TrimSpace(scanner.Text())

	resp, err := c.Register(username, password, email)
	if err != nil {
		return err
	}

	signIn(s, resp)
	fmt.Printf("%sRegistered successfully%s\n", display.Green, display.Reset)
	printAuth(resp)
	return nil
}

func loginHandler(s Session, args []string) error {
	scanner := bufio.NewScanner(os.Stdin)
	c := s.GetClient()

	fmt.Print(display.Yellow + "Username or Email: " + display.Reset)
	scanner.Scan()
	identifier := strings.TrimSpace(scanner.Text())

	password, err := readPassword(display.Yellow + "Password: " + display.Reset)
	if err != nil {
		return err
	}

	resp, err := c.Login(identifier, password)
	if err != nil {
		return err
	}

	signIn(s, resp)
	fmt.Printf("%sLogged in successfully%s\n", display.Green, display.Reset)
	printAuth(resp)
	return nil
}

func logoutHandler(s Session, args []string) error {
	signIn(s, &api.AuthResponse{})

	fmt.Printf("%sLogged out%s\n", display.Green, display.Reset)
	return nil
}

func accountHandler(s Session, args []string) error {
	if s.GetAuthToken() == "" {
		fmt.Printf("%sNot signed in%s\n", display.Yellow, display.Reset)
		return nil
	}

	account, err := s.GetClient().Account()
	if err != nil {
		return err
	}

	fmt.Printf("%s%s%s (%s)\n", display.Magenta, account.Username, display.Reset, account.UserID)
	if account.Email != "" {
		fmt.Printf("  Email:   %s\n", account.Email)
	}
	fmt.Printf("  Created: %s\n", account.CreatedAt.Local().Format("2006-01-02 15:04"))

	if len(account.Games) == 0 {
		fmt.Println("  No recorded games")
		return nil
	}
	fmt.Printf("\n  %-36s  %-5s  %-5s  %s\n", "Game", "Side", "Depth", "Started")
	for _, g := range account.Games {
		fmt.Printf("  %-36s  %-5s  %-5d  %s\n", g.GameID, g.PlayerColor, g.Depth, g.StartedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

// signIn stores credentials in the session and the API client. An empty
// response signs out.
func signIn(s Session, resp *api.AuthResponse) {
	s.SetAuthToken(resp.Token)
	s.SetCurrentUser(resp.UserID)
	s.SetUsername(resp.Username)
	s.GetClient().SetToken(resp.Token)
}

func printAuth(resp *api.AuthResponse) {
	fmt.Printf("User ID: %s\n", resp.UserID)
	fmt.Printf("Username: %s\n", resp.Username)
	fmt.Printf("Token expires: %s\n", resp.ExpiresAt.Local().Format("2006-01-02 15:04"))
}
