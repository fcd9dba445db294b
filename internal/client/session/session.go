package session

import "chessworker/internal/client/api"

// Session holds the interactive client's state between commands
type Session struct {
	APIBaseURL       string
	WorkerPort       int
	Client           *api.Client
	CurrentGame      string
	CurrentUser      string
	AuthToken        string
	Username         string
	LastMoveCount    int
	PlayerColor      string
	CurrentGameState *api.GameResponse
	Verbose          bool
}

func (s *Session) GetAPIBaseURL() string { return s.APIBaseURL }
func (s *Session) SetAPIBaseURL(url string) { s.APIBaseURL = url }
func (s *Session) GetWorkerPort() int { return s.WorkerPort }
func (s *Session) SetWorkerPort(p int) { s.WorkerPort = p }
func (s *Session) GetCurrentGame() string { return s.CurrentGame }
func (s *Session) GetCurrentUser() string { return s.CurrentUser }
func (s *Session) SetCurrentUser(id string) { s.CurrentUser = id }
func (s *Session) GetAuthToken() string { return s.AuthToken }
func (s *Session) SetAuthToken(t string) { s.AuthToken = t }
func (s *Session) GetUsername() string { return s.Username }
func (s *Session) SetUsername(name string) { s.Username = name }
func (s *Session) GetLastMoveCount() int { return s.LastMoveCount }
func (s *Session) SetLastMoveCount(n int) { s.LastMoveCount = n }
func (s *Session) GetClient() *api.Client { return s.Client }
func (s *Session) IsVerbose() bool { return s.Verbose }
func (s *Session) GetPlayerColor() string { return s.PlayerColor }
func (s *Session) SetPlayerColor(c string) { s.PlayerColor = c }
func (s *Session) GameState() *api.GameResponse { return s.CurrentGameState }

// SetCurrentGame switches games, dropping the cached state of the previous one
func (s *Session) SetCurrentGame(id string) {
	if id != s.CurrentGame {
		s.CurrentGameState = nil
		s.PlayerColor = ""
	}
	s.CurrentGame = id
}

// SetGameState caches the latest game response
func (s *Session) SetGameState(g *api.GameResponse) {
	s.CurrentGameState = g
	if g == nil {
		return
	}
	s.LastMoveCount = len(g.Moves)
	s.PlayerColor = g.HumanColor()
}
