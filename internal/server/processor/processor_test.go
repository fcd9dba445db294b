package processor

import (
	"testing"
	"time"

	"chessworker/internal/server/core"
	"chessworker/internal/server/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestProcessor(t *testing.T, maxGames int, cfg Config) (*Processor, *service.Service) {
	t.Helper()
	svc := service.New(nil, testSecret, maxGames)
	if cfg.DefaultDepth == 0 {
		cfg.DefaultDepth = 1
	}
	p := New(svc, cfg)
	t.Cleanup(func() {
		p.Close()
		svc.Shutdown(time.Second)
	})
	return p, svc
}

func createGame(t *testing.T, p *Processor, req core.CreateGameRequest) core.GameResponse {
	t.Helper()
	resp := p.Execute(NewCreateGameCommand("", req))
	require.True(t, resp.Success, "%+v", resp.Error)
	return resp.Data.(core.GameResponse)
}

// waitForMoves blocks until the computer has answered and the game holds n moves
func waitForMoves(t *testing.T, svc *service.Service, gameID string, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		g, err := svc.GetGame(gameID)
		return err == nil && g.MoveCount() == n && g.State() != core.StatePending
	}, 10*time.Second, 5*time.Millisecond)
}

func TestComputerMovesFirstAsWhite(t *testing.T) {
	p, svc := newTestProcessor(t, 0, Config{})

	resp := p.Execute(NewCreateGameCommand("user-1", core.CreateGameRequest{PlayerColor: "b"}))
	require.True(t, resp.Success)
	assert.True(t, resp.Pending)
	created := resp.Data.(core.GameResponse)
	assert.Equal(t, "user-1", created.Players.Black.ID)
	assert.Equal(t, core.PlayerComputer, created.Players.White.Type)
	assert.Equal(t, 1, p.ActiveWorkers())

	waitForMoves(t, svc, created.GameID, 1)

	get := p.Execute(NewGetGameCommand(created.GameID))
	require.True(t, get.Success)
	game := get.Data.(core.GameResponse)
	assert.Equal(t, "ongoing", game.State)
	assert.Equal(t, "b", game.Turn)
	require.NotNil(t, game.LastMove)
	assert.Equal(t, "w", game.LastMove.PlayerColor)
	assert.Equal(t, 21, game.LastMove.Nodes)
	assert.Equal(t, 1, game.LastMove.Depth)
}

func TestHumanMoveAndComputerReply(t *testing.T) {
	p, svc := newTestProcessor(t, 0, Config{})
	game := createGame(t, p, core.CreateGameRequest{PlayerColor: "w"})
	assert.Equal(t, "ongoing", game.State)

	resp := p.Execute(NewMakeMoveCommand(game.GameID, core.MoveRequest{Move: "E2E4"}))
	require.True(t, resp.Success, "%+v", resp.Error)
	assert.True(t, resp.Pending)
	data := resp.Data.(core.GameResponse)
	assert.Equal(t, "e2e4", data.LastMove.Move)

	waitForMoves(t, svc, game.GameID, 2)

	g, err := svc.GetGame(game.GameID)
	require.NoError(t, err)
	assert.Equal(t, core.ColorWhite, g.NextTurnColor())
	assert.Equal(t, "e2e4", g.Moves()[0])
}

func TestRejectedMoves(t *testing.T) {
	p, _ := newTestProcessor(t, 0, Config{})
	game := createGame(t, p, core.CreateGameRequest{PlayerColor: "w"})

	tests := []struct {
		name string
		move string
		code string
	}{
		{"malformed", "e2", core.ErrInvalidMove},
		{"illegal", "e2e5", core.ErrInvalidMove},
		{"opponent piece", "e7e5", core.ErrInvalidMove},
		{"underpromotion", "a7a8n", core.ErrInvalidMove},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := p.Execute(NewMakeMoveCommand(game.GameID, core.MoveRequest{Move: tt.move}))
			require.False(t, resp.Success)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}

	resp := p.Execute(NewMakeMoveCommand("missing", core.MoveRequest{Move: "e2e4"}))
	assert.Equal(t, core.ErrGameNotFound, resp.Error.Code)
}

func TestCreateGameValidation(t *testing.T) {
	p, _ := newTestProcessor(t, 0, Config{})

	resp := p.Execute(NewCreateGameCommand("", core.CreateGameRequest{PlayerColor: "red"}))
	assert.Equal(t, core.ErrInvalidRequest, resp.Error.Code)

	resp = p.Execute(NewCreateGameCommand("", core.CreateGameRequest{PlayerColor: "w", FEN: "not a fen"}))
	assert.Equal(t, core.ErrInvalidFEN, resp.Error.Code)

	assert.Zero(t, p.ActiveWorkers())
}

func TestCreateGameInFinishedPosition(t *testing.T) {
	p, _ := newTestProcessor(t, 0, Config{})

	game := createGame(t, p, core.CreateGameRequest{PlayerColor: "b", FEN: "R5k1/5ppp/8/8/8/8/8/6K1 b - - 0 1"})
	assert.Equal(t, "white wins", game.State)

	resp := p.Execute(NewMakeMoveCommand(game.GameID, core.MoveRequest{Move: "g8h8"}))
	assert.Equal(t, core.ErrGameOver, resp.Error.Code)
}

func TestComputerDeliversMate(t *testing.T) {
	p, svc := newTestProcessor(t, 0, Config{})

	game := createGame(t, p, core.CreateGameRequest{PlayerColor: "w", FEN: "r6k/8/8/8/8/8/5PPP/6K1 b - - 0 1"})

	g, err := svc.GetGame(game.GameID)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return g.State() == core.StateBlackWins }, 10*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"a8a1"}, g.Moves())
}

func TestPromotionNotation(t *testing.T) {
	p, svc := newTestProcessor(t, 0, Config{})

	game := createGame(t, p, core.CreateGameRequest{PlayerColor: "w", FEN: "7k/P7/8/8/8/8/8/K7 w - - 0 1"})
	resp := p.Execute(NewMakeMoveCommand(game.GameID, core.MoveRequest{Move: "a7a8"}))
	require.True(t, resp.Success, "%+v", resp.Error)
	assert.Equal(t, "a7a8q", resp.Data.(core.GameResponse).LastMove.Move)

	waitForMoves(t, svc, game.GameID, 2)
}

func TestSetDepth(t *testing.T) {
	p, svc := newTestProcessor(t, 0, Config{})
	game := createGame(t, p, core.CreateGameRequest{PlayerColor: "w"})

	resp := p.Execute(NewSetDepthCommand(game.GameID, core.DepthRequest{Depth: 2}))
	require.True(t, resp.Success)
	assert.Equal(t, 2, resp.Data.(core.GameResponse).Depth)

	p.Execute(NewMakeMoveCommand(game.GameID, core.MoveRequest{Move: "e2e4"}))
	waitForMoves(t, svc, game.GameID, 2)

	g, err := svc.GetGame(game.GameID)
	require.NoError(t, err)
	assert.Equal(t, 2, g.LastResult().Depth)

	resp = p.Execute(NewSetDepthCommand(game.GameID, core.DepthRequest{Depth: 0}))
	require.True(t, resp.Success)
	assert.Equal(t, 1, g.Depth())

	resp = p.Execute(NewSetDepthCommand("missing", core.DepthRequest{Depth: 2}))
	assert.Equal(t, core.ErrGameNotFound, resp.Error.Code)
}

func TestUndoRetriggersComputer(t *testing.T) {
	p, svc := newTestProcessor(t, 0, Config{})
	game := createGame(t, p, core.CreateGameRequest{PlayerColor: "w"})

	p.Execute(NewMakeMoveCommand(game.GameID, core.MoveRequest{Move: "e2e4"}))
	waitForMoves(t, svc, game.GameID, 2)

	// Undoing only the reply hands the turn back to the computer
	resp := p.Execute(NewUndoMoveCommand(game.GameID, core.UndoRequest{Count: 1}))
	require.True(t, resp.Success, "%+v", resp.Error)
	assert.True(t, resp.Pending)
	waitForMoves(t, svc, game.GameID, 2)

	resp = p.Execute(NewUndoMoveCommand(game.GameID, core.UndoRequest{Count: 2}))
	require.True(t, resp.Success)
	assert.False(t, resp.Pending)
	assert.Empty(t, resp.Data.(core.GameResponse).Moves)

	resp = p.Execute(NewUndoMoveCommand(game.GameID, core.UndoRequest{Count: 1}))
	assert.Equal(t, core.ErrInvalidRequest, resp.Error.Code)
}

func TestBoardAndPGN(t *testing.T) {
	p, svc := newTestProcessor(t, 0, Config{})
	game := createGame(t, p, core.CreateGameRequest{PlayerColor: "w"})

	p.Execute(NewMakeMoveCommand(game.GameID, core.MoveRequest{Move: "e2e4"}))
	waitForMoves(t, svc, game.GameID, 2)

	resp := p.Execute(NewGetBoardCommand(game.GameID))
	require.True(t, resp.Success)
	b := resp.Data.(core.BoardResponse)
	assert.NotEmpty(t, b.Board)
	assert.Contains(t, b.FEN, " w ")

	resp = p.Execute(NewGetPGNCommand(game.GameID))
	require.True(t, resp.Success)
	pgn := resp.Data.(core.PGNResponse).PGN
	assert.Contains(t, pgn, "1.e4")
	assert.Contains(t, pgn, `[Black "Computer"]`)
}

func TestComputerGameLimit(t *testing.T) {
	p, svc := newTestProcessor(t, 1, Config{})
	game := createGame(t, p, core.CreateGameRequest{PlayerColor: "w"})

	resp := p.Execute(NewCreateGameCommand("", core.CreateGameRequest{PlayerColor: "w"}))
	require.False(t, resp.Success)
	assert.Equal(t, core.ErrResourceLimit, resp.Error.Code)

	// Deleting frees the slot
	require.True(t, p.Execute(NewDeleteGameCommand(game.GameID)).Success)
	assert.Zero(t, p.ActiveWorkers())
	assert.Zero(t, svc.GetComputerGameCount())

	createGame(t, p, core.CreateGameRequest{PlayerColor: "w"})
}

func TestDeleteDuringSearch(t *testing.T) {
	p, svc := newTestProcessor(t, 0, Config{DefaultDepth: 5})

	resp := p.Execute(NewCreateGameCommand("", core.CreateGameRequest{PlayerColor: "b"}))
	require.True(t, resp.Success)
	id := resp.Data.(core.GameResponse).GameID

	require.True(t, p.Execute(NewDeleteGameCommand(id)).Success)
	_, err := svc.GetGame(id)
	assert.Error(t, err)
	assert.Zero(t, p.ActiveWorkers())

	resp = p.Execute(NewDeleteGameCommand(id))
	assert.Equal(t, core.ErrGameNotFound, resp.Error.Code)
}

func TestSearchTimeoutLeavesGameStuck(t *testing.T) {
	p, svc := newTestProcessor(t, 0, Config{DefaultDepth: 6, SearchTimeout: 50 * time.Millisecond})

	resp := p.Execute(NewCreateGameCommand("", core.CreateGameRequest{PlayerColor: "b"}))
	require.True(t, resp.Success)
	id := resp.Data.(core.GameResponse).GameID

	require.Eventually(t, func() bool {
		g, err := svc.GetGame(id)
		return err == nil && g.State() == core.StateStuck
	}, 5*time.Second, 10*time.Millisecond)

	resp = p.Execute(NewMakeMoveCommand(id, core.MoveRequest{Move: "e7e5"}))
	assert.Equal(t, core.ErrGameOver, resp.Error.Code)
	resp = p.Execute(NewUndoMoveCommand(id, core.UndoRequest{Count: 1}))
	assert.Equal(t, core.ErrInvalidRequest, resp.Error.Code, "nothing to undo")

	// Lowering the depth retries the computer's move
	resp = p.Execute(NewSetDepthCommand(id, core.DepthRequest{Depth: 1}))
	require.True(t, resp.Success)
	waitForMoves(t, svc, id, 1)

	g, err := svc.GetGame(id)
	require.NoError(t, err)
	assert.Equal(t, core.StateOngoing, g.State())
}

func TestUndoClearsStuckGame(t *testing.T) {
	p, svc := newTestProcessor(t, 0, Config{DefaultDepth: 6, SearchTimeout: 50 * time.Millisecond})
	game := createGame(t, p, core.CreateGameRequest{PlayerColor: "w"})

	require.True(t, p.Execute(NewMakeMoveCommand(game.GameID, core.MoveRequest{Move: "e2e4"})).Success)
	require.Eventually(t, func() bool {
		g, err := svc.GetGame(game.GameID)
		return err == nil && g.State() == core.StateStuck
	}, 5*time.Second, 10*time.Millisecond)

	resp := p.Execute(NewUndoMoveCommand(game.GameID, core.UndoRequest{Count: 1}))
	require.True(t, resp.Success)
	data := resp.Data.(core.GameResponse)
	assert.Equal(t, core.StateOngoing.String(), data.State)
	assert.Empty(t, data.Moves)
	assert.False(t, resp.Pending)
}

func TestUnknownCommand(t *testing.T) {
	p, _ := newTestProcessor(t, 0, Config{})
	resp := p.Execute(Command{Type: CommandType(99)})
	assert.False(t, resp.Success)
	assert.Equal(t, core.ErrInvalidRequest, resp.Error.Code)
}

func TestCloseStopsWorkers(t *testing.T) {
	svc := service.New(nil, testSecret, 0)
	p := New(svc, Config{DefaultDepth: 1})

	createGame(t, p, core.CreateGameRequest{PlayerColor: "w"})
	createGame(t, p, core.CreateGameRequest{PlayerColor: "w"})
	assert.Equal(t, 2, p.ActiveWorkers())

	require.NoError(t, p.Close())
	assert.Zero(t, p.ActiveWorkers())
	assert.Zero(t, svc.GetComputerGameCount())
}
