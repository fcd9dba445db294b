package processor

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"chessworker/internal/server/board"
	"chessworker/internal/server/core"
	"chessworker/internal/server/engine"
	"chessworker/internal/server/game"
	"chessworker/internal/server/rules"
	"chessworker/internal/server/service"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"
)

const (
	DefaultSearchTimeout = 30 * time.Second

	// Extra time allowed for a search result to travel back before the game is marked stuck
	resultGrace = time.Second
)

// Config tunes the computer player
type Config struct {
	DefaultDepth  int
	DrawScore     *float64 // nil keeps stalemate leaves on static evaluation
	SearchTimeout time.Duration
}

// gameWorker is the worker serving one game plus the bookkeeping needed to
// pair its play and info messages
type gameWorker struct {
	worker   *Worker
	mu       sync.Mutex
	last     engine.SearchResult
	watchdog *time.Timer
}

func (gw *gameWorker) observe(r engine.SearchResult) {
	gw.mu.Lock()
	gw.last = r
	gw.mu.Unlock()
}

func (gw *gameWorker) lastResult() engine.SearchResult {
	gw.mu.Lock()
	defer gw.mu.Unlock()
	return gw.last
}

func (gw *gameWorker) arm(timer *time.Timer) {
	gw.mu.Lock()
	defer gw.mu.Unlock()
	if gw.watchdog != nil {
		gw.watchdog.Stop()
	}
	gw.watchdog = timer
}

func (gw *gameWorker) disarm() {
	gw.arm(nil)
}

// Processor handles command execution and coordinates between the service
// and the per-game search workers
type Processor struct {
	svc     *service.Service
	cfg     Config
	cmdMu   sync.Mutex // serializes commands that change games
	mu      sync.Mutex
	workers map[string]*gameWorker
	wg      sync.WaitGroup
}

// New creates a processor. Zero config fields take their defaults.
func New(svc *service.Service, cfg Config) *Processor {
	if cfg.DefaultDepth < 1 {
		cfg.DefaultDepth = engine.DefaultDepth
	}
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = DefaultSearchTimeout
	}

	return &Processor{
		svc:     svc,
		cfg:     cfg,
		workers: make(map[string]*gameWorker),
	}
}

func (p *Processor) Execute(cmd Command) ProcessorResponse {
	switch cmd.Type {
	case CmdGetGame, CmdGetBoard, CmdGetPGN:
	default:
		p.cmdMu.Lock()
		defer p.cmdMu.Unlock()
	}

	switch cmd.Type {
	case CmdCreateGame:
		return p.handleCreateGame(cmd)
	case CmdGetGame:
		return p.handleGetGame(cmd)
	case CmdMakeMove:
		return p.handleMakeMove(cmd)
	case CmdSetDepth:
		return p.handleSetDepth(cmd)
	case CmdUndoMove:
		return p.handleUndoMove(cmd)
	case CmdDeleteGame:
		return p.handleDeleteGame(cmd)
	case CmdGetBoard:
		return p.handleGetBoard(cmd)
	case CmdGetPGN:
		return p.handleGetPGN(cmd)
	default:
		return p.errorResponse("unknown command", core.ErrInvalidRequest)
	}
}

// ActiveWorkers returns the number of running game workers
func (p *Processor) ActiveWorkers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}

// handleCreateGame creates a game against the computer and starts its
// worker. The computer moves at once when it has the first turn.
func (p *Processor) handleCreateGame(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.CreateGameRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	humanColor, err := core.ParseColor(args.PlayerColor)
	if err != nil {
		return p.errorResponse(err.Error(), core.ErrInvalidRequest)
	}

	depth := args.Depth
	if depth < 1 {
		depth = p.cfg.DefaultDepth
	}

	initialFEN := board.StartingFEN
	if args.FEN != "" {
		initialFEN = strings.TrimSpace(args.FEN)
	}
	b, err := board.ParseFEN(initialFEN)
	if err != nil {
		return p.errorResponse(err.Error(), core.ErrInvalidFEN)
	}
	if err := b.Position().Validate(); err != nil {
		return p.errorResponse(err.Error(), core.ErrInvalidFEN)
	}

	if !p.svc.ReserveComputerGame() {
		return p.errorResponse("computer game limit reached", core.ErrResourceLimit)
	}

	human := core.NewPlayer(core.PlayerHuman, humanColor)
	if cmd.UserID != "" {
		human.ID = cmd.UserID
	}
	computer := core.NewPlayer(core.PlayerComputer, core.OppositeColor(humanColor))

	white, black := human, computer
	if humanColor == core.ColorBlack {
		white, black = computer, human
	}

	gameID := p.svc.GenerateGameID()
	if err := p.svc.CreateGame(gameID, white, black, initialFEN, b.Turn(), depth); err != nil {
		p.svc.ReleaseComputerGame()
		return p.errorResponse(fmt.Sprintf("failed to create game: %v", err), core.ErrInternalError)
	}

	gw := p.startWorker(gameID, depth)

	p.checkGameEnd(gameID, b.Position(), b.Turn())

	g, err := p.svc.GetGame(gameID)
	if err != nil {
		return p.errorResponse("game creation failed", core.ErrInternalError)
	}

	pending := false
	if g.State() == core.StateOngoing && b.Turn() != humanColor {
		pending = p.triggerComputerMove(gameID, g, gw)
	}

	return ProcessorResponse{
		Success: true,
		Pending: pending,
		Data:    p.buildGameResponse(gameID, g),
	}
}

func (p *Processor) handleGetGame(cmd Command) ProcessorResponse {
	g, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.errorResponse("game not found", core.ErrGameNotFound)
	}

	return ProcessorResponse{
		Success: true,
		Pending: g.State() == core.StatePending,
		Data:    p.buildGameResponse(cmd.GameID, g),
	}
}

// handleMakeMove applies a human move and hands the reply to the worker
func (p *Processor) handleMakeMove(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.MoveRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	g, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.errorResponse("game not found", core.ErrGameNotFound)
	}

	switch state := g.State(); {
	case state == core.StatePending:
		return p.errorResponse("computer move in progress", core.ErrNotHumanTurn)
	case state == core.StateStuck:
		return p.errorResponse("game is stuck: computer failed to move", core.ErrGameOver)
	case state.IsOver():
		return p.errorResponse(fmt.Sprintf("game is over: %s", state), core.ErrGameOver)
	}

	color := g.NextTurnColor()
	if g.GetPlayer(color).Type != core.PlayerHuman {
		return p.errorResponse("not human player's turn", core.ErrNotHumanTurn)
	}

	move, err := core.ParseMove(strings.ToLower(strings.TrimSpace(args.Move)))
	if err != nil {
		return p.errorResponse(err.Error(), core.ErrInvalidMove)
	}

	b, err := g.CurrentBoard()
	if err != nil {
		return p.errorResponse("error parsing FEN", core.ErrInvalidFEN)
	}
	if !rules.IsLegal(color, b.Position(), move) {
		return p.errorResponse("illegal move", core.ErrInvalidMove)
	}

	next, notation := p.play(b, move)
	err = p.svc.ApplyMove(cmd.GameID, next.FEN(), &game.MoveResult{
		Move:        notation,
		PlayerColor: color,
		GameState:   core.StateOngoing,
	})
	if err != nil {
		return p.errorResponse(fmt.Sprintf("failed to apply move: %v", err), core.ErrInternalError)
	}

	p.checkGameEnd(cmd.GameID, next.Position(), next.Turn())

	pending := false
	if g.State() == core.StateOngoing {
		if gw := p.worker(cmd.GameID); gw != nil {
			pending = p.triggerComputerMove(cmd.GameID, g, gw)
		}
	}

	response := p.buildGameResponse(cmd.GameID, g)
	response.LastMove = &core.MoveInfo{
		Move:        notation,
		PlayerColor: color.String(),
	}

	return ProcessorResponse{
		Success: true,
		Pending: pending,
		Data:    response,
	}
}

// handleSetDepth forwards a depth change to the game's worker. The worker
// handles requests in order, so the change applies from the next search.
func (p *Processor) handleSetDepth(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.DepthRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	g, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.errorResponse("game not found", core.ErrGameNotFound)
	}

	gw := p.worker(cmd.GameID)
	if gw == nil {
		return p.errorResponse("game has no worker", core.ErrInternalError)
	}

	if args.Depth < 1 {
		args.Depth = 1
	}

	if err := gw.worker.SendMessage(NewDepthMessage(args.Depth)); err != nil {
		return p.errorResponse(fmt.Sprintf("failed to configure worker: %v", err), workerErrorCode(err))
	}
	p.svc.SetDepth(cmd.GameID, args.Depth)

	// A stuck game retries the computer's move at the new depth
	if p.svc.TransitionGameState(cmd.GameID, core.StateStuck, core.StateOngoing) &&
		g.GetPlayer(g.NextTurnColor()).Type == core.PlayerComputer {
		p.triggerComputerMove(cmd.GameID, g, gw)
	}

	return ProcessorResponse{
		Success: true,
		Pending: g.State() == core.StatePending,
		Data:    p.buildGameResponse(cmd.GameID, g),
	}
}

// handleUndoMove reverts moves, which also clears a stuck state. If the
// computer is left to move it searches again.
func (p *Processor) handleUndoMove(cmd Command) ProcessorResponse {
	g, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.errorResponse("game not found", core.ErrGameNotFound)
	}

	if g.State() == core.StatePending {
		return p.errorResponse("cannot undo while computer move is in progress", core.ErrInvalidRequest)
	}

	args := core.UndoRequest{Count: 1}
	if req, ok := cmd.Args.(core.UndoRequest); ok && req.Count > 0 {
		args = req
	}

	if err = p.svc.UndoMoves(cmd.GameID, args.Count); err != nil {
		return p.errorResponse(err.Error(), core.ErrInvalidRequest)
	}

	pending := false
	if g.GetPlayer(g.NextTurnColor()).Type == core.PlayerComputer {
		if gw := p.worker(cmd.GameID); gw != nil {
			pending = p.triggerComputerMove(cmd.GameID, g, gw)
		}
	}

	return ProcessorResponse{
		Success: true,
		Pending: pending,
		Data:    p.buildGameResponse(cmd.GameID, g),
	}
}

// handleDeleteGame removes a game. A running search is cancelled.
func (p *Processor) handleDeleteGame(cmd Command) ProcessorResponse {
	if err := p.svc.DeleteGame(cmd.GameID); err != nil {
		return p.errorResponse("game not found", core.ErrGameNotFound)
	}

	if err := p.stopWorker(cmd.GameID); err != nil {
		log.Warn().Err(err).Str("game", cmd.GameID).Msg("Worker close failed")
	}

	return ProcessorResponse{
		Success: true,
	}
}

// handleGetBoard returns board visualization
func (p *Processor) handleGetBoard(cmd Command) ProcessorResponse {
	g, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.errorResponse("game not found", core.ErrGameNotFound)
	}

	b, err := g.CurrentBoard()
	if err != nil {
		return p.errorResponse("error parsing FEN", core.ErrInvalidFEN)
	}

	return ProcessorResponse{
		Success: true,
		Data: core.BoardResponse{
			FEN:   b.FEN(),
			Board: b.ToASCII(),
		},
	}
}

func (p *Processor) handleGetPGN(cmd Command) ProcessorResponse {
	g, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.errorResponse("game not found", core.ErrGameNotFound)
	}

	pgn, err := g.PGN()
	if err != nil {
		return p.errorResponse(fmt.Sprintf("failed to export PGN: %v", err), core.ErrInternalError)
	}

	return ProcessorResponse{
		Success: true,
		Data:    core.PGNResponse{PGN: pgn},
	}
}

// play applies move to b, returning the next board and the move in
// coordinate notation with an explicit queen suffix on promotion
func (p *Processor) play(b *board.Board, move core.Move) (*board.Board, string) {
	pos := b.Position()
	notation := move.String()
	if board.Kind(pos.At(move.From)) == 'p' && (move.To.Row == 0 || move.To.Row == 7) {
		notation += "q"
	}

	fullmove := b.Fullmove()
	if b.Turn() == core.ColorBlack {
		fullmove++
	}

	next := board.New(rules.After(pos, move.From, move.To), core.OppositeColor(b.Turn()), fullmove)
	return next, notation
}

// checkGameEnd records checkmate or stalemate for side to move
func (p *Processor) checkGameEnd(gameID string, pos board.Position, sideToMove core.Color) {
	switch rules.GameOver(sideToMove, pos) {
	case core.TerminalCheckmate:
		p.svc.UpdateGameState(gameID, core.WinFor(core.OppositeColor(sideToMove)))
	case core.TerminalStalemate:
		p.svc.UpdateGameState(gameID, core.StateStalemate)
	}
}

// buildGameResponse constructs standard game response
func (p *Processor) buildGameResponse(gameID string, g *game.Game) core.GameResponse {
	resp := core.GameResponse{
		GameID: gameID,
		FEN:    g.CurrentFEN(),
		Turn:   g.NextTurnColor().String(),
		State:  g.State().String(),
		Depth:  g.Depth(),
		Moves:  g.Moves(),
		Players: core.PlayersResponse{
			White: g.GetPlayer(core.ColorWhite),
			Black: g.GetPlayer(core.ColorBlack),
		},
	}

	if result := g.LastResult(); result != nil {
		resp.LastMove = &core.MoveInfo{
			Move:        result.Move,
			PlayerColor: result.PlayerColor.String(),
			Score:       result.Score,
			Depth:       result.Depth,
			Nodes:       result.Nodes,
		}
	}

	return resp
}

// errorResponse creates error response
func (p *Processor) errorResponse(message, code string) ProcessorResponse {
	return ProcessorResponse{
		Success: false,
		Error: &core.ErrorResponse{
			Error: message,
			Code:  code,
		},
	}
}

func workerErrorCode(err error) string {
	if errors.Is(err, core.ErrWorkerBusy) {
		return core.ErrResourceLimit
	}
	return core.ErrInternalError
}

// Close stops every game worker and waits for their consumers to finish
func (p *Processor) Close() error {
	p.mu.Lock()
	ids := make([]string, 0, len(p.workers))
	for id := range p.workers {
		ids = append(ids, id)
	}
	p.mu.Unlock()

	var result *multierror.Error
	for _, id := range ids {
		if err := p.stopWorker(id); err != nil {
			result = multierror.Append(result, fmt.Errorf("game %s: %w", id, err))
		}
	}

	p.wg.Wait()
	return result.ErrorOrNil()
}
