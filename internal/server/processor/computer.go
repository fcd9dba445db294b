package processor

import (
	"time"

	"chessworker/internal/server/core"
	"chessworker/internal/server/engine"
	"chessworker/internal/server/game"
	"chessworker/internal/server/rules"

	"github.com/rs/zerolog/log"
)

// startWorker creates the search worker of a game and its message consumer
func (p *Processor) startWorker(gameID string, depth int) *gameWorker {
	opts := []engine.Option{engine.WithDepth(depth)}
	if p.cfg.DrawScore != nil {
		opts = append(opts, engine.WithDrawScore(*p.cfg.DrawScore))
	}

	gw := &gameWorker{}
	gw.worker = NewWorker(
		engine.New(rules.Standard{}, opts...),
		WithSearchTimeout(p.cfg.SearchTimeout),
		WithObserver(gw.observe),
		WithLogger(log.With().Str("component", "worker").Str("game", gameID).Logger()),
	)

	p.mu.Lock()
	p.workers[gameID] = gw
	p.mu.Unlock()

	p.wg.Add(1)
	go p.consume(gameID, gw)

	return gw
}

func (p *Processor) worker(gameID string) *gameWorker {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.workers[gameID]
}

// stopWorker closes a game's worker and frees its computer game slot
func (p *Processor) stopWorker(gameID string) error {
	p.mu.Lock()
	gw, ok := p.workers[gameID]
	delete(p.workers, gameID)
	p.mu.Unlock()

	if !ok {
		return nil
	}

	gw.disarm()
	p.svc.ReleaseComputerGame()
	return gw.worker.Close()
}

// triggerComputerMove marks the game pending and sends the current position
// to its worker. It reports whether a search was started.
func (p *Processor) triggerComputerMove(gameID string, g *game.Game, gw *gameWorker) bool {
	b, err := g.CurrentBoard()
	if err != nil {
		log.Error().Err(err).Str("game", gameID).Msg("Cannot parse position for computer move")
		p.svc.UpdateGameState(gameID, core.StateStuck)
		return false
	}

	if !p.svc.TransitionGameState(gameID, core.StateOngoing, core.StatePending) {
		return false
	}

	// The caller side is the human; the worker answers for the other side
	msg := NewPlayMessage(b.Position(), g.HumanColor())

	gw.arm(time.AfterFunc(p.cfg.SearchTimeout+resultGrace, func() {
		if p.svc.TransitionGameState(gameID, core.StatePending, core.StateStuck) {
			log.Warn().Str("game", gameID).Dur("timeout", p.cfg.SearchTimeout).Msg("Computer move timed out")
		}
	}))

	if err := gw.worker.SendMessage(msg); err != nil {
		gw.disarm()
		log.Error().Err(err).Str("game", gameID).Msg("Worker rejected search")
		p.svc.TransitionGameState(gameID, core.StatePending, core.StateStuck)
		return false
	}

	return true
}

// consume pairs each worker's play and info messages. A play message is
// held until the info that closes its search arrives; an info without a
// preceding play means the search found no move.
func (p *Processor) consume(gameID string, gw *gameWorker) {
	defer p.wg.Done()

	var move *core.Move
	for msg := range gw.worker.Messages() {
		switch msg.Cmd {
		case MsgPlay:
			m, err := msg.Move()
			if err != nil {
				log.Error().Err(err).Str("game", gameID).Msg("Invalid play message")
				continue
			}
			move = &m

		case MsgInfo:
			nodes, err := msg.Nodes()
			if err != nil {
				log.Error().Err(err).Str("game", gameID).Msg("Invalid info message")
			}
			gw.disarm()
			p.completeSearch(gameID, gw, move, nodes)
			move = nil

		default:
			log.Warn().Str("game", gameID).Str("cmd", msg.Cmd).Msg("Unexpected worker message")
		}
	}
}

// completeSearch applies the computer's move, or marks the game stuck when
// the worker could not produce a legal one
func (p *Processor) completeSearch(gameID string, gw *gameWorker, move *core.Move, nodes int) {
	g, err := p.svc.GetGame(gameID)
	if err != nil {
		return
	}
	if g.State() != core.StatePending {
		log.Debug().Str("game", gameID).Str("state", g.State().String()).Msg("Discarding late search result")
		return
	}

	b, err := g.CurrentBoard()
	if err != nil || move == nil || !rules.IsLegal(b.Turn(), b.Position(), *move) {
		log.Warn().Str("game", gameID).Interface("move", move).Int("nodes", nodes).Msg("Computer produced no legal move")
		p.svc.TransitionGameState(gameID, core.StatePending, core.StateStuck)
		return
	}

	search := gw.lastResult()
	next, notation := p.play(b, *move)

	err = p.svc.ApplyComputerMove(gameID, next.FEN(), &game.MoveResult{
		Move:        notation,
		PlayerColor: b.Turn(),
		GameState:   core.StateOngoing,
		Score:       search.Score,
		Depth:       search.Depth,
		Nodes:       nodes,
	})
	if err != nil {
		log.Debug().Err(err).Str("game", gameID).Msg("Discarding search result")
		return
	}

	log.Info().
		Str("game", gameID).
		Str("move", notation).
		Int("nodes", nodes).
		Int("depth", search.Depth).
		Msg("Computer moved")

	p.checkGameEnd(gameID, next.Position(), next.Turn())
}
