package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"chessworker/internal/server/board"
	"chessworker/internal/server/core"
	"chessworker/internal/server/engine"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultInboxSize  = 16
	DefaultOutboxSize = 16
)

// Searcher is the engine surface a worker drives
type Searcher interface {
	Configure(depth int)
	FindBestMove(ctx context.Context, p board.Position, callerSide core.Color) (*engine.SearchResult, error)
}

// Worker hosts a Searcher behind asynchronous messages. A single goroutine
// handles requests one at a time in arrival order, so a depth change sent
// before a play request applies to that search.
type Worker struct {
	searcher      Searcher
	inbox         chan []byte
	outbox        chan Message
	searchTimeout time.Duration
	observer      func(engine.SearchResult)
	logger        zerolog.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

type WorkerOption func(*Worker)

// WithInboxSize bounds the number of queued requests. Send beyond it
// returns core.ErrWorkerBusy.
func WithInboxSize(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.inbox = make(chan []byte, n)
		}
	}
}

// WithSearchTimeout abandons searches that run longer than d. An abandoned
// search produces no response.
func WithSearchTimeout(d time.Duration) WorkerOption {
	return func(w *Worker) {
		w.searchTimeout = d
	}
}

// WithObserver registers fn to receive every completed search result before
// its messages are emitted. fn runs on the worker goroutine.
func WithObserver(fn func(engine.SearchResult)) WorkerOption {
	return func(w *Worker) {
		w.observer = fn
	}
}

func WithLogger(l zerolog.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = l
	}
}

// NewWorker starts a worker goroutine around s
func NewWorker(s Searcher, opts ...WorkerOption) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	w := &Worker{
		searcher: s,
		inbox:    make(chan []byte, DefaultInboxSize),
		outbox:   make(chan Message, DefaultOutboxSize),
		logger:   log.With().Str("component", "worker").Logger(),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	go w.run()
	return w
}

// Send queues a raw JSON request. It never blocks.
func (w *Worker) Send(data []byte) error {
	if w.ctx.Err() != nil {
		return core.ErrWorkerClosed
	}

	select {
	case w.inbox <- data:
		return nil
	case <-w.ctx.Done():
		return core.ErrWorkerClosed
	default:
		return core.ErrWorkerBusy
	}
}

// SendMessage encodes and queues msg
func (w *Worker) SendMessage(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	return w.Send(data)
}

// Messages returns the outbound channel. It is closed after the worker stops.
func (w *Worker) Messages() <-chan Message {
	return w.outbox
}

// Done is closed once the worker goroutine has exited
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Close cancels any running search and stops the worker. Closing twice
// returns core.ErrWorkerClosed.
func (w *Worker) Close() error {
	err := core.ErrWorkerClosed
	w.closeOnce.Do(func() {
		w.cancel()
		err = nil
	})
	<-w.done
	return err
}

func (w *Worker) run() {
	defer close(w.done)
	defer close(w.outbox)

	for {
		select {
		case <-w.ctx.Done():
			return
		case data := <-w.inbox:
			w.handle(data)
		}
	}
}

// handle processes one request. Failures are logged and produce no response.
func (w *Worker) handle(data []byte) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error().Interface("panic", r).Msg("Request handler panicked")
		}
	}()

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		w.logger.Warn().Err(err).Msg("Dropping malformed message")
		return
	}

	switch msg.Cmd {
	case MsgSetSearchDepth:
		var depth int
		if err := json.Unmarshal(msg.Data, &depth); err != nil {
			w.logger.Warn().Err(err).Msg("Dropping invalid search depth")
			return
		}
		w.searcher.Configure(depth)
		w.logger.Debug().Int("depth", depth).Msg("Search depth configured")

	case MsgPlay:
		w.play(msg.Data)

	default:
		w.logger.Warn().Str("cmd", msg.Cmd).Msg("Dropping unknown command")
	}
}

func (w *Worker) play(data json.RawMessage) {
	p, caller, err := decodePlay(data)
	if err != nil {
		w.logger.Warn().Err(err).Msg("Dropping invalid play request")
		return
	}

	ctx := w.ctx
	if w.searchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.searchTimeout)
		defer cancel()
	}

	start := time.Now()
	result, err := w.searcher.FindBestMove(ctx, p, caller)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			w.logger.Warn().Dur("timeout", w.searchTimeout).Msg("Search abandoned")
		case errors.Is(err, context.Canceled):
		default:
			w.logger.Warn().Err(err).Msg("Search failed")
		}
		return
	}

	w.logger.Debug().
		Int("nodes", result.Nodes).
		Int("depth", result.Depth).
		Dur("elapsed", time.Since(start)).
		Msg("Search complete")

	if w.observer != nil {
		w.observer(*result)
	}

	if result.BestMove != nil {
		if msg, err := newMessage(MsgPlay, *result.BestMove); err == nil {
			w.emit(msg)
		}
	}
	if msg, err := newMessage(MsgInfo, []int{result.Nodes}); err == nil {
		w.emit(msg)
	}
}

func (w *Worker) emit(msg Message) {
	select {
	case w.outbox <- msg:
	case <-w.ctx.Done():
	}
}
