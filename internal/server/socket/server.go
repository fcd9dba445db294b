// Package socket exposes search workers over WebSocket. Every connection
// owns one worker; text frames in are worker requests and text frames out
// are worker messages.
package socket

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"chessworker/internal/server/core"
	"chessworker/internal/server/engine"
	"chessworker/internal/server/processor"
	"chessworker/internal/server/rules"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	pingInterval   = 30 * time.Second
	writeTimeout   = 10 * time.Second
	maxRequestSize = 64 << 10

	DefaultMaxConnections = 32
)

// Config tunes the workers created for connections
type Config struct {
	DefaultDepth   int
	DrawScore      *float64
	SearchTimeout  time.Duration // zero lets every search run to completion
	MaxConnections int
}

type Server struct {
	cfg      Config
	upgrader websocket.Upgrader
	conns    atomic.Int32
}

func New(cfg Config) *Server {
	if cfg.DefaultDepth < 1 {
		cfg.DefaultDepth = engine.DefaultDepth
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = DefaultMaxConnections
	}
	return &Server{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Router returns the socket listener's routes
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)
	r.Get("/worker", s.serveWorker)

	return r
}

// Connections returns the number of open worker connections
func (s *Server) Connections() int {
	return int(s.conns.Load())
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":      "healthy",
		"connections": s.Connections(),
	})
}

func (s *Server) serveWorker(w http.ResponseWriter, r *http.Request) {
	if int(s.conns.Add(1)) > s.cfg.MaxConnections {
		s.conns.Add(-1)
		http.Error(w, "too many worker connections", http.StatusServiceUnavailable)
		return
	}
	defer s.conns.Add(-1)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxRequestSize)

	id := middleware.GetReqID(r.Context())
	if id == "" {
		id = uuid.NewString()
	}
	logger := log.With().Str("component", "socket").Str("conn", id).Logger()

	worker := processor.NewWorker(s.newSearcher(),
		processor.WithSearchTimeout(s.cfg.SearchTimeout),
		processor.WithLogger(logger),
	)

	written := make(chan struct{})
	go func() {
		defer close(written)
		if err := writePump(conn, worker.Messages()); err != nil {
			logger.Debug().Err(err).Msg("Write failed")
			conn.Close()
		}
	}()

	logger.Info().Str("remote", r.RemoteAddr).Msg("Worker connected")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug().Err(err).Msg("Read failed")
			}
			break
		}

		if err := worker.Send(data); err != nil {
			if errors.Is(err, core.ErrWorkerClosed) {
				break
			}
			logger.Warn().Err(err).Msg("Dropping request")
		}
	}

	worker.Close()
	<-written
	logger.Info().Msg("Worker disconnected")
}

func (s *Server) newSearcher() *engine.Engine {
	opts := []engine.Option{engine.WithDepth(s.cfg.DefaultDepth)}
	if s.cfg.DrawScore != nil {
		opts = append(opts, engine.WithDrawScore(*s.cfg.DrawScore))
	}
	return engine.New(rules.Standard{}, opts...)
}

// writePump is the connection's only writer. It relays worker messages and
// pings the peer when the connection is idle.
func writePump(conn *websocket.Conn, messages <-chan processor.Message) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(writeTimeout))
				return nil
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				return err
			}

		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return err
			}
		}
	}
}
