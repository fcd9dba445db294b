// Package main runs the chess server: the REST game API backed by per-game
// search workers, and the raw worker protocol over WebSocket.
package main

import (
	"context"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chessworker/cmd/chess-server/cli"
	"chessworker/internal/server/core"
	"chessworker/internal/server/engine"
	"chessworker/internal/server/http"
	"chessworker/internal/server/processor"
	"chessworker/internal/server/service"
	"chessworker/internal/server/socket"
	"chessworker/internal/server/storage"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const gracefulShutdownTimeout = 5 * time.Second

func main() {
	if len(os.Args) > 1 && os.Args[1] == "db" {
		if err := cli.Run(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "CLI error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	var (
		apiHost     = flag.String("api-host", "localhost", "API server host")
		apiPort     = flag.Int("api-port", 8080, "API server port")
		wsPort      = flag.Int("ws-port", 8081, "Worker WebSocket port on the API host, 0 disables")
		dev         = flag.Bool("dev", false, "Development mode (console logs, relaxed rate limits, fixed JWT secret)")
		storagePath = flag.String("storage-path", "", "Path to SQLite database file (disables persistence if empty)")
		pidPath     = flag.String("pid", "", "Optional path to write PID file")
		pidLock     = flag.Bool("pid-lock", false, "Lock PID file to allow only one instance (requires -pid)")

		depth         = flag.Int("depth", engine.DefaultDepth, "Default search depth for new games")
		drawStalemate = flag.Bool("draw-stalemate", false, "Score stalemate leaves as 0 instead of by material")
		maxGames      = flag.Int("max-games", service.MaxComputerGames, "Maximum concurrent games against the computer")
		maxConns      = flag.Int("max-conns", socket.DefaultMaxConnections, "Maximum concurrent worker connections")
		searchTimeout = flag.Duration("search-timeout", processor.DefaultSearchTimeout, "Time limit for one computer move")
		wsTimeout     = flag.Duration("ws-search-timeout", 0, "Time limit for one socket search, 0 for none")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	if *dev {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if *pidLock && *pidPath == "" {
		log.Fatal().Msg("-pid-lock requires -pid")
	}
	if *depth < 1 || *depth > core.MaxGameDepth {
		log.Fatal().Int("depth", *depth).Msgf("-depth must be between 1 and %d", core.MaxGameDepth)
	}

	if *pidPath != "" {
		cleanup, err := writePIDFile(*pidPath, *pidLock)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to manage PID file")
		}
		defer cleanup()
		log.Info().Str("path", *pidPath).Bool("lock", *pidLock).Msg("PID file created")
	}

	var store *storage.Store
	if *storagePath != "" {
		var err error
		store, err = storage.NewStore(*storagePath, *dev)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize storage")
		}
		if err := store.InitDB(); err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize schema")
		}
		log.Info().Str("path", *storagePath).Msg("Persistent storage enabled")
	} else {
		log.Info().Msg("Persistent storage disabled (use -storage-path to enable)")
	}

	jwtSecret, err := newJWTSecret(*dev)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to generate JWT secret")
	}

	var drawScore *float64
	if *drawStalemate {
		zero := 0.0
		drawScore = &zero
	}

	// Service owns storage and closes it on shutdown
	svc := service.New(store, jwtSecret, *maxGames)
	proc := processor.New(svc, processor.Config{
		DefaultDepth:  *depth,
		DrawScore:     drawScore,
		SearchTimeout: *searchTimeout,
	})
	app := http.NewFiberApp(proc, svc, http.Config{DevMode: *dev})

	var wsServer *nethttp.Server
	if *wsPort != 0 {
		ws := socket.New(socket.Config{
			DefaultDepth:   *depth,
			DrawScore:      drawScore,
			SearchTimeout:  *wsTimeout,
			MaxConnections: *maxConns,
		})
		wsServer = &nethttp.Server{
			Addr:              fmt.Sprintf("%s:%d", *apiHost, *wsPort),
			Handler:           ws.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	apiAddr := fmt.Sprintf("%s:%d", *apiHost, *apiPort)
	g.Go(func() error {
		log.Info().
			Str("addr", "http://"+apiAddr).
			Int("depth", *depth).
			Int("maxGames", *maxGames).
			Dur("searchTimeout", *searchTimeout).
			Bool("dev", *dev).
			Msg("API server listening")
		return app.Listen(apiAddr)
	})

	if wsServer != nil {
		g.Go(func() error {
			log.Info().Str("addr", "ws://"+wsServer.Addr+"/worker").Int("maxConns", *maxConns).Msg("Worker socket listening")
			if err := wsServer.ListenAndServe(); !errors.Is(err, nethttp.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down servers...")

		if err := app.ShutdownWithTimeout(gracefulShutdownTimeout); err != nil {
			log.Warn().Err(err).Msg("API server forced to shutdown")
		}
		if wsServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
			defer cancel()
			if err := wsServer.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("Worker socket forced to shutdown")
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server error")
	}

	if err := proc.Close(); err != nil {
		log.Warn().Err(err).Msg("Processor close error")
	}
	if err := svc.Shutdown(gracefulShutdownTimeout); err != nil {
		log.Warn().Err(err).Msg("Service shutdown error")
	}

	log.Info().Msg("Servers exited")
}

// newJWTSecret returns a fixed secret in dev mode so tokens survive restarts,
// otherwise a random one valid until the process exits
func newJWTSecret(dev bool) ([]byte, error) {
	if dev {
		return []byte("dev-secret-minimum-32-characters-long"), nil
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	return secret, nil
}
