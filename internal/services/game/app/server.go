// Package server wires the territory engine runtime: sqlite store,
// engine, event hub, the HTTP API surface, and the resolution loop.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"geobattle/internal/platform/timeouts"
	"geobattle/internal/services/game/api/httpapi"
	"geobattle/internal/services/game/engine"
	"geobattle/internal/services/game/events"
	storagesqlite "geobattle/internal/services/game/storage/sqlite"
)

// Options defines the inputs for the game server process.
type Options struct {
	Addr   string
	DBPath string
	// MembershipCap limits concurrent game memberships per player.
	// Zero keeps the engine default.
	MembershipCap int
	// OverrideCancelsAttack makes creator ownership overrides cancel a
	// pending attack on the territory instead of leaving it standing.
	OverrideCancelsAttack bool
	// SweepInterval paces the in-process resolution loop. Zero keeps
	// the default of one minute.
	SweepInterval time.Duration
	// Auth overrides env-derived token verification when set.
	Auth *httpapi.AuthConfig
}

// Server hosts the territory engine HTTP API and its resolution loop.
type Server struct {
	listener      net.Listener
	httpServer    *http.Server
	store         *storagesqlite.Store
	engine        *engine.Service
	sweepInterval time.Duration
}

// New creates a configured game server listening on opts.Addr.
func New(opts Options) (*Server, error) {
	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		return nil, errors.New("listen address is required")
	}

	authCfg := opts.Auth
	if authCfg == nil {
		loaded, err := httpapi.LoadAuthConfigFromEnv(nil)
		if err != nil {
			return nil, err
		}
		authCfg = &loaded
	}
	verifier, err := httpapi.NewEdDSAVerifier(*authCfg)
	if err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	store, err := openGameStore(opts.DBPath)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}

	hub := events.NewHub()
	svc, err := engine.New(engine.Config{
		Store:                 store,
		Publisher:             hub,
		MembershipCap:         opts.MembershipCap,
		OverrideCancelsAttack: opts.OverrideCancelsAttack,
	})
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		return nil, err
	}

	httpServer := &http.Server{
		Handler:           httpapi.NewServer(svc, hub, verifier).Handler(),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	return &Server{
		listener:      listener,
		httpServer:    httpServer,
		store:         store,
		engine:        svc,
		sweepInterval: opts.SweepInterval,
	}, nil
}

// Addr returns the listener address for the game server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a game server until the context ends.
func Run(ctx context.Context, opts Options) error {
	server, err := New(opts)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the game server and blocks until it stops or the context ends.
func (s *Server) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.closeStore()

	// The resolution loop shares the hub-connected engine so sweep
	// captures reach change-feed watchers.
	sweepCtx, cancelSweep := context.WithCancel(ctx)
	defer cancelSweep()
	go sweepLoop(sweepCtx, s.engine, s.sweepInterval)

	log.Printf("game server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(s.listener)
	}()

	handleErr := func(err error) error {
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("game server shutdown: %v", err)
		}
		return handleErr(<-serveErr)
	case err := <-serveErr:
		return handleErr(err)
	}
}

func openGameStore(path string) (*storagesqlite.Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GEOBATTLE_GAME_DB_PATH"))
	}
	if path == "" {
		path = filepath.Join("data", "game.db")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	store, err := storagesqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	return store, nil
}

func (s *Server) closeStore() {
	if s == nil || s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		log.Printf("close game store: %v", err)
	}
}
