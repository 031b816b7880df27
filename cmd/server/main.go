package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"taskpad/internal/api"
	"taskpad/internal/config"
	"taskpad/internal/db"
	"taskpad/internal/logger"
	"taskpad/pkg/session"
)

func main() {
	cfg, err := config.Load(os.Args[1:], os.LookupEnv)
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "taskpad: %v\n", err)
		os.Exit(2)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "taskpad: %v\n", err)
		os.Exit(2)
	}

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("server: exit")
	}
}

func run(cfg config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// Ensure tables exist
	if err := store.EnsureTable(ctx); err != nil {
		return fmt.Errorf("ensure session storage: %w", err)
	}

	manager := session.NewManager(store,
		session.WithCookieName(cfg.Session.CookieName),
		session.WithSecureCookie(cfg.Session.CookieSecure),
	)
	go manager.RunGC(ctx, cfg.Session.GCInterval.Std())

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           logger.Middleware(api.New(manager)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Signal handling
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("server: shutting down")
		cancel()

		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server: shutdown")
		}
	}()

	log.Info().
		Str("addr", cfg.Addr).
		Str("backend", cfg.Session.Backend).
		Dur("ttl", cfg.Session.TTL.Std()).
		Msg("taskpad listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	log.Info().Msg("server: stopped")
	return nil
}

// openStore builds the configured session backend and a func that releases it.
func openStore(ctx context.Context, cfg config.Config) (session.Store, func(), error) {
	ttl := cfg.Session.TTL.Std()
	switch cfg.Session.Backend {
	case config.BackendFile:
		return session.NewFileStore(cfg.Session.Dir, ttl), func() {}, nil

	case config.BackendPostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect: %w", err)
		}
		return session.NewPgStore(pool, ttl), pool.Close, nil

	case config.BackendMySQL:
		conn, err := db.OpenMySQL(ctx, cfg.MySQLDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect: %w", err)
		}
		return session.NewMySQLStore(conn, ttl), func() { _ = conn.Close() }, nil

	default:
		return session.NewMemoryStore(ttl), func() {}, nil
	}
}
