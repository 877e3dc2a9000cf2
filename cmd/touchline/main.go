// Command touchline runs a football management season behind an HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/talgya/touchline/internal/api"
	"github.com/talgya/touchline/internal/config"
	"github.com/talgya/touchline/internal/engine"
	"github.com/talgya/touchline/internal/entropy"
	"github.com/talgya/touchline/internal/feed"
	"github.com/talgya/touchline/internal/league"
	"github.com/talgya/touchline/internal/persistence"
	"github.com/talgya/touchline/internal/scout"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: built-in defaults and TOUCHLINE_* env)")
	weeks := flag.Int("weeks", 0, "advance this many weeks automatically, then keep serving")
	interval := flag.Duration("interval", 2*time.Second, "pause between automatic weeks")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg.Logging))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Database ──────────────────────────────────────────────────────
	db, err := openDB(cfg.Storage)
	if err != nil {
		slog.Error("failed to open database", "path", cfg.Storage.Path, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.Storage.Path)

	// ── Load or Generate League ──────────────────────────────────────
	state, err := loadOrCreate(ctx, db, cfg.Game)
	if err != nil {
		slog.Error("failed to load league", "error", err)
		os.Exit(1)
	}

	// ── Entropy ──────────────────────────────────────────────────────
	// Resumed games continue on a fresh stream derived from the seed and
	// the week they resume at.
	rng := entropy.New(state.Seed+int64(state.Season*1000+state.Week), cfg.Entropy.RandomOrgKey)
	if c, ok := rng.(*entropy.Client); ok && c.Enabled() {
		slog.Info("random.org entropy enabled")
	}

	// ── Feed ─────────────────────────────────────────────────────────
	memory := feed.NewMemory(cfg.Feed.Retain)
	publishers := feed.Multi{memory}
	if cfg.Feed.Enabled {
		nc, err := feed.NewNATS(cfg.Feed.NATSURL, cfg.Feed.Subject)
		if err != nil {
			slog.Warn("NATS feed unavailable, continuing without it", "url", cfg.Feed.NATSURL, "error", err)
		} else {
			defer nc.Close()
			publishers = append(publishers, nc)
			slog.Info("NATS feed enabled", "url", cfg.Feed.NATSURL, "subject", cfg.Feed.Subject)
		}
	}

	// ── Session ──────────────────────────────────────────────────────
	eng := engine.New(cfg.Finance.Ledger(), rng, state.Seed)
	session := engine.NewSession(eng, state, db, publishers)
	sessionDone := make(chan struct{})
	go func() {
		session.Run(ctx)
		close(sessionDone)
	}()

	// ── Scouting ─────────────────────────────────────────────────────
	var scouting scout.Service
	if c := scout.NewClient(cfg.Scout.APIKey, cfg.Scout.Model, cfg.Scout.Timeout, cfg.Scout.MaxPerMinute); c != nil {
		scouting = c
		slog.Info("scouting service enabled", "model", cfg.Scout.Model)
	} else {
		slog.Warn("scout.api_key not set, scouting reports will use the placeholder")
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.API.AdminKey == "" {
		slog.Warn("api.admin_key not set, POST endpoints are open to anyone who can reach the port")
	}
	apiServer := &api.Server{
		Session:        session,
		Scout:          scouting,
		DB:             db,
		Feed:           memory,
		Port:           cfg.API.Port,
		AdminKey:       cfg.API.AdminKey,
		ScoutPerMinute: cfg.Scout.MaxPerMinute,
		LiveTick:       200 * time.Millisecond,
	}
	srv := apiServer.Start()

	fmt.Printf("\n%s are ready for season %d, week %d.\n", state.UserClub().Name, state.Season, state.Week)
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.API.Port)

	// ── Autoplay ─────────────────────────────────────────────────────
	if *weeks > 0 {
		played, err := engine.Autoplay(ctx, session, *weeks, *interval)
		if err != nil {
			slog.Error("autoplay stopped", "weeks", played, "error", err)
		}
	}

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown", "error", err)
	}
	<-sessionDone

	// Final save on shutdown.
	final := session.Snapshot()
	if err := db.SaveState(shutdownCtx, final); err != nil {
		slog.Error("final save failed", "error", err)
	}
	fmt.Printf("Stopped at season %d, week %d. League saved.\n", final.Season, final.Week)
}

// openDB opens the store, creating its directory first.
func openDB(cfg config.StorageConfig) (*persistence.DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	db, err := persistence.Open(cfg.Path)
	if err != nil {
		return nil, err
	}
	db.SetKeep(cfg.KeepSnapshots)
	return db, nil
}

// loadOrCreate resumes the latest snapshot, or generates and saves a new
// league when there is none. A snapshot that fails validation is refused.
func loadOrCreate(ctx context.Context, db *persistence.DB, game config.GameConfig) (*league.State, error) {
	saved, err := db.HasState(ctx)
	if err != nil {
		return nil, fmt.Errorf("check for saved state: %w", err)
	}
	if saved {
		state, err := db.LoadLatest(ctx)
		if err != nil {
			return nil, err
		}
		if err := state.Validate(); err != nil {
			return nil, fmt.Errorf("saved league is corrupt: %w", err)
		}
		if stored, err := db.GetMeta(ctx, "seed"); err == nil && game.Seed != 0 && stored != strconv.FormatInt(game.Seed, 10) {
			slog.Warn("game.seed ignored, resuming the saved game", "config_seed", game.Seed, "saved_seed", stored)
		}
		slog.Info("league state restored",
			"season", state.Season,
			"week", state.Week,
			"club", state.UserClub().Name,
			"seed", state.Seed,
		)
		return state, nil
	}

	seed := game.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	slog.Info("no saved state found, generating new league...", "seed", seed)
	state, err := league.New(game.Setup(seed), entropy.NewSeeded(seed))
	if err != nil {
		return nil, fmt.Errorf("create league: %w", err)
	}
	if err := db.SaveState(ctx, state); err != nil {
		slog.Error("initial save failed", "error", err)
	}
	return state, nil
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
