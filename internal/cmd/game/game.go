// Package game parses game command flags and starts the engine runtime.
package game

import (
	"context"
	"flag"
	"fmt"
	"time"

	entrypoint "geobattle/internal/platform/cmd"
	server "geobattle/internal/services/game/app"
)

// Config holds game command configuration.
type Config struct {
	Port   int    `env:"GEOBATTLE_GAME_PORT" envDefault:"8080"`
	Addr   string `env:"GEOBATTLE_GAME_ADDR"`
	DBPath string `env:"GEOBATTLE_GAME_DB_PATH"`
	// MembershipCap limits concurrent game memberships per player.
	MembershipCap int `env:"GEOBATTLE_GAME_MEMBERSHIP_CAP"`
	// OverrideCancelsAttack controls whether a creator ownership
	// override cancels a pending attack on the territory.
	OverrideCancelsAttack bool `env:"GEOBATTLE_GAME_OVERRIDE_CANCELS_ATTACK"`
	// SweepInterval paces the in-process resolution loop.
	SweepInterval time.Duration `env:"GEOBATTLE_GAME_SWEEP_INTERVAL" envDefault:"1m"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The game server port")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The game server listen address (overrides -port)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the sqlite database file")
	fs.DurationVar(&cfg.SweepInterval, "sweep-interval", cfg.SweepInterval, "Interval between resolution sweeps")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ListenAddr resolves the effective listen address.
func (c Config) ListenAddr() string {
	if c.Addr != "" {
		return c.Addr
	}
	return fmt.Sprintf(":%d", c.Port)
}

// Run starts the game HTTP API service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceGame, func(context.Context) error {
		return server.Run(ctx, server.Options{
			Addr:                  cfg.ListenAddr(),
			DBPath:                cfg.DBPath,
			MembershipCap:         cfg.MembershipCap,
			OverrideCancelsAttack: cfg.OverrideCancelsAttack,
			SweepInterval:         cfg.SweepInterval,
		})
	})
}
