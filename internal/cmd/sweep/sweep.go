// Package sweep parses sweep command flags and starts the resolution loop.
package sweep

import (
	"context"
	"flag"
	"time"

	entrypoint "geobattle/internal/platform/cmd"
	server "geobattle/internal/services/game/app"
)

// Config holds sweep command configuration.
type Config struct {
	DBPath   string        `env:"GEOBATTLE_SWEEP_DB_PATH"`
	Interval time.Duration `env:"GEOBATTLE_SWEEP_INTERVAL" envDefault:"1m"`
	Once     bool          `env:"GEOBATTLE_SWEEP_ONCE"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the sqlite database file")
	fs.DurationVar(&cfg.Interval, "interval", cfg.Interval, "Time between resolution passes")
	fs.BoolVar(&cfg.Once, "once", cfg.Once, "Run a single resolution pass and exit")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the sweep service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceSweep, func(context.Context) error {
		return server.RunSweeper(ctx, server.SweeperOptions{
			DBPath:   cfg.DBPath,
			Interval: cfg.Interval,
			Once:     cfg.Once,
		})
	})
}
