package server

import (
	"context"
	"log"
	"time"

	"geobattle/internal/services/game/engine"
)

// defaultSweepInterval paces resolution passes when none is configured.
const defaultSweepInterval = time.Minute

// SweeperOptions defines the inputs for the sweep process.
type SweeperOptions struct {
	DBPath   string
	Interval time.Duration
	// Once runs a single pass and exits instead of looping.
	Once bool
}

// RunSweeper resolves expired attacks, refills stale ledgers, and purges
// spent cooldowns on a fixed interval until the context ends.
func RunSweeper(ctx context.Context, opts SweeperOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := openGameStore(opts.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Printf("close game store: %v", closeErr)
		}
	}()

	svc, err := engine.New(engine.Config{Store: store})
	if err != nil {
		return err
	}

	if opts.Once {
		return sweepOnce(ctx, svc)
	}

	interval := opts.Interval
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	log.Printf("sweeper running every %v", interval)
	sweepLoop(ctx, svc, interval)
	return nil
}

// sweepLoop runs resolution passes until the context ends, starting with
// an immediate pass so a fresh process drains any backlog right away.
func sweepLoop(ctx context.Context, svc *engine.Service, interval time.Duration) {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := sweepOnce(ctx, svc); err != nil {
			if ctx.Err() != nil {
				return
			}
			// Keep sweeping; the next pass retries the same backlog.
			log.Printf("sweep pass: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func sweepOnce(ctx context.Context, svc *engine.Service) error {
	result, err := svc.Sweep(ctx)
	if err != nil {
		return err
	}
	if result.AttacksCaptured > 0 || result.LedgersReset > 0 || result.CooldownsPurged > 0 {
		log.Printf("sweep captured=%d ledgers_reset=%d cooldowns_purged=%d",
			result.AttacksCaptured, result.LedgersReset, result.CooldownsPurged)
	}
	return nil
}
