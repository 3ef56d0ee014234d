package sweep

import (
	"flag"
	"testing"
	"time"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("sweep", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Interval != time.Minute {
		t.Fatalf("expected default interval 1m, got %v", cfg.Interval)
	}
	if cfg.Once {
		t.Fatal("expected looping mode by default")
	}
}

func TestParseConfigOverrides(t *testing.T) {
	fs := flag.NewFlagSet("sweep", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-interval", "30s", "-once", "-db", "/tmp/game.db"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Interval != 30*time.Second {
		t.Fatalf("expected interval 30s, got %v", cfg.Interval)
	}
	if !cfg.Once {
		t.Fatal("expected single pass mode")
	}
	if cfg.DBPath != "/tmp/game.db" {
		t.Fatalf("expected db override, got %q", cfg.DBPath)
	}
}
