package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the full server configuration loaded at boot.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Loop    LoopConfig    `toml:"loop"`
	World   WorldConfig   `toml:"world"`
	Logging LoggingConfig `toml:"logging"`
}

type ServerConfig struct {
	BindAddress  string        `toml:"bind_address"`
	WriteTimeout time.Duration `toml:"write_timeout"`
}

// LoopConfig tunes the per-room scheduling cadences.
type LoopConfig struct {
	TickRate          int           `toml:"tick_rate"`           // simulation ticks per second
	BroadcastRate     int           `toml:"broadcast_rate"`      // player-state broadcasts per second
	LowPriorityRate   int           `toml:"low_priority_rate"`   // timer/ambient broadcasts per second
	FullSnapshotEvery int           `toml:"full_snapshot_every"` // every Nth broadcast is a full snapshot
	EnemyRefresh      time.Duration `toml:"enemy_refresh"`       // unfiltered enemy rebroadcast interval
}

type WorldConfig struct {
	HalfExtent     float64 `toml:"half_extent"`      // world boundary half size
	InterestRadius float64 `toml:"interest_radius"`  // enemy interest-filter radius
	ObstacleCount  int     `toml:"obstacle_count"`
	TierFile       string  `toml:"tier_file"`        // optional YAML spawn-tier override
	EnemyStatsFile string  `toml:"enemy_stats_file"` // optional YAML enemy-stat override
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			BindAddress:  ":8080",
			WriteTimeout: 10 * time.Second,
		},
		Loop: LoopConfig{
			TickRate:          60,
			BroadcastRate:     30,
			LowPriorityRate:   10,
			FullSnapshotEvery: 10,
			EnemyRefresh:      2 * time.Second,
		},
		World: WorldConfig{
			HalfExtent:     8000,
			InterestRadius: 5500,
			ObstacleCount:  24,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a TOML config file, applying defaults for absent keys.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects rates that would break the scheduler.
func (c *Config) Validate() error {
	if c.Loop.TickRate <= 0 {
		return fmt.Errorf("loop.tick_rate must be positive, got %d", c.Loop.TickRate)
	}
	if c.Loop.BroadcastRate <= 0 {
		return fmt.Errorf("loop.broadcast_rate must be positive, got %d", c.Loop.BroadcastRate)
	}
	if c.Loop.LowPriorityRate <= 0 {
		return fmt.Errorf("loop.low_priority_rate must be positive, got %d", c.Loop.LowPriorityRate)
	}
	if c.Loop.FullSnapshotEvery <= 0 {
		return fmt.Errorf("loop.full_snapshot_every must be positive, got %d", c.Loop.FullSnapshotEvery)
	}
	if c.Loop.EnemyRefresh <= 0 {
		return fmt.Errorf("loop.enemy_refresh must be positive, got %s", c.Loop.EnemyRefresh)
	}
	if c.World.HalfExtent <= 0 {
		return fmt.Errorf("world.half_extent must be positive, got %f", c.World.HalfExtent)
	}
	return nil
}
