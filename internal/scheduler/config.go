package scheduler

import (
	"time"

	appconfig "github.com/smallbiznis/duebook/internal/config"
	horizondomain "github.com/smallbiznis/duebook/internal/horizon/domain"
)

// Config controls scheduler intervals and the horizon window.
type Config struct {
	RunInterval   time.Duration
	LookaheadDays int
}

func DefaultConfig() Config {
	return Config{
		RunInterval:   time.Minute,
		LookaheadDays: horizondomain.DefaultLookaheadDays,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.LookaheadDays <= 0 {
		c.LookaheadDays = defaults.LookaheadDays
	}
	return c
}

// ProvideConfig maps application configuration onto the scheduler.
func ProvideConfig(cfg appconfig.Config) Config {
	return Config{
		RunInterval:   cfg.Scheduler.RunInterval,
		LookaheadDays: cfg.Scheduler.LookaheadDays,
	}
}
