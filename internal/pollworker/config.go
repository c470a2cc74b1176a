package pollworker

import (
	"time"

	appconfig "github.com/costplane/costplane/internal/config"
)

// Config controls the poll loop cadence and fan-out.
type Config struct {
	Interval    time.Duration
	Concurrency int
	Timeout     time.Duration

	LockEnabled bool
	LockKey     string
	LockTTL     time.Duration
}

func DefaultConfig() Config {
	return Config{
		Interval:    15 * time.Minute,
		Concurrency: 4,
		Timeout:     5 * time.Minute,
		LockKey:     "costplane:pollworker:tick",
		LockTTL:     10 * time.Minute,
	}
}

// FromAppConfig maps the environment-driven application config onto the
// worker config.
func FromAppConfig(cfg appconfig.Config) Config {
	return Config{
		Interval:    cfg.PollInterval,
		Concurrency: cfg.PollConcurrency,
		Timeout:     cfg.PollTimeout,
		LockEnabled: cfg.PollLockEnabled,
		LockTTL:     cfg.PollLockTTL,
	}.withDefaults()
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.Interval <= 0 {
		c.Interval = defaults.Interval
	}
	if c.Concurrency <= 0 {
		c.Concurrency = defaults.Concurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = defaults.Timeout
	}
	if c.LockKey == "" {
		c.LockKey = defaults.LockKey
	}
	if c.LockTTL <= 0 {
		c.LockTTL = defaults.LockTTL
	}
	return c
}
