package config

import (
	"time"

	"github.com/dmitrijs2005/gophstudy/internal/common"
)

// Config holds runtime settings for the gophstudy CLI.
//
// TimerDuration is the review countdown restarted on every card.
// FirstFetchDelay and RetryDelay parameterize the retry-once backoff applied
// to the first card fetch of a fresh session.
type Config struct {
	ServerURL       string        `validate:"required,url"`
	UserID          string        `validate:"required,max=100"`
	TimerDuration   time.Duration `validate:"gt=0"`
	TickInterval    time.Duration `validate:"gt=0"`
	RequestTimeout  time.Duration `validate:"gt=0"`
	FirstFetchDelay time.Duration `validate:"min=0"`
	RetryDelay      time.Duration `validate:"min=0"`
	DatabaseDSN     string        `validate:"required"`
	LogFile         string
	LogLevel        string `validate:"omitempty,oneof=debug info warn error DEBUG INFO WARN ERROR"`
	InitialDeck     string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:5002"
	c.UserID = common.DefaultUserID
	c.TimerDuration = 60 * time.Second
	c.TickInterval = time.Second
	c.RequestTimeout = 10 * time.Second
	c.FirstFetchDelay = 500 * time.Millisecond
	c.RetryDelay = time.Second
	c.DatabaseDSN = "study.db"
	c.LogLevel = "info"
}

// Validate reports the first setting that makes the configuration unusable.
func (c *Config) Validate() error {
	return common.Validate(c)
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
