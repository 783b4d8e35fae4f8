package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophstudy/internal/flagx"
	"github.com/dmitrijs2005/gophstudy/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer and
// zero-valued fields mean "not set" and leave the current value alone.
type JsonConfig struct {
	ServerURL       string          `json:"server_url"`
	UserID          string          `json:"user_id"`
	TimerDuration   *timex.Duration `json:"timer_duration"`
	TickInterval    *timex.Duration `json:"tick_interval"`
	RequestTimeout  *timex.Duration `json:"request_timeout"`
	FirstFetchDelay *timex.Duration `json:"first_fetch_delay"`
	RetryDelay      *timex.Duration `json:"retry_delay"`
	DatabaseDSN     string          `json:"database_dsn"`
	LogFile         string          `json:"log_file"`
	LogLevel        string          `json:"log_level"`
	InitialDeck     string          `json:"initial_deck"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c/-config. Without either flag it does nothing. Read or decode errors
// panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.ServerURL, jc.ServerURL)
	setString(&cfg.UserID, jc.UserID)
	setString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setString(&cfg.LogFile, jc.LogFile)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.InitialDeck, jc.InitialDeck)

	if jc.TimerDuration != nil {
		cfg.TimerDuration = jc.TimerDuration.Duration
	}
	if jc.TickInterval != nil {
		cfg.TickInterval = jc.TickInterval.Duration
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.FirstFetchDelay != nil {
		cfg.FirstFetchDelay = jc.FirstFetchDelay.Duration
	}
	if jc.RetryDelay != nil {
		cfg.RetryDelay = jc.RetryDelay.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
