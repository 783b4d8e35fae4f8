// Package config loads runtime configuration for the gophstudy CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-s string   base URL of the scheduling service
//	-u string   user identifier sent with every study request
//	-t int      review countdown length (seconds)
//	-d string   deck to open on startup
//	-db string  local SQLite database path
//	-log string log file; logging is discarded when empty
//	-v string   log level (debug, info, warn, error)
//
// # JSON schema
//
// Durations use timex.Duration, so values can be either strings like "60s"
// or integer nanoseconds:
//
//	{
//	  "server_url": "http://127.0.0.1:5002",
//	  "user_id": "default",
//	  "timer_duration": "60s",
//	  "tick_interval": "1s",
//	  "request_timeout": "10s",
//	  "first_fetch_delay": "500ms",
//	  "retry_delay": "1s",
//	  "database_dsn": "study.db",
//	  "log_file": "gophstudy.log",
//	  "log_level": "debug",
//	  "initial_deck": "Spanish"
//	}
//
// Validate rejects a configuration the client cannot run with.
package config
