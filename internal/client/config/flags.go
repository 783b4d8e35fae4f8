package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/gophstudy/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
// os.Args is filtered with flagx.FilterArgs first so flags owned by other
// components (such as -c) do not break parsing. Parse errors panic.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-s", "-u", "-t", "-d", "-deck", "-db", "-log", "-v"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "s", cfg.ServerURL, "scheduling service base URL")
	fs.StringVar(&cfg.UserID, "u", cfg.UserID, "user identifier")
	timer := fs.Int("t", int(cfg.TimerDuration.Seconds()), "review countdown (in seconds)")
	fs.StringVar(&cfg.InitialDeck, "d", cfg.InitialDeck, "deck to open on startup")
	fs.StringVar(&cfg.InitialDeck, "deck", cfg.InitialDeck, "deck to open on startup (same as -d)")
	fs.StringVar(&cfg.DatabaseDSN, "db", cfg.DatabaseDSN, "local database path")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "log file path")
	fs.StringVar(&cfg.LogLevel, "v", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.TimerDuration = time.Duration(*timer) * time.Second
}
