package demoserver

import (
	"time"

	"github.com/raysh454/centinela/internal/webclient"
)

// Config holds configuration for the demo analysis service.
type Config struct {
	// ListenAddr is where the service listens (default ":8000").
	ListenAddr string `yaml:"listen_addr"`

	// DBPath is the SQLite file for stored analyses; ":memory:" is allowed.
	DBPath string `yaml:"db_path"`

	// FetchCfg configures the webclient used to download analyzed pages.
	FetchCfg webclient.Config `yaml:"fetch"`

	// SummaryMaxRunes truncates extracted summaries.
	SummaryMaxRunes int `yaml:"summary_max_runes"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ListenAddr: ":8000",
		DBPath:     "centinela-demo.db",
		FetchCfg: webclient.Config{
			Client:    webclient.ClientNetHTTP,
			Timeout:   15 * time.Second,
			UserAgent: "Mozilla/5.0 (compatible; Centinela/1.0)",
		},
		SummaryMaxRunes: 800,
	}
}
