package cli

import (
	"errors"
	"flag"
	"io"
)

// CLIArgs are the command-line arguments for a single analysis or a serve run.
type CLIArgs struct {
	// URL is the raw input to analyze. It is passed through untrimmed;
	// validation belongs to the orchestrator, so `-url ""` still submits.
	URL string

	// Serve starts the presentation API instead of a one-shot analysis.
	Serve bool

	// ConfigPath is an optional YAML config file; "" means use the environment.
	ConfigPath string

	// BaseURL overrides the configured Analysis Service address.
	BaseURL string

	// LogLevel overrides the configured log level.
	LogLevel string

	// JSON prints the final session state as JSON instead of text.
	JSON bool

	// RawArgs is the original args slice (useful for debugging/tests).
	RawArgs []string
}

var ErrNoMode = errors.New("one of -url or -serve is required")

// ParseArgs parses a slice of args and returns CLIArgs. Use in tests by passing
// arbitrary slices. The function is deterministic and does not read os.Args.
func ParseArgs(args []string) (*CLIArgs, error) {
	fs := flag.NewFlagSet("centinela", flag.ContinueOnError)
	var (
		rawURL     = fs.String("url", "", "URL to analyze once and print the result")
		serve      = fs.Bool("serve", false, "Serve the session API instead of a one-shot analysis")
		configPath = fs.String("config", "", "Path to a YAML config file")
		base       = fs.String("base", "", "Analysis Service base URL (overrides config)")
		logLevel   = fs.String("log-level", "", "Log level: debug|info|warn|error (overrides config)")
		asJSON     = fs.Bool("json", false, "Print the final session state as JSON")
	)

	// Ensure Parse doesn't write to stdout/stderr in tests
	fs.SetOutput(io.Discard)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	urlSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "url" {
			urlSet = true
		}
	})

	if !urlSet && !*serve {
		return nil, ErrNoMode
	}
	if urlSet && *serve {
		return nil, errors.New("-url and -serve are mutually exclusive")
	}

	return &CLIArgs{
		URL:        *rawURL,
		Serve:      *serve,
		ConfigPath: *configPath,
		BaseURL:    *base,
		LogLevel:   *logLevel,
		JSON:       *asJSON,
		RawArgs:    args,
	}, nil
}
