// Command demoserver runs a local Analysis Service implementing POST /analyze
// and GET /health, for developing against centinela without the real backend.
//
// Usage: go run ./cmd/demoserver [-config centinela.yaml] [-addr :8000] [-db file]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raysh454/centinela/internal/app"
	"github.com/raysh454/centinela/internal/demoserver"
	"github.com/raysh454/centinela/internal/logging"
	"github.com/raysh454/centinela/internal/webclient"
)

func main() {
	fs := flag.NewFlagSet("demoserver", flag.ExitOnError)
	var (
		configPath = fs.String("config", app.ConfigPath(), "Path to a YAML config file")
		addr       = fs.String("addr", "", "Listen address (overrides config)")
		dbPath     = fs.String("db", "", "SQLite database path (overrides config)")
	)
	_ = fs.Parse(os.Args[1:])

	appCfg, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "demoserver: %v\n", err)
		os.Exit(1)
	}
	cfg := appCfg.DemoCfg
	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	level, _ := logging.ParseLevel(appCfg.LogLevel)
	logger := logging.NewStdoutLogger("demoserver").SetLevel(level)

	fetcher, err := webclient.NewWebClient(cfg.FetchCfg, logger)
	if err != nil {
		logger.Error("creating webclient", logging.Field{Key: "error", Value: err.Error()})
		os.Exit(1)
	}
	store, err := demoserver.OpenStore(cfg.DBPath, logger)
	if err != nil {
		logger.Error("opening store", logging.Field{Key: "error", Value: err.Error()})
		os.Exit(1)
	}
	srv, err := demoserver.NewDemoServer(cfg, fetcher, store, logger)
	if err != nil {
		logger.Error("creating demo server", logging.Field{Key: "error", Value: err.Error()})
		os.Exit(1)
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpSrv := srv.HTTPServer()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	logger.Info("demo analysis service listening",
		logging.Field{Key: "addr", Value: cfg.ListenAddr},
		logging.Field{Key: "db", Value: cfg.DBPath},
		logging.Field{Key: "fetch_backend", Value: string(cfg.FetchCfg.Client)})
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", logging.Field{Key: "error", Value: err.Error()})
		os.Exit(1)
	}
}
