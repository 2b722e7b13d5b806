// Command centinela submits a URL to the Analysis Service and prints the
// outcome, or serves the session API for a frontend.
//
// Usage:
//
//	centinela -url https://example.com [-base http://localhost:8000] [-json]
//	centinela -serve [-config centinela.yaml]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raysh454/centinela/internal/analyzer"
	"github.com/raysh454/centinela/internal/app"
	"github.com/raysh454/centinela/internal/cli"
	"github.com/raysh454/centinela/internal/logging"
	"github.com/raysh454/centinela/internal/model"
	"github.com/raysh454/centinela/internal/server"
	"github.com/raysh454/centinela/internal/webclient"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cliArgs, err := cli.ParseArgs(args)
	if err != nil {
		fmt.Fprintf(stderr, "centinela: %v\n", err)
		fmt.Fprintln(stderr, "usage: centinela -url <url> | -serve [-config file] [-base url] [-log-level level] [-json]")
		return 2
	}

	cfgPath := cliArgs.ConfigPath
	if cfgPath == "" {
		cfgPath = app.ConfigPath()
	}
	cfg, err := app.LoadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(stderr, "centinela: %v\n", err)
		return 1
	}
	if cliArgs.BaseURL != "" {
		cfg.APIBaseURL = cliArgs.BaseURL
	}
	if cliArgs.LogLevel != "" {
		cfg.LogLevel = cliArgs.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "centinela: %v\n", err)
		return 1
	}

	level, _ := logging.ParseLevel(cfg.LogLevel)
	logger := logging.NewStdoutLogger("centinela").SetLevel(level).SetOutput(stderr)

	wc, err := webclient.NewWebClient(cfg.WebClientCfg, logger)
	if err != nil {
		logger.Error("creating webclient", logging.Field{Key: "error", Value: err.Error()})
		return 1
	}
	an, err := analyzer.NewHTTPAnalyzer(cfg.APIBaseURL, wc, logger)
	if err != nil {
		_ = wc.Close()
		logger.Error("creating analyzer", logging.Field{Key: "error", Value: err.Error()})
		return 1
	}
	application, err := app.NewApplication(cfg, cliArgs, logger, an)
	if err != nil {
		_ = an.Close()
		logger.Error("creating application", logging.Field{Key: "error", Value: err.Error()})
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cliArgs.Serve {
		return serve(ctx, application, logger)
	}
	return analyzeOnce(ctx, application, cliArgs, stdout)
}

func analyzeOnce(ctx context.Context, application *app.Application, args *cli.CLIArgs, stdout io.Writer) int {
	st, _ := application.Orch.Submit(ctx, args.URL)
	_ = application.Shutdown(context.Background())

	render := cli.Render
	if args.JSON {
		render = cli.RenderJSON
	}
	if err := render(stdout, st); err != nil {
		return 1
	}
	if st.Phase != model.PhaseSuccess {
		return 1
	}
	return 0
}

func serve(ctx context.Context, application *app.Application, logger logging.Logger) int {
	srv, err := server.NewServer(server.Config{ListenAddr: application.Config.ListenAddr, Logger: logger}, application)
	if err != nil {
		logger.Error("creating server", logging.Field{Key: "error", Value: err.Error()})
		return 1
	}
	if err := application.Start(); err != nil {
		logger.Error("starting application", logging.Field{Key: "error", Value: err.Error()})
		return 1
	}

	httpSrv := srv.HTTPServer()
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", logging.Field{Key: "addr", Value: httpSrv.Addr})
		errCh <- httpSrv.ListenAndServe()
	}()

	code := 0
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", logging.Field{Key: "error", Value: err.Error()})
			code = 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	_ = application.Shutdown(shutdownCtx)
	return code
}
