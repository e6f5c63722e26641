// Package main wires and runs the exporter binary.
// It owns configuration parsing, logging setup, and the HTTP server with timeouts.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Showmax/patroni-exporter/internal/collector"
	"github.com/Showmax/patroni-exporter/internal/config"
	"github.com/Showmax/patroni-exporter/internal/logger"
	"github.com/Showmax/patroni-exporter/internal/patroni"
	"github.com/Showmax/patroni-exporter/internal/server"
)

// Operability constants.
const (
	httpShutdownTimeout = 10 * time.Second

	readHeaderTimeout = 5 * time.Second
	readTimeout       = 10 * time.Second
	writeTimeout      = 15 * time.Second
	idleTimeout       = 60 * time.Second
)

// main parses configuration, wires the Patroni client and collectors, and
// serves /metrics and /health until terminated.
func main() {
	os.Exit(run(os.Args[1:]))
}

// run contains the full program logic and returns an exit code.
// Defers inside run() (cancel, listener close) will execute.
func run(args []string) int {
	cfg, configErr := config.Parse(args)
	if configErr != nil {
		if errors.Is(configErr, config.ErrHelp) {
			return 0
		}

		_, _ = fmt.Fprintln(os.Stderr, configErr)

		return 1
	}

	logger.Configure(cfg.LogFormat, cfg.Debug)
	loggerInstance := logger.L()

	loggerInstance.Info("patroni-exporter starting",
		"version", version,
		"commit", commit,
		"date", date,
		"patroni_url", cfg.URL.String(),
		"listen", cfg.ListenAddr(),
	)

	// Exporter self-metrics (including build info).
	collector.ConfigureBuildInfo(version, commit, date)
	collector.ConfigureExporterOpsMetrics()

	patroniClient, clientErr := patroni.NewClient(cfg)
	if clientErr != nil {
		loggerInstance.Error("patroni client init failed", "err", clientErr)

		return 1
	}

	// Binding happens up front so configuration problems (bad interface,
	// port in use, wrong address family) fail the process before serving.
	listener, listenErr := net.Listen(cfg.Network, cfg.ListenAddr())
	if listenErr != nil {
		loggerInstance.Error("bind failed", "err", listenErr, "network", cfg.Network)

		return 1
	}

	// Root context canceled on SIGINT/SIGTERM.
	rootContext, cancelRoot := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer cancelRoot()

	httpMux := server.NewMux(patroniClient)

	runError := serveHTTP(rootContext, listener, httpMux)
	if runError != nil && !errors.Is(runError, http.ErrServerClosed) &&
		!errors.Is(runError, context.Canceled) {
		loggerInstance.Error("http server error", "err", runError)

		return 1
	}

	return 0
}

// serveHTTP serves the mux on the given listener with sane timeouts and shuts
// down gracefully when the context is canceled.
func serveHTTP(parentContext context.Context, listener net.Listener, handler http.Handler) error {
	httpServer := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	errorChannel := make(chan error, 1)

	go func() {
		errorChannel <- httpServer.Serve(listener)
	}()

	var resultError error

	select {
	case resultError = <-errorChannel:
		// fallthrough to shutdown path
	case <-parentContext.Done():
		// context canceled: proceed to shutdown
	}

	// Graceful HTTP shutdown.
	shutdownContext, shutdownCancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer shutdownCancel()

	shutdownErr := httpServer.Shutdown(shutdownContext)
	if shutdownErr != nil {
		logger.L().Warn("HTTP server shutdown", "err", shutdownErr)
	}

	return resultError
}
