package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/dopd-io/dopd/internal/dataobject"
	"github.com/dopd-io/dopd/internal/logger"
	"github.com/dopd-io/dopd/internal/pidfile"
	"github.com/dopd-io/dopd/internal/server"
	"github.com/dopd-io/dopd/pkg/config"
	"github.com/dopd-io/dopd/pkg/store"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] <port>\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	configPath := flag.String("config", "", "Path to config file (default: "+config.GetDefaultConfigPath()+")")
	logLevel := flag.String("log-level", "", "Log level override (DEBUG, INFO, WARN, ERROR)")
	flag.Usage = usage
	flag.Parse()

	// Exactly one positional argument: the port to listen on.
	if flag.NArg() != 1 {
		usage()
		os.Exit(1)
	}

	port, err := strconv.Atoi(flag.Arg(0))
	if err != nil || port < 1 || port > 65535 {
		fmt.Fprintf(os.Stderr, "Invalid port %q: must be a number between 1 and 65535\n", flag.Arg(0))
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.Server.Port = port

	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	setupLogger(&cfg.Logging)

	fmt.Println("dopd - data object proxy daemon")
	logger.Info("Log level set to: %s", cfg.Logging.Level)

	// Take the PID file lock before anything else: a second daemon instance
	// must fail fast here.
	pidPath := cfg.PIDFile
	if pidPath == "" {
		pidPath = pidfile.DefaultPath("dopd")
	}
	pidFile, err := pidfile.Acquire(pidPath)
	if err != nil {
		if errors.Is(err, pidfile.ErrAlreadyRunning) {
			log.Fatalf("Another instance is already running (pid file %s)", pidPath)
		}
		log.Fatalf("Failed to acquire pid file %s: %v", pidPath, err)
	}
	defer pidFile.Close()
	logger.Info("PID file locked: %s [pid:%d]", pidPath, os.Getpid())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metrics components (no-ops when disabled).
	metricsResult := config.InitializeMetrics(cfg)
	if metricsResult.Server != nil {
		go func() {
			if err := metricsResult.Server.Start(ctx); err != nil {
				logger.Error("Metrics server error: %v", err)
			}
		}()
	}

	objectStore, err := config.CreateObjectStore(ctx, &cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to create object store: %v", err)
	}
	defer func() {
		if err := objectStore.Close(); err != nil {
			logger.Error("Failed to close object store: %v", err)
		}
	}()
	objectStore = store.Measured(objectStore, metricsResult.StoreMetrics)
	logger.Info("Object store ready: %s", cfg.Storage.Type)

	handler := dataobject.New(objectStore, logger.Default())
	srv := server.New(cfg.Server, handler, logger.Default(), metricsResult.ServerMetrics)

	if err := srv.Listen(); err != nil {
		var bindErr *server.BindError
		if errors.As(err, &bindErr) {
			log.Fatalf("Cannot bind port %d: %v", bindErr.Port, bindErr.Err)
		}
		log.Fatalf("Failed to listen: %v", err)
	}

	logger.Info("Server configuration:")
	logger.Info("  Port: %d", cfg.Server.Port)
	if cfg.Server.MaxConnections > 0 {
		logger.Info("  Max connections: %d", cfg.Server.MaxConnections)
	} else {
		logger.Info("  Max connections: unlimited")
	}
	logger.Info("  Read timeout: %v", cfg.Server.ReadTimeout)
	logger.Info("  Shutdown timeout: %v", cfg.Server.ShutdownTimeout)

	// Serve blocks until SIGTERM/SIGINT closes the listener and the workers
	// drain.
	if err := srv.Serve(ctx); err != nil {
		logger.Error("Server error: %v", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

// setupLogger builds the process logger from the logging configuration.
func setupLogger(cfg *config.LoggingConfig) {
	var out *os.File
	switch cfg.Output {
	case "", "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			log.Fatalf("Failed to open log output %s: %v", cfg.Output, err)
		}
		out = f
	}

	logger.SetDefault(logger.New(logger.ParseLevel(cfg.Level), cfg.Format, out))
}
