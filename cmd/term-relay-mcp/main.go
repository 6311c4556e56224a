// term-relay-mcp is an MCP server bridging an AI coding assistant to a
// remote terminal session, a knowledge store, and a logging relay.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/acolita/term-relay-mcp/internal/config"
	"github.com/acolita/term-relay-mcp/internal/logging"
	"github.com/acolita/term-relay-mcp/internal/mcp"
)

// Version information - set at build time.
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	var (
		configPath  string
		runInit     bool
		showVersion bool
		debug       bool
	)

	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.BoolVar(&runInit, "init", false, "Run the interactive setup wizard and exit")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.Parse()

	if showVersion {
		fmt.Printf("term-relay-mcp version %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		os.Exit(0)
	}

	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}

	if runInit {
		if err := config.RunSetupWizard(configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Setup failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Configuration written to %s\n", configPath)
		os.Exit(0)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if debug {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Sanitize)

	slog.Info("starting term-relay-mcp",
		slog.String("version", Version),
		slog.String("terminal_endpoint", cfg.Terminal.Endpoint),
	)

	server := mcp.NewServer(cfg)

	// Config hot-reload when a config file is in play.
	var configWatcher *config.Watcher
	if configPath != "" {
		var watcherErr error
		configWatcher, watcherErr = config.NewWatcher(configPath, func(newCfg *config.Config) {
			if debug {
				newCfg.Logging.Level = "debug"
			}
			server.UpdateConfig(newCfg)
		})
		if watcherErr != nil {
			slog.Warn("config hot-reload disabled",
				slog.String("error", watcherErr.Error()),
			)
		} else {
			slog.Info("config hot-reload enabled",
				slog.String("path", configPath),
			)
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("received shutdown signal")
		if configWatcher != nil {
			configWatcher.Close()
		}
		server.Close()
		os.Exit(0)
	}()

	if err := server.Run(); err != nil {
		slog.Error("server error", slog.String("error", err.Error()))
		if configWatcher != nil {
			configWatcher.Close()
		}
		os.Exit(1)
	}
}
