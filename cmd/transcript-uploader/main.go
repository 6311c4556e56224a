// transcript-uploader follows an assistant transcript log and uploads its
// lines to the knowledge store in batches.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/acolita/term-relay-mcp/internal/adapters/realclock"
	"github.com/acolita/term-relay-mcp/internal/adapters/realfs"
	"github.com/acolita/term-relay-mcp/internal/config"
	"github.com/acolita/term-relay-mcp/internal/knowledge"
	"github.com/acolita/term-relay-mcp/internal/logging"
	"github.com/acolita/term-relay-mcp/internal/tailer"
)

var Version = "0.1.0"

func main() {
	var (
		configPath  string
		file        string
		project     string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.StringVar(&file, "file", "", "Transcript file to follow, '-' for stdin (default: newest match of the configured glob)")
	flag.StringVar(&project, "project", "", "Project to record the session under (overrides config)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("transcript-uploader version %s\n", Version)
		os.Exit(0)
	}

	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if project == "" {
		project = cfg.Terminal.DefaultProject
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Sanitize)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("received shutdown signal, flushing")
		cancel()
	}()

	store := knowledge.NewClient(cfg.Knowledge.BaseURL)
	session, err := store.CreateSession(ctx, project)
	if err != nil {
		slog.Error("create session failed", "error", err)
		os.Exit(1)
	}
	slog.Info("session registered",
		slog.String("session_id", session.ID),
		slog.String("project", project),
	)

	batcher := tailer.NewBatcher(store, session.ID, cfg.Uploader.BatchSize)

	if file == "-" {
		if err := tailer.RunReader(ctx, os.Stdin, batcher); err != nil {
			slog.Error("stdin upload failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if file == "" {
		file, err = tailer.ResolveGlob(cfg.Uploader.Glob)
		if err != nil {
			slog.Error("no transcript to follow", "error", err)
			os.Exit(1)
		}
	}
	slog.Info("following transcript", slog.String("file", file))

	checkpoint := tailer.NewCheckpoint(realfs.New(), tailer.DefaultCheckpointPath())
	t := tailer.New(file, batcher, checkpoint, cfg.Uploader.Interval, realclock.New())
	if err := t.Run(ctx); err != nil {
		slog.Error("tailer stopped", "error", err)
		os.Exit(1)
	}
}
