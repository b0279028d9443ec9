package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"reelforge/config"
	"reelforge/container"
	"reelforge/use_cases"
)

func main() {
	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	resumeDir := flag.String("resume", "", "existing run directory to pick up where it left off")
	contextFile := flag.String("context-file", "", "file with extra production context for video prompts")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <query>\n\n", os.Args[0])
		fmt.Fprintln(flag.CommandLine.Output(), "Turns a topic query into narrated short-form video clips.")
		fmt.Fprintln(flag.CommandLine.Output(), "With -resume the query may be omitted; the cached script is reused.")
		fmt.Fprintln(flag.CommandLine.Output())
		flag.PrintDefaults()
	}
	flag.Parse()

	query := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if query == "" && *resumeDir == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger.Info("Starting video pipeline")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("Configuration loaded",
		"cache_dir", cfg.Pipeline.CacheDir,
		"gemini_model", cfg.Gemini.Model,
		"voice_concurrency", cfg.Pipeline.VoiceConcurrency,
		"video_concurrency", cfg.Pipeline.VideoConcurrency,
	)

	var extraContext string
	if *contextFile != "" {
		data, err := os.ReadFile(*contextFile)
		if err != nil {
			logger.Error("Failed to read context file", "path", *contextFile, "error", err)
			os.Exit(1)
		}
		extraContext = strings.TrimSpace(string(data))
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("Received shutdown signal", "signal", sig)
		cancel()
	}()

	// Create container
	c, err := container.NewContainer(ctx, cfg)
	if err != nil {
		logger.Error("Failed to create container", "error", err)
		os.Exit(1)
	}
	defer c.Stop()

	result, err := c.PipelineHandler.Run(ctx, use_cases.Request{
		Query:     query,
		Context:   extraContext,
		ResumeDir: *resumeDir,
	})
	if err != nil {
		var partial *use_cases.PartialStageError
		if errors.As(err, &partial) {
			logRunIncomplete(logger, partial)
			fmt.Fprintf(os.Stderr, "%s\n", partial.Error())
			os.Exit(1)
		}
		logger.Error("Pipeline failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Pipeline complete",
		"run_id", result.Run.ID,
		"run_dir", result.Run.Dir,
		"chunks", len(result.Chunks),
		"videos", len(result.Videos),
	)
	fmt.Println(result.Run.Dir)
}

// logRunIncomplete reports a stage that finished with items still missing.
// The run directory is included so the operator can resume it directly.
func logRunIncomplete(logger *slog.Logger, partial *use_cases.PartialStageError) {
	logger.Error("Run incomplete",
		"stage", partial.Stage,
		"missing", partial.Missing,
		"total", partial.Total,
		"run_dir", partial.RunDir,
	)
}
