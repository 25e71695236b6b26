package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	configFile  string
	postsCount  int
	debugMode   bool
	stopOnError bool
)

var rootCmd = &cobra.Command{
	Use:   "seo-writer",
	Short: "Generates SEO blog posts with an LLM and publishes them to WordPress",
	Long: `Reads a keyword list, asks the language model for a content plan and a
full article per keyword, tops up keyword density, appends the
call-to-action block, and creates the post through the WordPress REST API.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := setupLogger(debugMode)

		cfg, err := LoadConfig(configFile)
		if err != nil {
			return err
		}

		if postsCount > 0 {
			cfg.Content.PostsPerRun = postsCount
		}

		llm := NewOpenAIClient(cfg.OpenAI, logger)
		generator := NewContentGenerator(llm, cfg, logger)
		publisher := NewWordPressClient(cfg.WordPress, logger)
		fetcher := NewContextFetcher(cfg.WordPress.Timeout, logger)

		var images *ImageGenerator
		if cfg.Images.Enabled {
			images = NewImageGenerator(cfg.OpenAI, cfg.Images, logger)
		}

		runner := NewRunner(cfg, generator, publisher, fetcher, images, logger)
		runner.SetStopOnError(stopOnError)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go func() {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			sig := <-sigCh
			logger.Warn("received shutdown signal, finishing current task", "signal", sig)
			cancel()
		}()

		// Per-task failures are logged and reported in the summary; only a
		// failure before any processing aborts with a non-zero exit.
		_, err = runner.Run(ctx)
		return err
	},
}

func init() {
	rootCmd.Flags().StringVar(&configFile, "config", "config.ini", "Path to the configuration file")
	rootCmd.Flags().IntVar(&postsCount, "posts", 0, "Number of posts to generate (overrides posts_per_run)")
	rootCmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.Flags().BoolVar(&stopOnError, "stop-on-error", false, "Abort the run after the first failed task")
}

// setupLogger builds the run logger writing to stderr and the append-only
// run log file.
func setupLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	out := io.Writer(os.Stderr)
	if err := os.MkdirAll("logs", 0755); err == nil {
		logFile, err := os.OpenFile(filepath.Join("logs", "seo-writer.log"),
			os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			out = io.MultiWriter(os.Stderr, logFile)
		}
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
