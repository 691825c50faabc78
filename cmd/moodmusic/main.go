// Command moodmusic serves mood-based song suggestions over HTTP and MQTT,
// and offers the same lookups from the terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/justestif/go-mood-music/internal/links"
	"github.com/justestif/go-mood-music/internal/llm"
	"github.com/justestif/go-mood-music/internal/logger"
	"github.com/justestif/go-mood-music/internal/spotify"
	"github.com/justestif/go-mood-music/internal/suggest"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "moodmusic",
		Short:         "Song suggestions for how you feel",
		Long:          "moodmusic turns a mood, typed or read from facial expressions, into a short list of matching songs.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(),
		newSuggestCmd(),
		newResolveCmd(),
		newWatchCmd(),
	)
	return root
}

// cliLogger is used by the terminal commands, which keep stdout for results.
func cliLogger(level string) *slog.Logger {
	return logger.New(logger.Config{
		Writer: os.Stderr,
		Format: logger.FormatText,
		Level:  logger.ParseLevel(level),
	})
}

// newGateway wires the generation service and, when Spotify credentials are
// present, link verification.
func newGateway(ctx context.Context, log *slog.Logger) (*suggest.Gateway, error) {
	llmCfg, err := llm.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading llm config: %w", err)
	}

	generator, err := llm.New(ctx, llmCfg)
	if err != nil {
		return nil, fmt.Errorf("creating llm client: %w", err)
	}

	opts := []suggest.Option{
		suggest.WithLogger(log),
		suggest.WithTimeout(llmCfg.Timeout),
	}

	spotifyCfg, err := spotify.LoadConfig()
	switch {
	case errors.Is(err, spotify.ErrMissingCredentials):
		log.Debug("link verification disabled", "reason", err)
	case err != nil:
		return nil, fmt.Errorf("loading spotify config: %w", err)
	default:
		resolver := links.NewService(spotify.NewFromConfig(ctx, spotifyCfg))
		opts = append(opts, suggest.WithLinkResolver(resolver))
		log.Info("link verification enabled")
	}

	log.Info("suggestion gateway ready", "provider", llmCfg.Provider, "model", llmCfg.Model, "timeout", llmCfg.Timeout)
	return suggest.NewGateway(generator, opts...), nil
}
