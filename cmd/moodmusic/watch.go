package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/justestif/go-mood-music/internal/capture"
	"github.com/justestif/go-mood-music/internal/suggest"
)

// drainMargin covers the gap between the debounce timer firing and the
// lookup taking the in-flight slot.
const drainMargin = 100 * time.Millisecond

func newWatchCmd() *cobra.Command {
	var (
		interval time.Duration
		window   time.Duration
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Suggest songs from face detections read on stdin",
		Long: `watch reads newline-delimited detector output from stdin, one frame per line:

  {"faces":[{"box":[0,0,120,140],"score":0.97,"expressions":{"happy":0.91,"neutral":0.06}}]}

The most prominent face is reduced to its dominant expression. Once an
expression has held for the debounce window, suggestions are printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := cliLogger(logLevel)
			ctx := cmd.Context()

			gateway, err := newGateway(ctx, log)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			ctrl := capture.NewController(ctx, gateway,
				capture.WithDebounce(window),
				capture.WithControllerLogger(log),
				capture.WithOnResult(func(o capture.Outcome) {
					printOutcome(out, o)
				}),
			)

			models := capture.NewModels(capture.JSONDetector{})
			if err := models.Load(ctx); err != nil {
				return err
			}

			session := capture.NewSession(capture.NewReaderCamera(cmd.InOrStdin()), models,
				capture.WithInterval(interval),
				capture.WithSessionLogger(log),
			)
			if err := session.Start(ctx, ctrl.HandleReading); err != nil {
				return fmt.Errorf("starting capture: %w", err)
			}
			session.Wait()

			// Input ended: give a pending trigger its window, then let it finish.
			select {
			case <-time.After(ctrl.Window() + drainMargin):
			case <-ctx.Done():
				return nil
			}
			_ = ctrl.Drain(ctx)

			if n := ctrl.Dropped(); n > 0 {
				log.Info("triggers dropped while a lookup was in flight", "count", n)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", capture.DefaultInterval, "time between frames")
	cmd.Flags().DurationVar(&window, "debounce", capture.DefaultDebounce, "how long an expression must hold before a lookup (0 uses the default)")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	return cmd
}

func printOutcome(w io.Writer, o capture.Outcome) {
	if o.Err != nil {
		fmt.Fprintf(w, "%s: %v\n", o.Query, o.Err)
		return
	}
	fmt.Fprint(w, suggest.FormatSuggestions(o.Query.String(), o.Result))
}
