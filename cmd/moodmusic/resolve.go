package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/justestif/go-mood-music/internal/mood"
)

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "resolve [label=score...]",
		Short:   "Print the dominant expression of a reading",
		Example: "  moodmusic resolve happy=0.82 neutral=0.11 sad=0.02",
		RunE: func(cmd *cobra.Command, args []string) error {
			reading, err := parseReading(args)
			if err != nil {
				return err
			}

			q, ok := mood.Resolve(reading)
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "no face")
				return nil
			}

			e, _ := q.Expression()
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", q, mood.Describe(e))
			return nil
		},
	}
}

// parseReading turns label=score pairs into a reading. No pairs is a
// reading with no face.
func parseReading(args []string) (mood.Reading, error) {
	if len(args) == 0 {
		return nil, nil
	}

	reading := make(mood.Reading, len(args))
	for _, arg := range args {
		label, raw, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("expected label=score, got %q", arg)
		}

		e, ok := mood.ParseExpression(label)
		if !ok {
			return nil, fmt.Errorf("unknown expression %q", label)
		}

		score, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing score for %s: %w", e, err)
		}
		reading[e] = score
	}
	return reading, nil
}
