package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/justestif/go-mood-music/internal/suggest"
)

func newSuggestCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:     "suggest <mood...>",
		Short:   "Print song suggestions for a mood",
		Example: "  moodmusic suggest happy\n  moodmusic suggest nostalgic on a rainy sunday",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := cliLogger(logLevel)

			gateway, err := newGateway(cmd.Context(), log)
			if err != nil {
				return err
			}

			moodText := strings.Join(args, " ")
			result, err := gateway.GetSuggestions(cmd.Context(), moodText)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), suggest.FormatSuggestions(moodText, result))
			return nil
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	return cmd
}
