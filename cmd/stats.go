package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var statsReset bool

// statsCmd shows the usage counters kept in the settings store.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show LLM usage counters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		if statsReset {
			if err := appInstance.Usage.Reset(cmd.Context()); err != nil {
				return fmt.Errorf("failed to reset stats: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Usage counters reset.")
			return nil
		}

		stats, err := appInstance.Usage.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to read stats: %w", err)
		}
		table := newTable(cmd.OutOrStdout(), "Counter", "Value")
		table.Append([]string{"Posts processed", strconv.FormatInt(stats.PostsProcessed, 10)})
		table.Append([]string{"LLM calls", strconv.FormatInt(stats.LLMCalls, 10)})
		table.Append([]string{"Input tokens", strconv.FormatInt(stats.InputTokens, 10)})
		table.Append([]string{"Output tokens", strconv.FormatInt(stats.OutputTokens, 10)})
		table.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().BoolVar(&statsReset, "reset", false, "Zero all counters")
}
