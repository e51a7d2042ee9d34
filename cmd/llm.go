package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"linkedlens/internal/clix"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Show, change or test the LLM provider settings",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var llmShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored provider configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		cfg, err := appInstance.Settings.LLMConfig(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to read llm config: %w", err)
		}
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "LLM not configured. Use `linkedlens llm set`.")
			return nil
		}

		table := newTable(out, "Field", "Value")
		table.Append([]string{"provider", string(cfg.Provider)})
		table.Append([]string{"url", cfg.Settings.URL})
		table.Append([]string{"model", cfg.Settings.Model})
		table.Append([]string{"apiKey", maskSecret(cfg.Settings.APIKey)})
		table.Append([]string{"organization", cfg.Settings.Organization})
		table.Append([]string{"baseUrl", cfg.Settings.BaseURL})
		table.Render()

		if missing := cfg.MissingFields(); len(missing) > 0 {
			fmt.Fprintf(out, "%s missing %v\n", color.YellowString("Incomplete:"), missing)
		}
		return nil
	},
}

var llmSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store provider settings; only the flags given are changed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		current, err := appInstance.Settings.LLMConfig(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to read llm config: %w", err)
		}
		cfg, err := clix.ParseLLMConfig(cmd.Flags(), current)
		if err != nil {
			return err
		}
		if err := appInstance.Settings.SaveLLMConfig(cmd.Context(), cfg); err != nil {
			return fmt.Errorf("failed to save llm config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s provider %s\n", color.GreenString("Saved"), cfg.Provider)
		if missing := cfg.MissingFields(); len(missing) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%s missing %v\n", color.YellowString("Incomplete:"), missing)
		}
		return nil
	},
}

var llmTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a fixed prompt to the provider and report whether it answered",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		if !appInstance.Gateway.IsConfigured(cmd.Context()) {
			return fmt.Errorf("LLM not configured")
		}
		if !appInstance.Gateway.TestConnection(cmd.Context()) {
			fmt.Fprintln(cmd.OutOrStdout(), color.RedString("Connection test failed"))
			return fmt.Errorf("provider did not answer the test prompt")
		}
		fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("Connection OK"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(llmCmd)
	llmCmd.AddCommand(llmShowCmd, llmSetCmd, llmTestCmd)
	clix.AddLLMFlags(llmSetCmd.Flags())
}
