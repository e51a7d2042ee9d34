package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"linkedlens/internal/models"
	"linkedlens/internal/util"
	"linkedlens/pkg/categorizer"
)

var (
	classifyFile        string
	classifyShowPrompts bool
)

// classifyCmd runs one text through the prompt builder, gateway and matcher.
var classifyCmd = &cobra.Command{
	Use:   "classify [text]",
	Short: "Categorize a single post text with the configured LLM",
	Long: `Sends the text (or the contents of --file) to the configured provider with the
same prompt the watcher uses, and prints the category it maps to.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		var text string
		switch {
		case classifyFile != "":
			raw, err := os.ReadFile(classifyFile)
			if err != nil {
				return fmt.Errorf("read %s: %w", classifyFile, err)
			}
			text = util.CleanText(raw, classifyFile)
		case len(args) == 1:
			text = args[0]
		default:
			return fmt.Errorf("give the post text as an argument or with --file")
		}
		text = util.Truncate(util.CollapseWhitespace(text), appInstance.Config.Extraction.MaxLength)
		if text == "" {
			return fmt.Errorf("nothing to classify")
		}

		ctx := cmd.Context()
		cats, err := appInstance.Categories.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list categories: %w", err)
		}

		out := cmd.OutOrStdout()
		if classifyShowPrompts {
			fmt.Fprintf(out, "%s\n%s\n\n%s\n%s\n\n", color.CyanString("System prompt:"), appInstance.Prompts.SystemPrompt(cats),
				color.CyanString("User prompt:"), appInstance.Prompts.UserPrompt(text))
		}

		res, err := appInstance.Categorizer.Categorize(ctx, categorizer.CategorizationRequest{Text: text, Categories: cats})
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Response: %s\n", strings.TrimSpace(res.Response))
		if res.Category == nil {
			fmt.Fprintf(out, "Category: %s\n", stateString(models.StateUncategorized))
			return nil
		}
		fmt.Fprintf(out, "Category: %s (%s)\n", color.GreenString(res.Category.Name), res.Category.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.Flags().StringVarP(&classifyFile, "file", "f", "", "Read the post text from a file")
	classifyCmd.Flags().BoolVar(&classifyShowPrompts, "show-prompts", false, "Print the prompts sent to the provider")
}
