package cmd

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"linkedlens/internal/store"
)

var (
	categoryName        string
	categoryDescription string
)

// categoriesCmd represents the base command for category operations.
var categoriesCmd = &cobra.Command{
	Use:     "categories",
	Aliases: []string{"category"},
	Short:   "Manage the categories posts are sorted into",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var listCategoriesCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories in prompt order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		cats, err := appInstance.Categories.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list categories: %w", err)
		}
		if len(cats) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No categories configured.")
			return nil
		}

		table := newTable(cmd.OutOrStdout(), "ID", "Name", "Description")
		for _, c := range cats {
			table.Append([]string{c.ID, c.Name, c.Description})
		}
		table.Render()
		return nil
	},
}

var addCategoryCmd = &cobra.Command{
	Use:   "add",
	Short: "Append a category",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		c, err := appInstance.Categories.Add(cmd.Context(), categoryName, categoryDescription)
		if err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return fmt.Errorf("category %q already exists", categoryName)
			}
			return fmt.Errorf("failed to add category: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s category %s (id %s)\n", color.GreenString("Added"), c.Name, c.ID)
		return nil
	},
}

var removeCategoryCmd = &cobra.Command{
	Use:   "remove <id|name>",
	Short: "Remove a category by id or name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		c, err := appInstance.Categories.Remove(cmd.Context(), args[0])
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no category matches %q", args[0])
			}
			return fmt.Errorf("failed to remove category: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s category %s (id %s)\n", color.YellowString("Removed"), c.Name, c.ID)
		return nil
	},
}

var resetCategoriesCmd = &cobra.Command{
	Use:   "reset",
	Short: "Replace the list with the default categories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		cats, err := appInstance.Categories.Reset(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to reset categories: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Restored %d default categories.\n", len(cats))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
	categoriesCmd.AddCommand(listCategoriesCmd, addCategoryCmd, removeCategoryCmd, resetCategoriesCmd)

	addCategoryCmd.Flags().StringVarP(&categoryName, "name", "n", "", "Category name as shown to the LLM")
	addCategoryCmd.Flags().StringVarP(&categoryDescription, "description", "d", "", "What belongs in the category")
	addCategoryCmd.MarkFlagRequired("name")
}
