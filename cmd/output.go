package cmd

import (
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"linkedlens/internal/models"
)

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

// stateString colours a processing state for terminal output.
func stateString(s models.ProcessingState) string {
	switch {
	case s == models.StateError:
		return color.RedString(string(s))
	case s == models.StateUncategorized:
		return color.YellowString(string(s))
	case s == models.StateProcessing || s == models.StateNotProcessed:
		return color.CyanString(string(s))
	default:
		return color.GreenString(string(s))
	}
}

// maskSecret keeps the last four characters of a key.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}
