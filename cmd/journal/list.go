package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/journal/pkg/core"
	"github.com/aretw0/journal/pkg/export"
)

var listFormat string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all reflections in the journal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(nil)
		if err != nil {
			return err
		}

		entries, err := svc.ListEntries(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list reflections: %w", err)
		}
		return writeList(cmd.OutOrStdout(), entries, listFormat)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVarP(&listFormat, "format", "f", "text", "Output format: text, json or yaml")
}

func writeList(w io.Writer, entries []core.Entry, format string) error {
	switch strings.ToLower(format) {
	case "text", "":
		if len(entries) == 0 {
			fmt.Fprintln(w, "No reflections yet.")
			return nil
		}
		for i, e := range entries {
			fmt.Fprintf(w, "#%d  %s  %s", i+1, e.Date, e.Title)
			if e.Name != "" {
				fmt.Fprintf(w, " (%s)", e.Name)
			}
			fmt.Fprintf(w, "\n    %s\n", strings.ReplaceAll(e.Text, "\n", "\n    "))
		}
		return nil
	case "json", "yaml", "yml":
		s, err := export.Lookup(format)
		if err != nil {
			return err
		}
		return s.Serialize(w, entries)
	default:
		return fmt.Errorf("unsupported list format %q (want text, json or yaml)", format)
	}
}
