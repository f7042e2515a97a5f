package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/journal/pkg/export"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every reflection as json, yaml, csv or md",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format := exportFormat
		if format == "" {
			format = export.FormatFromPath(exportOut)
		}
		serializer, err := export.Lookup(format)
		if err != nil {
			return err
		}

		svc, err := openService(nil)
		if err != nil {
			return err
		}
		entries, err := svc.ListEntries(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list reflections: %w", err)
		}

		if exportOut == "" || exportOut == "-" {
			return serializer.Serialize(cmd.OutOrStdout(), entries)
		}

		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", exportOut, err)
		}
		if err := serializer.Serialize(f, entries); err != nil {
			f.Close()
			return fmt.Errorf("failed to write %s: %w", exportOut, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to close %s: %w", exportOut, err)
		}

		logger.Info("exported reflections", "count", len(entries), "format", format, "out", exportOut)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "Export format: json, yaml, csv or md (default from --out extension, else json)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default stdout)")
}
