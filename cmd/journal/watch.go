package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/journal/pkg/adapters/lifecycle"
	"github.com/aretw0/journal/pkg/core"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print changes to the journal made by any writer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(nil)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		changes, err := svc.Watch(ctx)
		if err != nil {
			return fmt.Errorf("failed to watch journal: %w", err)
		}

		src := lifecycle.NewSource(changes)
		if err := src.Start(ctx); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Watching %s (ctrl+c to stop)\n", cfg.Storage.Path)
		for ev := range src.Events() {
			fmt.Fprintln(out, ev.String())

			change, ok := ev.(core.Event)
			if !ok || change.Type != core.EventModify {
				continue
			}
			entries, err := svc.ListEntries(ctx)
			if err != nil || len(entries) == 0 {
				continue
			}
			latest := entries[len(entries)-1]
			if cfg.Storage.ParsedOrder() == core.NewestFirst {
				latest = entries[0]
			}
			fmt.Fprintf(out, "  %d entries, latest: %s\n", len(entries), latest.Text)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
