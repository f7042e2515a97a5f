package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/journal/pkg/metrics"
	"github.com/aretw0/journal/pkg/server"
)

var (
	serveAddr   string
	serveStatic string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the journal API and site pages over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}
		if serveStatic != "" {
			cfg.Server.StaticDir = serveStatic
		}

		m := metrics.New(nil)
		svc, err := openService(m)
		if err != nil {
			return err
		}

		srv, err := server.NewServer(svc, logger, m, &server.Config{
			Addr:      cfg.Server.Addr,
			StaticDir: cfg.Server.StaticDir,
			Assets:    cfg.Server.Assets,
			RateRPS:   cfg.Server.RateRPS,
			RateBurst: cfg.Server.RateBurst,
			BodyLimit: cfg.Server.BodyLimit,
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server failed: %w", err)
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "Listen address (default from config, :8080)")
	serveCmd.Flags().StringVar(&serveStatic, "static", "", "Directory with the site pages (default from config, ./public)")
}
