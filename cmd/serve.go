package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/volmerge/internal/handlers"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the JSON API for header mapping and merge review",
		Long: `Starts the volmerge HTTP API on the specified port.

The API maps headers onto the canonical schema, creates merge sessions from two
uploaded datasets, accepts confirm/reject decisions per candidate and returns the
merged dataset. Sessions live in memory until deleted or the server stops.`,
		Example: `  # Start server on default port 8888
  volmerge serve

  # Start server on custom port
  volmerge serve --port 3000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := stringSetting(cmd, "port", "PORT")
			if err != nil {
				return err
			}
			opts, err := matchOptions(cmd)
			if err != nil {
				return err
			}

			handler := handlers.New(opts)

			addr := ":" + port
			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Volmerge API available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringP("port", "p", "8888", "Port to listen on (env PORT)")
	addMatchFlags(cmd)

	return cmd
}
