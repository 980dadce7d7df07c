package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/em0-omg/pdf-highlight-api/internal/analysis"
	"github.com/em0-omg/pdf-highlight-api/internal/config"
	"github.com/em0-omg/pdf-highlight-api/internal/handlers"
)

func newServeCmd(configPath *string) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the PDF highlight HTTP service",
		Long: `Starts the HTTP service exposing PDF-to-image conversion, random
highlight simulation, and vision-model pattern detection endpoints.`,
		Example: `  # Start server on default port 8000
  pdf-highlight-api serve

  # Start server on custom port
  pdf-highlight-api serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Server.Port = port
			}

			service, err := analysis.NewService(cfg)
			if err != nil {
				return err
			}
			handler := handlers.New(cfg, service, nil)

			// Set up routes
			mux := http.NewServeMux()
			mux.HandleFunc("/pdf-to-images", handler.HandleConvert)
			mux.HandleFunc("/pdf-highlight", handler.HandleHighlight)
			mux.HandleFunc("/pdf-analyze", handler.HandleAnalyze)
			mux.HandleFunc("/healthcheck", handler.HandleHealthcheck)
			mux.HandleFunc("/", handler.HandleRoot)

			addr := ":" + cfg.Server.Port
			server := &http.Server{
				Addr:    addr,
				Handler: handlers.CORS(mux),
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("PDF Highlight API available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
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

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides config)")

	return cmd
}
