package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Zuo-Peng/trainlog/internal/server"
)

const shutdownTimeout = 5 * time.Second

func serveCmd(g *globalFlags) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web dashboard for uploaded exports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if listen != "" {
				cfg.Listen = listen
			}

			if !g.verbose {
				gin.SetMode(gin.ReleaseMode)
			}
			router, err := server.NewRouter(server.NewHandler(logger, cfg.MaxUploadBytes()))
			if err != nil {
				return fmt.Errorf("build router: %w", err)
			}

			srv := &http.Server{
				Addr:              cfg.Listen,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			eg, ctx := errgroup.WithContext(ctx)
			eg.Go(func() error {
				logger.Info("Server starting",
					zap.String("address", cfg.Listen),
					zap.Int64("max_upload_mb", cfg.MaxUploadMB))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("listen: %w", err)
				}
				return nil
			})
			eg.Go(func() error {
				<-ctx.Done()
				logger.Info("Shutting down server...")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})

			if err := eg.Wait(); err != nil {
				return err
			}
			logger.Info("Server exited")
			return nil
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (overrides config)")

	return cmd
}
