package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Zuo-Peng/trainlog/internal/index"
)

func indexCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Archive every export of exports_dir into the search index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, db, err := g.openArchive()
			if err != nil {
				return err
			}
			defer logger.Sync()
			defer db.Close()

			logger.Info("Scanning exports", zap.String("dir", cfg.ExportsDir))

			stats, err := index.IndexAll(db, cfg.ExportsDir, logger)
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Done. %s\n", stats)
			return nil
		},
	}
}
