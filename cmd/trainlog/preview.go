package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/trainlog/internal/render"
)

func previewCmd(g *globalFlags) *cobra.Command {
	var hitRecordID, context, width int
	var query string

	cmd := &cobra.Command{
		Use:   "preview <exportKey>",
		Short: "Preview archived sessions of one export around a hit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, db, err := g.openArchive()
			if err != nil {
				return err
			}
			defer logger.Sync()
			defer db.Close()

			out, _, err := render.RenderExport(db, args[0], render.Options{
				HitRecordID: hitRecordID,
				Context:     context,
				Width:       width,
				Query:       query,
			})
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().IntVar(&hitRecordID, "hit", -1, "Record ID to highlight")
	cmd.Flags().IntVar(&context, "context", 10, "Sessions before/after hit to show")
	cmd.Flags().IntVar(&width, "width", 0, "Wrap width (0 = no wrap)")
	cmd.Flags().StringVar(&query, "query", "", "Search query for keyword highlighting")

	return cmd
}
