package main

import (
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/trainlog/internal/open"
)

func openCmd(g *globalFlags) *cobra.Command {
	var hitRecordID int

	cmd := &cobra.Command{
		Use:   "open <exportKey>",
		Short: "Open the original export in $EDITOR at the hit line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, db, err := g.openArchive()
			if err != nil {
				return err
			}
			defer logger.Sync()
			defer db.Close()

			return open.OpenExport(db, args[0], hitRecordID)
		},
	}

	cmd.Flags().IntVar(&hitRecordID, "hit", -1, "Record ID to jump to")

	return cmd
}
