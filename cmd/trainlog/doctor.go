package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/trainlog/internal/config"
	"github.com/Zuo-Peng/trainlog/internal/index"
	"github.com/Zuo-Peng/trainlog/internal/scan"
)

func doctorCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify config, exports dir, DB, FTS5, and show stats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.setup()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			defer logger.Sync()

			return runDoctor(cmd.OutOrStdout(), g.configPath, cfg)
		},
	}
}

func runDoctor(w io.Writer, cfgPath string, cfg *config.Config) error {
	fmt.Fprintln(w, "=== Config ===")
	if cfgPath == "" {
		if p, err := config.DefaultPath(); err == nil {
			cfgPath = p
		}
	}
	if _, err := os.Stat(cfgPath); err != nil {
		fmt.Fprintf(w, "  File: %s (not found, using defaults)\n", cfgPath)
	} else {
		fmt.Fprintf(w, "  File: %s (OK)\n", cfgPath)
	}
	fmt.Fprintf(w, "  Listen: %s\n", cfg.Listen)
	fmt.Fprintf(w, "  Max upload: %d MB\n", cfg.MaxUploadMB)
	fmt.Fprintf(w, "  Log level: %s\n", cfg.LogLevel)

	fmt.Fprintln(w, "\n=== Exports ===")
	checkDir(w, "Dir", cfg.ExportsDir)
	files, err := scan.ScanExports(cfg.ExportsDir)
	if err != nil {
		fmt.Fprintf(w, "  scan error: %v\n", err)
	} else {
		fmt.Fprintf(w, "  Text exports: %d\n", len(files))
	}

	fmt.Fprintln(w, "\n=== Database ===")
	fmt.Fprintf(w, "  Path: %s\n", cfg.DBPath)
	if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
		fmt.Fprintln(w, "  Status: NOT FOUND (run 'trainlog index' first)")
		return nil
	}

	db, err := index.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	exportCount, err := db.ExportCount()
	if err != nil {
		return fmt.Errorf("count exports: %w", err)
	}
	recordCount, err := db.RecordCount()
	if err != nil {
		return fmt.Errorf("count records: %w", err)
	}
	fmt.Fprintf(w, "  Exports:  %d\n", exportCount)
	fmt.Fprintf(w, "  Sessions: %d\n", recordCount)

	fmt.Fprintln(w, "\n=== FTS5 ===")
	ftsCount, err := db.FTSCount()
	if err != nil {
		fmt.Fprintf(w, "  FTS5 error: %v\n", err)
	} else {
		fmt.Fprintf(w, "  FTS5 entries: %d\n", ftsCount)
		if ftsCount == recordCount {
			fmt.Fprintln(w, "  Status: OK (synced)")
		} else {
			fmt.Fprintf(w, "  Status: MISMATCH (records=%d, fts=%d)\n", recordCount, ftsCount)
		}
	}

	totals, err := db.AuthorTotals()
	if err != nil {
		return fmt.Errorf("author totals: %w", err)
	}
	if len(totals) > 0 {
		fmt.Fprintln(w, "\n=== Members ===")
		for i, t := range totals {
			if i == 10 {
				fmt.Fprintf(w, "  ... %d more\n", len(totals)-i)
				break
			}
			fmt.Fprintf(w, "  %-24s %d\n", t.Author, t.Count)
		}
	}

	if info, err := os.Stat(cfg.DBPath); err == nil {
		sizeMB := float64(info.Size()) / 1024 / 1024
		fmt.Fprintf(w, "\n=== DB Size: %.1f MB ===\n", sizeMB)
	}

	return nil
}

func checkDir(w io.Writer, name, path string) {
	if info, err := os.Stat(path); err != nil {
		fmt.Fprintf(w, "  %s: %s (NOT FOUND)\n", name, path)
	} else if !info.IsDir() {
		fmt.Fprintf(w, "  %s: %s (NOT A DIRECTORY)\n", name, path)
	} else {
		fmt.Fprintf(w, "  %s: %s (OK)\n", name, path)
	}
}
