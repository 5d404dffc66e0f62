package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/Zuo-Peng/trainlog/internal/index"
	"github.com/Zuo-Peng/trainlog/internal/parse"
	"github.com/Zuo-Peng/trainlog/internal/render"
	"github.com/Zuo-Peng/trainlog/internal/report"
	"github.com/Zuo-Peng/trainlog/internal/tui"
)

func reportCmd(g *globalFlags) *cobra.Command {
	var exportKey, format string
	var width int
	var noTUI bool

	cmd := &cobra.Command{
		Use:   "report [file]",
		Short: "Report the training sessions of one WhatsApp export",
		Long: `Parse a WhatsApp .txt export ("-" reads stdin) and report the training
sessions it contains. On a terminal the report opens in an interactive
dashboard; otherwise it is printed in the chosen --format.

With --export the records come from the archive built by 'trainlog index'.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			var rm report.RenderModel
			var title string
			switch {
			case exportKey != "":
				if len(args) > 0 {
					return fmt.Errorf("give either a file or --export, not both")
				}
				db, dbErr := index.OpenDB(cfg.DBPath)
				if dbErr != nil {
					return fmt.Errorf("open db: %w", dbErr)
				}
				rm, err = archivedReport(db, exportKey)
				db.Close()
				title = exportKey
			case len(args) == 1:
				rm, err = fileReport(cmd.InOrStdin(), args[0])
				title = filepath.Base(args[0])
			default:
				return fmt.Errorf("missing export file (or --export key)")
			}
			if err != nil {
				return err
			}
			logger.Debug("Report built",
				zap.String("source", title),
				zap.Int("records", rm.Total),
				zap.Int("members", rm.Members))

			out := cmd.OutOrStdout()
			tty := isTerminal(out)
			if tty && !noTUI && !rm.Empty && (format == "" || format == render.FormatText) {
				return tui.Run(rm.Report, title)
			}

			if width <= 0 {
				width = terminalWidth(out)
			}
			return render.Write(out, rm, format, render.SummaryOptions{
				Width: width,
				Color: tty,
			})
		},
	}

	cmd.Flags().StringVar(&exportKey, "export", "", "Report an archived export by key instead of a file")
	cmd.Flags().StringVarP(&format, "format", "f", render.FormatText, "Output format (text/json/yaml/csv)")
	cmd.Flags().IntVar(&width, "width", 0, "Text width (default terminal width or 80)")
	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "Print the text report even on a terminal")

	return cmd
}

func fileReport(stdin io.Reader, path string) (report.RenderModel, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return report.RenderModel{}, fmt.Errorf("read export: %w", err)
	}
	rm, err := report.ProcessUpload(data)
	if err != nil {
		return report.RenderModel{}, fmt.Errorf("%s: %w", path, err)
	}
	return rm, nil
}

// archivedReport rebuilds the report of an indexed export.
func archivedReport(db *index.DB, exportKey string) (report.RenderModel, error) {
	rows, err := db.GetRecords(exportKey)
	if err != nil {
		return report.RenderModel{}, fmt.Errorf("get records: %w", err)
	}
	if len(rows) == 0 {
		if _, err := db.GetExportByKey(exportKey); err != nil {
			return report.RenderModel{}, err
		}
	}

	records := make([]parse.Record, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.ToRecord())
	}
	rep := report.Build(records)
	return report.RenderModel{Report: rep, Empty: rep.Total == 0}, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return 0
}
