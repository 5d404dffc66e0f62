package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Zuo-Peng/trainlog/internal/index"
	"github.com/Zuo-Peng/trainlog/internal/search"
	"github.com/Zuo-Peng/trainlog/internal/tui"
)

const (
	sColorReset   = "\033[0m"
	sColorBoldRed = "\033[1;31m"
	sColorGreen   = "\033[1;32m"
	sColorDim     = "\033[2m"
)

func colorizeSnippet(snippet string) string {
	snippet = strings.ReplaceAll(snippet, ">>>", sColorBoldRed)
	snippet = strings.ReplaceAll(snippet, "<<<", sColorReset)
	return snippet
}

func tsvField(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

// writeResults prints one TSV line per hit. The first two fields
// (exportKey, recordID) stay plain for fzf {1} {2}.
func writeResults(w io.Writer, results []search.Result) {
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%d\t%s%s %s%s\t%s%s%s\t%s\n",
			r.ExportKey,
			r.RecordID,
			sColorDim, r.Date, r.Time, sColorReset,
			sColorGreen, tsvField(r.Author), sColorReset,
			colorizeSnippet(tsvField(r.Snippet)),
		)
	}
}

func searchCmd(g *globalFlags) *cobra.Command {
	var author, since string
	var limit int
	var noIndex bool

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Full-text search across archived training sessions",
		Long: `Search archived training messages using FTS5. Output is TSV for fzf integration:
  exportKey, recordId, date time, author, snippet

Recommended shell function (add to .zshrc):
  tlf() {
    trainlog search "$*" | fzf \
      --ansi \
      --delimiter='\t' --with-nth=3.. \
      --preview 'trainlog preview {1} --hit {2} --context 5 --query {q}' \
      --preview-window=right:60%:wrap \
      --bind 'enter:execute(trainlog open {1} --hit {2})'
  }`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, db, err := g.openArchive()
			if err != nil {
				return err
			}
			defer logger.Sync()
			defer db.Close()

			if !noIndex {
				if _, err := index.IndexAll(db, cfg.ExportsDir, logger); err != nil {
					logger.Warn("Auto index failed", zap.Error(err))
				}
			}

			var query string
			if len(args) == 1 {
				query = args[0]
			}
			opts := search.Options{
				Author: author,
				Since:  since,
				Limit:  limit,
			}

			// interactive TUI on a terminal, TSV for pipes
			out := cmd.OutOrStdout()
			if isTerminal(out) {
				return tui.RunSearch(db, query, opts)
			}

			opts.Query = query
			results, err := search.Search(db, opts)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "No results found.")
				return nil
			}

			writeResults(out, results)
			return nil
		},
	}

	cmd.Flags().StringVar(&author, "author", "", "Filter by member")
	cmd.Flags().StringVar(&since, "since", "", "Filter sessions since date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 100, "Max results")
	cmd.Flags().BoolVar(&noIndex, "no-index", false, "Skip the incremental index update")

	return cmd
}
