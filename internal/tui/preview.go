package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/trainlog/internal/index"
	"github.com/Zuo-Peng/trainlog/internal/parse"
	"github.com/Zuo-Peng/trainlog/internal/render"
	"github.com/Zuo-Peng/trainlog/internal/report"
)

// previewRenderedMsg is sent when an async preview render completes.
type previewRenderedMsg struct {
	key     string
	content string
	hitLine int
	err     error
}

// loadPreviewCmd renders the archived export around an archive hit.
func loadPreviewCmd(db *index.DB, it item, query string, width int) tea.Cmd {
	key := previewCacheKey(query, it)
	return func() tea.Msg {
		content, hitLine, err := render.RenderExport(db, it.ExportKey, render.Options{
			HitRecordID: it.RecordID,
			Context:     -1,
			Width:       width,
			Query:       query,
		})
		return previewRenderedMsg{key: key, content: content, hitLine: hitLine, err: err}
	}
}

// dashboardPreviewCmd renders the report of the filtered records.
func dashboardPreviewCmd(records []parse.Record, sel *item, query string, width int) tea.Cmd {
	key := previewCacheKey(query, item{})
	if sel != nil {
		key = previewCacheKey(query, *sel)
	}
	return func() tea.Msg {
		return previewRenderedMsg{key: key, content: dashboardContent(records, sel, width)}
	}
}

func dashboardContent(records []parse.Record, sel *item, width int) string {
	rep := report.Build(records)
	if rep.Total == 0 {
		return styleWarn.Render(render.NothingDetected)
	}

	var b strings.Builder
	if sel != nil {
		b.WriteString(styleTitle.Render("Selected") + "\n")
		fmt.Fprintf(&b, "  %s %s %s, %d in total\n", sel.Date, sel.Time, styleAuthor.Render(sel.Author), rep.CountFor(sel.Author))
		b.WriteString(indent(wrapText(sel.Message, width-4), "    ") + "\n\n")
	}

	b.WriteString(styleTitle.Render(fmt.Sprintf("%d training sessions", rep.Total)) + "\n")
	b.WriteString(render.Metrics(rep, render.SummaryOptions{Width: width}))
	b.WriteString("\n")

	b.WriteString(styleTitle.Render("Sessions per member") + "\n")
	b.WriteString(strings.Join(render.Bars(rep, width, false), "\n") + "\n\n")

	b.WriteString(styleTitle.Render("Activity per week") + "\n")
	b.WriteString(strings.Join(render.WeekTable(rep, width), "\n"))
	return b.String()
}

func wrapText(s string, width int) string {
	if width < 10 {
		return s
	}
	var lines []string
	for _, para := range strings.Split(s, "\n") {
		var cur strings.Builder
		w := 0
		for _, r := range para {
			rw := runewidth.RuneWidth(r)
			if w+rw > width {
				lines = append(lines, cur.String())
				cur.Reset()
				w = 0
			}
			cur.WriteRune(r)
			w += rw
		}
		lines = append(lines, cur.String())
	}
	return strings.Join(lines, "\n")
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

func previewCacheKey(query string, it item) string {
	return query + "\x00" + it.key()
}

func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.Style = stylePanelBorder
	return vp
}
