package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/trainlog/internal/parse"
	"github.com/Zuo-Peng/trainlog/internal/search"
)

// linesPerItem is the number of terminal lines each record occupies.
const linesPerItem = 2

// item is one row of the left panel, either a parsed record or an archive hit.
type item struct {
	Date      string
	Time      string
	Author    string
	Message   string
	ExportKey string // archive hits only
	RecordID  int
}

func (it item) key() string {
	return fmt.Sprintf("%s:%d:%s %s", it.ExportKey, it.RecordID, it.Date, it.Time)
}

// clipText is what Enter copies.
func (it item) clipText() string {
	return fmt.Sprintf("%s %s %s: %s", it.Date, it.Time, it.Author, it.Message)
}

func recordItems(records []parse.Record) []item {
	items := make([]item, 0, len(records))
	for i, r := range records {
		items = append(items, item{
			Date:     r.DateString(),
			Time:     r.Time,
			Author:   r.Author,
			Message:  r.Message,
			RecordID: i,
		})
	}
	return items
}

func resultItems(results []search.Result) []item {
	items := make([]item, 0, len(results))
	for _, r := range results {
		msg := strings.ReplaceAll(r.Snippet, ">>>", "")
		msg = strings.ReplaceAll(msg, "<<<", "")
		items = append(items, item{
			Date:      r.Date,
			Time:      r.Time,
			Author:    r.Author,
			Message:   msg,
			ExportKey: r.ExportKey,
			RecordID:  r.RecordID,
		})
	}
	return items
}

// filterRecords keeps the records whose author or message contains query,
// case-insensitively. An empty query keeps everything.
func filterRecords(records []parse.Record, query string) []parse.Record {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return records
	}
	var out []parse.Record
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Author), q) || strings.Contains(strings.ToLower(r.Message), q) {
			out = append(out, r)
		}
	}
	return out
}

// renderList renders the left panel with scrolling.
func (m model) renderList(width, height int) string {
	if len(m.items) == 0 {
		return lipgloss.NewStyle().
			Foreground(colorDim).
			Width(width).
			Height(height).
			Align(lipgloss.Center, lipgloss.Center).
			Render("No records")
	}

	var lines []string
	for i := m.listOffset; i < len(m.items); i++ {
		if len(lines)+linesPerItem > height {
			break
		}
		lines = append(lines, formatItemLines(m.items[i], width, i == m.cursor)...)
	}

	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

// formatItemLines formats a record as two lines:
//
//	line 1: [>] MM-DD HH:MM author
//	line 2:    message (dimmed)
func formatItemLines(it item, width int, selected bool) []string {
	date := it.Date
	if len(date) >= 10 {
		date = date[5:10]
	}

	author := it.Author
	authorMax := max(width-2-6-6, 0)
	if runewidth.StringWidth(author) > authorMax {
		author = runewidth.Truncate(author, authorMax, "…")
	}

	line1 := fmt.Sprintf("%s %5s %s", date, it.Time, styleAuthor.Render(author))
	if selected {
		line1 = styleListSelected.Render("> ") + line1
	} else {
		line1 = "  " + line1
	}

	msg := strings.ReplaceAll(it.Message, "\n", " ")
	msg = strings.ReplaceAll(msg, "\t", " ")
	msgMax := max(width-4, 0)
	if runewidth.StringWidth(msg) > msgMax {
		msg = runewidth.Truncate(msg, msgMax, "")
	}
	line2 := "    " + styleMessage.Render(msg)

	return []string{line1, line2}
}

// adjustListScroll keeps the cursor visible within the list viewport.
func (m *model) adjustListScroll(listHeight int) {
	visibleItems := max(listHeight/linesPerItem, 1)
	if m.cursor < m.listOffset {
		m.listOffset = m.cursor
	}
	if m.cursor >= m.listOffset+visibleItems {
		m.listOffset = m.cursor - visibleItems + 1
	}
}
