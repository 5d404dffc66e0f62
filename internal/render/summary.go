package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/trainlog/internal/parse"
	"github.com/Zuo-Peng/trainlog/internal/report"
)

const (
	defaultWidth   = 80
	maxAuthorWidth = 24
	weekColWidth   = 10
)

// NothingDetected is shown instead of a report when no record was found.
const NothingDetected = "No training session detected in the file."

type SummaryOptions struct {
	Width int  // total columns, 0 = 80
	Color bool // emit ANSI colors
}

type painter bool

func (p painter) paint(color, s string) string {
	if !p {
		return s
	}
	return color + s + colorReset
}

// Summary renders the whole dashboard as text.
func Summary(rm report.RenderModel, opts SummaryOptions) string {
	p := painter(opts.Color)
	width := opts.Width
	if width <= 0 {
		width = defaultWidth
	}

	if rm.Empty {
		return p.paint(colorWarn, NothingDetected) + "\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", p.paint(colorTitle, fmt.Sprintf("%d training sessions detected", rm.Total)))

	b.WriteString(Metrics(rm.Report, opts))
	b.WriteString("\n")

	b.WriteString(p.paint(colorTitle, "Sessions per member") + "\n")
	for _, l := range Bars(rm.Report, width, opts.Color) {
		b.WriteString(l + "\n")
	}
	b.WriteString("\n")

	b.WriteString(p.paint(colorTitle, "Activity per week") + "\n")
	for _, l := range WeekTable(rm.Report, width) {
		b.WriteString(l + "\n")
	}
	b.WriteString("\n")

	b.WriteString(p.paint(colorTitle, "Session details") + "\n")
	for _, l := range RecordTable(rm.Records, width) {
		b.WriteString(l + "\n")
	}

	return b.String()
}

// Metrics renders the four headline figures.
func Metrics(rep report.Report, opts SummaryOptions) string {
	p := painter(opts.Color)
	rows := [][2]string{
		{"Total sessions", strconv.Itoa(rep.Total)},
		{"Active members", strconv.Itoa(rep.Members)},
		{"Last activity", formatDay(rep.Last)},
		{"First activity", formatDay(rep.First)},
	}
	var b strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&b, "  %-16s %s\n", r[0], p.paint(colorAuthor, r[1]))
	}
	return b.String()
}

// Bars renders one horizontal bar per member, longest first.
func Bars(rep report.Report, width int, color bool) []string {
	p := painter(color)
	maxCount := rep.MaxAuthorCount()
	if maxCount == 0 {
		return nil
	}

	nameW := 0
	for _, ac := range rep.ByAuthor {
		nameW = max(nameW, runewidth.StringWidth(ac.Author))
	}
	nameW = min(nameW, maxAuthorWidth)
	countW := len(strconv.Itoa(maxCount))

	barMax := width - nameW - countW - 4
	if barMax < 1 {
		barMax = 1
	}

	lines := make([]string, 0, len(rep.ByAuthor))
	for _, ac := range rep.ByAuthor {
		n := ac.Count * barMax / maxCount
		if n == 0 {
			n = 1
		}
		name := fitWidth(ac.Author, nameW)
		lines = append(lines, fmt.Sprintf("  %s %s %*d", name, p.paint(colorBar, strings.Repeat("█", n)), countW, ac.Count))
	}
	return lines
}

// WeekTable renders the week x member pivot. Members that do not fit in
// width are dropped from the right.
func WeekTable(rep report.Report, width int) []string {
	if len(rep.Weeks) == 0 {
		return nil
	}

	cols := len(rep.Authors)
	if fit := (width - weekColWidth - 2) / (weekColWidth + 1); fit < cols {
		cols = max(fit, 1)
	}

	var header strings.Builder
	header.WriteString("  " + fitWidth("week", weekColWidth))
	for _, a := range rep.Authors[:cols] {
		header.WriteString(" " + fitWidth(a, weekColWidth))
	}

	lines := []string{strings.TrimRight(header.String(), " ")}
	for i, w := range rep.Weeks {
		var row strings.Builder
		row.WriteString("  " + fitWidth(w.Label(), weekColWidth))
		for _, n := range rep.Matrix[i][:cols] {
			row.WriteString(" " + fitWidth(strconv.Itoa(n), weekColWidth))
		}
		lines = append(lines, strings.TrimRight(row.String(), " "))
	}
	return lines
}

// RecordTable renders one line per record: date, time, author, message.
func RecordTable(records []parse.Record, width int) []string {
	nameW := 0
	for _, r := range records {
		nameW = max(nameW, runewidth.StringWidth(r.Author))
	}
	nameW = min(nameW, maxAuthorWidth)

	msgW := width - 2 - 10 - 1 - 5 - 1 - nameW - 1
	lines := make([]string, 0, len(records))
	for _, r := range records {
		msg := strings.ReplaceAll(r.Message, "\t", " ")
		if msgW > 0 && runewidth.StringWidth(msg) > msgW {
			msg = runewidth.Truncate(msg, msgW, "…")
		}
		line := fmt.Sprintf("  %s %s %s %s", r.DateString(), r.Time, fitWidth(r.Author, nameW), msg)
		lines = append(lines, strings.TrimRight(line, " "))
	}
	return lines
}

// fitWidth truncates or pads s to exactly w display columns.
func fitWidth(s string, w int) string {
	if runewidth.StringWidth(s) > w {
		s = runewidth.Truncate(s, w, "…")
	}
	return runewidth.FillRight(s, w)
}
