package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/trainlog/internal/index"
)

const (
	colorReset   = "\033[0m"
	colorAuthor  = "\033[1;34m" // bold blue
	colorBar     = "\033[32m"   // green
	colorTitle   = "\033[1m"
	colorDim     = "\033[2m"
	colorWarn    = "\033[33m"
	colorHit     = "\033[43m"   // yellow background
	colorBoldRed = "\033[1;31m" // bold red for keyword highlights
)

type Options struct {
	HitRecordID int
	Context     int    // records before/after hit to show
	Width       int    // wrap width (0 = no wrap)
	Query       string // search query for keyword highlighting
}

// ftsOperators are FTS5 operators that should not be highlighted as keywords.
var ftsOperators = map[string]bool{
	"AND": true, "OR": true, "NOT": true, "NEAR": true,
}

// highlightKeywords wraps case-insensitive matches of query terms in bold red ANSI codes.
func highlightKeywords(text, query string) string {
	if query == "" {
		return text
	}
	for _, term := range strings.Fields(query) {
		if ftsOperators[strings.ToUpper(term)] {
			continue
		}
		lower := strings.ToLower(term)
		i := 0
		for i < len(text) {
			idx := strings.Index(strings.ToLower(text[i:]), lower)
			if idx < 0 {
				break
			}
			pos := i + idx
			end := pos + len(term)
			if end > len(text) {
				break
			}
			replacement := colorBoldRed + text[pos:end] + colorReset
			text = text[:pos] + replacement + text[end:]
			i = pos + len(replacement)
		}
	}
	return text
}

// indentLines prepends each line of text with the given prefix.
func indentLines(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// wrapLine breaks a single line into multiple lines that fit within maxWidth
// visible columns, skipping ANSI escape sequences when measuring width.
func wrapLine(line string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{line}
	}

	var result []string
	var cur strings.Builder
	visW := 0

	i := 0
	for i < len(line) {
		// ESC[ ... m
		if i+1 < len(line) && line[i] == '\033' && line[i+1] == '[' {
			j := i + 2
			for j < len(line) && line[j] != 'm' {
				j++
			}
			if j < len(line) {
				j++ // include 'm'
			}
			cur.WriteString(line[i:j])
			i = j
			continue
		}

		r, size := utf8.DecodeRuneInString(line[i:])
		rw := runewidth.RuneWidth(r)

		if visW+rw > maxWidth {
			result = append(result, cur.String())
			cur.Reset()
			visW = 0
		}

		cur.WriteRune(r)
		visW += rw
		i += size
	}

	if cur.Len() > 0 {
		result = append(result, cur.String())
	}

	if len(result) == 0 {
		return []string{""}
	}
	return result
}

// RenderExport renders the archived records of one export around a hit and
// returns the content plus the 0-based line of the hit header (-1 if none).
func RenderExport(db *index.DB, exportKey string, opts Options) (string, int, error) {
	if opts.Context == 0 {
		opts.Context = 10
	}
	if opts.Context < 0 {
		opts.Context = 1000000 // no limit
	}

	export, err := db.GetExportByKey(exportKey)
	if err != nil {
		return "", -1, fmt.Errorf("get export: %w", err)
	}

	records, hitIdx, startPos, totalCount, err := db.GetRecordsWindow(exportKey, opts.HitRecordID, opts.Context)
	if err != nil {
		return "", -1, fmt.Errorf("get records: %w", err)
	}

	if totalCount == 0 {
		return "(no training session in this export)", -1, nil
	}

	skipAfter := totalCount - startPos - len(records)

	var b strings.Builder
	hitLine := -1
	lineCount := 0

	writeLine := func(s string) {
		for _, wl := range wrapLine(s, opts.Width) {
			b.WriteString(wl)
			b.WriteString("\n")
			lineCount++
		}
	}

	writeLine(fmt.Sprintf("%s--- %s [%s .. %s] %d sessions ---%s",
		colorDim, exportKey, export.FirstDate, export.LastDate, totalCount, colorReset))

	if startPos > 0 {
		writeLine(fmt.Sprintf("%s... (%d sessions before) ...%s", colorDim, startPos, colorReset))
	}

	for i, r := range records {
		if i == hitIdx {
			hitLine = lineCount
			writeLine(fmt.Sprintf("%s>> %s %s %s <<%s", colorHit, r.Date, r.Time, r.Author, colorReset))
		} else {
			writeLine(fmt.Sprintf("%s%s %s%s %s%s%s", colorDim, r.Date, r.Time, colorReset, colorAuthor, r.Author, colorReset))
		}

		text := highlightKeywords(r.Message, opts.Query)
		writeLine(indentLines(text, "  "))
	}

	if skipAfter > 0 {
		writeLine(fmt.Sprintf("%s... (%d sessions after) ...%s", colorDim, skipAfter, colorReset))
	}

	return b.String(), hitLine, nil
}
