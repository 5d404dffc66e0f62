package parse

import (
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const maxLineSize = 10 * 1024 * 1024 // 10MB

const (
	dateLayout      = "2006-01-02"
	clockLayout     = "15:04"
	timestampLayout = "2/1/2006 15:04"
)

// lineRe matches "[D/M/Y, H:MM] Author: Message" at the start of a line.
// The year group accepts 2 to 4 digits but only 4-digit years survive
// timestamp parsing.
var lineRe = regexp.MustCompile(`^\[(\d{1,2}/\d{1,2}/\d{2,4}), (\d{1,2}:\d{2})\] (.*?): (.*)`)

// ParseMessage parses one export line as a dated message, whether or not
// it mentions training. ok is false for continuation lines, system lines
// and timestamps that do not parse.
func ParseMessage(line string) (rec Record, ok bool) {
	m := lineRe.FindStringSubmatch(line)
	if m == nil {
		return Record{}, false
	}

	ts, err := time.Parse(timestampLayout, m[1]+" "+m[2])
	if err != nil {
		return Record{}, false
	}

	return Record{
		Date:    time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC),
		Time:    ts.Format(clockLayout),
		Author:  m[3],
		Message: m[4],
	}, true
}

// ParseLine returns the training record for line, if any.
func ParseLine(line string) (Record, bool) {
	rec, ok := ParseMessage(line)
	if !ok || !IsTraining(rec.Message) {
		return Record{}, false
	}
	return rec, true
}

// Parse extracts every training record from the full text of an export,
// in line order. Lines that do not qualify are skipped silently.
func Parse(chatText string) []Record {
	// a strings.Reader never fails and overlong lines are skipped
	records, _ := ParseReader(strings.NewReader(chatText))
	return records
}

// ParseReader is the streaming form of Parse. Only read errors are returned.
func ParseReader(r io.Reader) ([]Record, error) {
	res := &ParseResult{}
	if err := scanExport(r, res); err != nil {
		return nil, err
	}
	return res.Records, nil
}

// ParseFile parses an export on disk. The export key is the path relative
// to root without its extension.
func ParseFile(filePath, root string) (*ParseResult, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	rel, err := filepath.Rel(root, filePath)
	if err != nil {
		rel = filePath
	}

	result := &ParseResult{
		Meta: ExportMeta{
			ExportKey: strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel)),
			FilePath:  filePath,
			Mtime:     info.ModTime(),
			Size:      info.Size(),
		},
	}

	if err := scanExport(f, result); err != nil {
		return result, err
	}
	return result, nil
}

func scanExport(r io.Reader, result *ParseResult) error {
	scanner := newLineScanner(r, maxLineSize)

	lineNum := 0
	for scanner.Scan() {
		lineNum++

		rec, ok := ParseMessage(scanner.Text())
		if !ok {
			continue
		}
		result.Meta.Messages++

		if !IsTraining(rec.Message) {
			continue
		}
		rec.Line = lineNum

		if result.Meta.FirstDate.IsZero() || rec.Date.Before(result.Meta.FirstDate) {
			result.Meta.FirstDate = rec.Date
		}
		if rec.Date.After(result.Meta.LastDate) {
			result.Meta.LastDate = rec.Date
		}
		result.Records = append(result.Records, rec)
	}
	result.Meta.Lines = lineNum

	return scanner.Err()
}
