package parse

import "time"

// Record is one training-related message taken from a chat export.
type Record struct {
	Date    time.Time // calendar date, midnight UTC
	Time    string    // time of day, "15:04"
	Author  string
	Message string // verbatim body, not trimmed
	Line    int    // 1-based line number in the export
}

// DateString formats the record date as YYYY-MM-DD.
func (r Record) DateString() string {
	return r.Date.Format(dateLayout)
}

type ExportMeta struct {
	ExportKey string
	FilePath  string
	Mtime     time.Time
	Size      int64
	Lines     int // lines read
	Messages  int // lines that parsed as dated messages
	FirstDate time.Time
	LastDate  time.Time
}

type ParseResult struct {
	Meta    ExportMeta
	Records []Record
}
