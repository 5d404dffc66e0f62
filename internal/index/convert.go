package index

import (
	"time"

	"github.com/Zuo-Peng/trainlog/internal/parse"
)

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// ToRecord converts an archived row back into a parse.Record.
func (r RecordRow) ToRecord() parse.Record {
	d, _ := time.Parse("2006-01-02", r.Date)
	return parse.Record{
		Date:    d,
		Time:    r.Time,
		Author:  r.Author,
		Message: r.Message,
		Line:    r.LineNumber,
	}
}
