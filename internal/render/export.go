package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Zuo-Peng/trainlog/internal/report"
)

// Formats accepted by Write.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCSV  = "csv"
)

type RecordView struct {
	Date    string `json:"date" yaml:"date"`
	Time    string `json:"time" yaml:"time"`
	Author  string `json:"author" yaml:"author"`
	Message string `json:"message" yaml:"message"`
}

type WeekView struct {
	Week   string `json:"week" yaml:"week"`
	Range  string `json:"range" yaml:"range"`
	Author string `json:"author" yaml:"author"`
	Count  int    `json:"count" yaml:"count"`
}

// View is the serialized form of a report.RenderModel.
type View struct {
	Empty    bool                 `json:"empty" yaml:"empty"`
	Total    int                  `json:"total" yaml:"total"`
	Members  int                  `json:"members" yaml:"members"`
	First    string               `json:"first,omitempty" yaml:"first,omitempty"`
	Last     string               `json:"last,omitempty" yaml:"last,omitempty"`
	ByAuthor []report.AuthorCount `json:"by_author" yaml:"by_author"`
	ByWeek   []WeekView           `json:"by_week" yaml:"by_week"`
	Records  []RecordView         `json:"records" yaml:"records"`
}

func NewView(rm report.RenderModel) View {
	v := View{
		Empty:    rm.Empty,
		Total:    rm.Total,
		Members:  rm.Members,
		First:    formatDay(rm.First),
		Last:     formatDay(rm.Last),
		ByAuthor: rm.ByAuthor,
		ByWeek:   make([]WeekView, 0, len(rm.ByWeek)),
		Records:  make([]RecordView, 0, len(rm.Records)),
	}
	if v.ByAuthor == nil {
		v.ByAuthor = []report.AuthorCount{}
	}
	for _, wc := range rm.ByWeek {
		v.ByWeek = append(v.ByWeek, WeekView{
			Week:   wc.Week.Label(),
			Range:  wc.Week.Range(),
			Author: wc.Author,
			Count:  wc.Count,
		})
	}
	for _, r := range rm.Records {
		v.Records = append(v.Records, RecordView{
			Date:    r.DateString(),
			Time:    r.Time,
			Author:  r.Author,
			Message: r.Message,
		})
	}
	return v
}

// Write serializes rm to w in the given format.
func Write(w io.Writer, rm report.RenderModel, format string, opts SummaryOptions) error {
	switch format {
	case FormatText, "":
		_, err := io.WriteString(w, Summary(rm, opts))
		return err

	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(NewView(rm))

	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(NewView(rm)); err != nil {
			return err
		}
		return enc.Close()

	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"date", "time", "author", "message"}); err != nil {
			return err
		}
		for _, r := range rm.Records {
			if err := cw.Write([]string{r.DateString(), r.Time, r.Author, r.Message}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()

	default:
		return fmt.Errorf("unknown format %q (want text, json, yaml or csv)", format)
	}
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
