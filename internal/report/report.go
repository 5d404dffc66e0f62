// Package report turns training records into the figures shown on the
// dashboards: totals, per-member counts and weekly activity.
package report

import (
	"errors"
	"fmt"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/Zuo-Peng/trainlog/internal/parse"
)

// ErrNotUTF8 is returned by ProcessUpload for content that is not valid UTF-8.
var ErrNotUTF8 = errors.New("upload is not valid UTF-8 text")

type AuthorCount struct {
	Author string `json:"author" yaml:"author"`
	Count  int    `json:"count" yaml:"count"`
}

// Week identifies a Monday-to-Sunday calendar week.
type Week struct {
	Start time.Time // Monday, midnight UTC
}

// WeekOf returns the week containing d.
func WeekOf(d time.Time) Week {
	d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(d.Weekday()) + 6) % 7 // days since Monday
	return Week{Start: d.AddDate(0, 0, -offset)}
}

// End returns the Sunday closing the week.
func (w Week) End() time.Time {
	return w.Start.AddDate(0, 0, 6)
}

// Label is the ISO week, e.g. "2024-W10".
func (w Week) Label() string {
	y, n := w.Start.ISOWeek()
	return fmt.Sprintf("%d-W%02d", y, n)
}

// Range is "2024-03-04/2024-03-10".
func (w Week) Range() string {
	return w.Start.Format("2006-01-02") + "/" + w.End().Format("2006-01-02")
}

type WeekCount struct {
	Week   Week
	Author string
	Count  int
}

type Report struct {
	Total   int
	Members int
	First   time.Time
	Last    time.Time

	ByAuthor []AuthorCount
	ByWeek   []WeekCount

	// Weeks x Authors pivot of ByWeek with zero fill.
	Weeks   []Week
	Authors []string
	Matrix  [][]int

	Records []parse.Record
}

// Build computes the report for records, which are kept in their given order.
func Build(records []parse.Record) Report {
	rep := Report{
		Total:   len(records),
		Records: records,
	}
	if len(records) == 0 {
		return rep
	}

	perAuthor := make(map[string]int)
	type key struct {
		week   time.Time
		author string
	}
	perWeek := make(map[key]int)

	for _, r := range records {
		perAuthor[r.Author]++
		perWeek[key{WeekOf(r.Date).Start, r.Author}]++

		if rep.First.IsZero() || r.Date.Before(rep.First) {
			rep.First = r.Date
		}
		if r.Date.After(rep.Last) {
			rep.Last = r.Date
		}
	}
	rep.Members = len(perAuthor)

	for a, n := range perAuthor {
		rep.ByAuthor = append(rep.ByAuthor, AuthorCount{Author: a, Count: n})
		rep.Authors = append(rep.Authors, a)
	}
	sort.Slice(rep.ByAuthor, func(i, j int) bool {
		if rep.ByAuthor[i].Count != rep.ByAuthor[j].Count {
			return rep.ByAuthor[i].Count > rep.ByAuthor[j].Count
		}
		return rep.ByAuthor[i].Author < rep.ByAuthor[j].Author
	})
	sort.Strings(rep.Authors)

	for k, n := range perWeek {
		rep.ByWeek = append(rep.ByWeek, WeekCount{Week: Week{Start: k.week}, Author: k.author, Count: n})
	}
	sort.Slice(rep.ByWeek, func(i, j int) bool {
		a, b := rep.ByWeek[i], rep.ByWeek[j]
		if !a.Week.Start.Equal(b.Week.Start) {
			return a.Week.Start.Before(b.Week.Start)
		}
		return a.Author < b.Author
	})

	rep.pivot()
	return rep
}

func (rep *Report) pivot() {
	authorIdx := make(map[string]int, len(rep.Authors))
	for i, a := range rep.Authors {
		authorIdx[a] = i
	}

	for _, wc := range rep.ByWeek {
		if n := len(rep.Weeks); n == 0 || !rep.Weeks[n-1].Start.Equal(wc.Week.Start) {
			rep.Weeks = append(rep.Weeks, wc.Week)
			rep.Matrix = append(rep.Matrix, make([]int, len(rep.Authors)))
		}
		rep.Matrix[len(rep.Matrix)-1][authorIdx[wc.Author]] = wc.Count
	}
}

// CountFor returns the number of records by author.
func (rep Report) CountFor(author string) int {
	for _, ac := range rep.ByAuthor {
		if ac.Author == author {
			return ac.Count
		}
	}
	return 0
}

// MaxAuthorCount is the largest per-member count, used to scale bar charts.
func (rep Report) MaxAuthorCount() int {
	if len(rep.ByAuthor) == 0 {
		return 0
	}
	return rep.ByAuthor[0].Count
}

// RenderModel is what a dashboard needs for one uploaded export.
type RenderModel struct {
	Report
	Empty bool
}

// ProcessUpload decodes and parses an uploaded export. An export without any
// training record is not an error: Empty is set instead.
func ProcessUpload(data []byte) (RenderModel, error) {
	if !utf8.Valid(data) {
		return RenderModel{}, ErrNotUTF8
	}
	rep := Build(parse.Parse(string(data)))
	return RenderModel{Report: rep, Empty: rep.Total == 0}, nil
}
