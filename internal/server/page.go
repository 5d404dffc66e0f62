package server

import (
	"strconv"

	"github.com/Zuo-Peng/trainlog/internal/render"
	"github.com/Zuo-Peng/trainlog/internal/report"
)

type metric struct {
	Label string
	Value string
}

type bar struct {
	Author  string
	Count   int
	Percent int
}

type weekRow struct {
	Label  string
	Range  string
	Counts []int
}

// pageData feeds templates/index.html.
type pageData struct {
	UploadID string
	Filename string
	Info     string
	Error    string
	Warning  string
	MaxBytes int64

	Loaded  bool
	Banner  string
	Metrics []metric
	Bars    []bar
	Authors []string
	Weeks   []weekRow
	Records []render.RecordView
}

func (p pageData) MaxMB() int64 { return p.MaxBytes >> 20 }

func newPageData(uploadID, filename string, maxBytes int64, rm report.RenderModel) pageData {
	p := pageData{
		UploadID: uploadID,
		Filename: filename,
		MaxBytes: maxBytes,
	}
	if rm.Empty {
		p.Warning = render.NothingDetected
		return p
	}

	view := render.NewView(rm)
	p.Loaded = true
	p.Banner = strconv.Itoa(rm.Total) + " training sessions detected"
	p.Metrics = []metric{
		{"Total sessions", strconv.Itoa(view.Total)},
		{"Active members", strconv.Itoa(view.Members)},
		{"Last activity", view.Last},
		{"First activity", view.First},
	}

	maxCount := rm.MaxAuthorCount()
	for _, ac := range rm.ByAuthor {
		p.Bars = append(p.Bars, bar{
			Author:  ac.Author,
			Count:   ac.Count,
			Percent: ac.Count * 100 / maxCount,
		})
	}

	p.Authors = rm.Authors
	for i, w := range rm.Weeks {
		p.Weeks = append(p.Weeks, weekRow{
			Label:  w.Label(),
			Range:  w.Range(),
			Counts: rm.Matrix[i],
		})
	}

	p.Records = view.Records
	return p
}
