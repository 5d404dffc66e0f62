package render

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Zuo-Peng/trainlog/internal/index"
	"github.com/Zuo-Peng/trainlog/internal/report"
)

const chat = `[4/3/2024, 7:00] Alice: run 5k
[5/3/2024, 18:30] Bob: muscu, 💪
[6/3/2024, 12:00] Alice: sport
[12/3/2024, 12:00] Alice: Morning run`

func model(t *testing.T, text string) report.RenderModel {
	t.Helper()
	rm, err := report.ProcessUpload([]byte(text))
	require.NoError(t, err)
	return rm
}

func TestBars(t *testing.T) {
	lines := Bars(model(t, chat).Report, 40, false)

	require.Len(t, lines, 2)
	assert.Equal(t, "  Alice "+strings.Repeat("█", 30)+" 3", lines[0])
	assert.Equal(t, "  Bob   "+strings.Repeat("█", 10)+" 1", lines[1])
}

func TestWeekTable(t *testing.T) {
	lines := WeekTable(model(t, chat).Report, 80)

	require.Len(t, lines, 3)
	assert.Equal(t, "  week       Alice      Bob", lines[0])
	assert.Equal(t, "  2024-W10   2          1", lines[1])
	assert.Equal(t, "  2024-W11   1          0", lines[2])
}

func TestWeekTable_DropsColumnsThatDoNotFit(t *testing.T) {
	lines := WeekTable(model(t, chat).Report, 30)
	assert.Equal(t, "  week       Alice", lines[0])
}

func TestRecordTable(t *testing.T) {
	rm := model(t, chat)

	lines := RecordTable(rm.Records, 80)
	require.Len(t, lines, 4)
	assert.Equal(t, "  2024-03-05 18:30 Bob   muscu, 💪", lines[1])

	lines = RecordTable(rm.Records[:1], 30)
	assert.Equal(t, "  2024-03-04 07:00 Alice run …", lines[0])
}

func TestSummary(t *testing.T) {
	out := Summary(model(t, chat), SummaryOptions{Width: 60})

	assert.Contains(t, out, "4 training sessions detected")
	assert.Contains(t, out, "Total sessions   4")
	assert.Contains(t, out, "Active members   2")
	assert.Contains(t, out, "Last activity    2024-03-12")
	assert.Contains(t, out, "First activity   2024-03-04")
	assert.Contains(t, out, "Sessions per member")
	assert.Contains(t, out, "Activity per week")
	assert.NotContains(t, out, "\033[")
}

func TestSummary_Empty(t *testing.T) {
	out := Summary(model(t, "[4/3/2024, 7:00] Alice: hi"), SummaryOptions{})
	assert.Equal(t, NothingDetected+"\n", out)

	colored := Summary(model(t, ""), SummaryOptions{Color: true})
	assert.Contains(t, colored, colorWarn)
}

func TestWrite(t *testing.T) {
	rm := model(t, chat)

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, rm, FormatJSON, SummaryOptions{}))

		var v View
		require.NoError(t, json.Unmarshal(buf.Bytes(), &v))
		assert.Equal(t, 4, v.Total)
		assert.Equal(t, "2024-03-04", v.First)
		assert.Equal(t, RecordView{Date: "2024-03-05", Time: "18:30", Author: "Bob", Message: "muscu, 💪"}, v.Records[1])
		assert.Equal(t, WeekView{Week: "2024-W10", Range: "2024-03-04/2024-03-10", Author: "Alice", Count: 2}, v.ByWeek[0])
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, rm, FormatYAML, SummaryOptions{}))

		var v View
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &v))
		assert.Equal(t, 2, v.Members)
		assert.Equal(t, "Alice", v.ByAuthor[0].Author)
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, rm, FormatCSV, SummaryOptions{}))

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 5)
		assert.Equal(t, "date,time,author,message", lines[0])
		assert.Equal(t, `2024-03-05,18:30,Bob,"muscu, 💪"`, lines[2])
	})

	t.Run("empty json has arrays", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, model(t, ""), FormatJSON, SummaryOptions{}))
		assert.Contains(t, buf.String(), `"empty": true`)
		assert.Contains(t, buf.String(), `"records": []`)
	})

	t.Run("unknown", func(t *testing.T) {
		assert.Error(t, Write(&bytes.Buffer{}, rm, "xml", SummaryOptions{}))
	})
}

func TestHighlightKeywords(t *testing.T) {
	got := highlightKeywords("Morning Run and run", "run OR swim")
	assert.Equal(t, "Morning "+colorBoldRed+"Run"+colorReset+" and "+colorBoldRed+"run"+colorReset, got)
	assert.Equal(t, "plain", highlightKeywords("plain", ""))
}

func TestWrapLine(t *testing.T) {
	assert.Equal(t, []string{"abc", "def", "g"}, wrapLine("abcdefg", 3))
	assert.Equal(t, []string{colorDim + "ab", "cd" + colorReset}, wrapLine(colorDim+"abcd"+colorReset, 2))
	assert.Equal(t, []string{"💪", "💪"}, wrapLine("💪💪", 3))
}

func TestRenderExport(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "team.txt"), []byte(chat), 0o644))
	db, err := index.OpenDB(filepath.Join(t.TempDir(), "trainlog.db"))
	require.NoError(t, err)
	defer db.Close()
	_, err = index.IndexAll(db, root, zap.NewNop())
	require.NoError(t, err)

	out, hitLine, err := RenderExport(db, "team", Options{HitRecordID: 2, Context: 1, Query: "sport"})
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	assert.Equal(t, 4, hitLine)
	assert.Contains(t, lines[0], "team [2024-03-04 .. 2024-03-12] 4 sessions")
	assert.Contains(t, lines[1], "(1 sessions before)")
	assert.Contains(t, lines[hitLine], ">> 2024-03-06 12:00 Alice <<")
	assert.Contains(t, out, colorBoldRed+"sport"+colorReset)
	assert.NotContains(t, out, "sessions after")

	_, _, err = RenderExport(db, "missing", Options{})
	assert.ErrorIs(t, err, index.ErrNotFound)
}
