package parse

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParse_TrainingLine(t *testing.T) {
	records := Parse("[5/3/2024, 7:30] Alice: Morning run done 🏃")

	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, date(2024, time.March, 5), r.Date)
	assert.Equal(t, "2024-03-05", r.DateString())
	assert.Equal(t, "07:30", r.Time)
	assert.Equal(t, "Alice", r.Author)
	assert.Equal(t, "Morning run done 🏃", r.Message)
	assert.Equal(t, 1, r.Line)
}

func TestParse_Skips(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"no keyword", "[5/3/2024, 7:30] Alice: Good morning everyone"},
		{"no timestamp", "hello this has no timestamp"},
		{"two digit year", "[5/3/24, 7:30] Alice: run"},
		{"three digit year", "[5/3/202, 7:30] Alice: run"},
		{"invalid day", "[31/4/2024, 7:30] Alice: run"},
		{"invalid month", "[5/13/2024, 7:30] Alice: run"},
		{"invalid hour", "[5/3/2024, 24:00] Alice: run"},
		{"single digit minute", "[5/3/2024, 7:3] Alice: run"},
		{"leading text", "fwd: [5/3/2024, 7:30] Alice: run"},
		{"no author separator", "[5/3/2024, 7:30] Alice joined using this group's invite link run"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, Parse(tt.line))
		})
	}
}

func TestIsTraining(t *testing.T) {
	matches := []string{
		"SPORT", "Sport", "sport",
		"Muscu", "muscu",
		"I went for a run today",
		"overrunning the meeting",
		"Muscular",
		"Entrainement du soir",
		"💪", "done 🏋", "🏊 500m",
	}
	for _, m := range matches {
		assert.True(t, IsTraining(m), "expected %q to match", m)
	}

	misses := []string{"Good morning", "", "entraînement", "🚴"}
	for _, m := range misses {
		assert.False(t, IsTraining(m), "expected %q not to match", m)
	}
}

func TestParse_AuthorAndMessage(t *testing.T) {
	t.Run("author stops at first separator", func(t *testing.T) {
		records := Parse("[1/1/2024, 10:00] +33 6 12 34 56 78: note: sport today")
		require.Len(t, records, 1)
		assert.Equal(t, "+33 6 12 34 56 78", records[0].Author)
		assert.Equal(t, "note: sport today", records[0].Message)
	})

	t.Run("message is not trimmed", func(t *testing.T) {
		records := Parse("[1/1/2024, 10:00] Bob:   muscu  ")
		require.Len(t, records, 1)
		assert.Equal(t, "  muscu  ", records[0].Message)
	})

	t.Run("carriage returns are stripped", func(t *testing.T) {
		records := Parse("[1/1/2024, 10:00] Bob: run\r\n[2/1/2024, 11:00] Bob: run\r\n")
		require.Len(t, records, 2)
		assert.Equal(t, "run", records[0].Message)
		assert.Equal(t, 2, records[1].Line)
	})
}

func TestParse_PreservesOrder(t *testing.T) {
	text := strings.Join([]string{
		"[9/3/2024, 8:00] Zoe: run",
		"[1/3/2024, 8:00] Adam: sport",
		"continuation line with run but no timestamp",
		"[5/3/2024, 8:00] Mia: hello",
		"[3/3/2024, 8:00] Bob: muscu",
	}, "\n")

	records := Parse(text)

	require.Len(t, records, 3)
	assert.Equal(t, []string{"Zoe", "Adam", "Bob"},
		[]string{records[0].Author, records[1].Author, records[2].Author})
	assert.Equal(t, []int{1, 2, 5},
		[]int{records[0].Line, records[1].Line, records[2].Line})
}

func TestParse_LineBreaks(t *testing.T) {
	breaks := map[string]string{
		"LF":       "\n",
		"CRLF":     "\r\n",
		"CR":       "\r",
		"VT":       "\v",
		"FF":       "\f",
		"FS":       "\x1c",
		"GS":       "\x1d",
		"RS":       "\x1e",
		"NEL":      "\u0085",
		"LINE SEP": "\u2028",
		"PARA SEP": "\u2029",
	}

	for name, sep := range breaks {
		t.Run(name, func(t *testing.T) {
			text := "[5/3/2024, 7:30] Alice: hello" + sep + "[6/3/2024, 7:30] Bob: sport"

			records := Parse(text)
			require.Len(t, records, 1)
			assert.Equal(t, "Bob", records[0].Author)
			assert.Equal(t, "sport", records[0].Message)
			assert.Equal(t, 2, records[0].Line)

			got, err := ParseReader(strings.NewReader(text))
			require.NoError(t, err)
			assert.Equal(t, records, got)
		})
	}

	t.Run("no-break space", func(t *testing.T) {
		records := Parse("[5/3/2024, 7:30] Alice: hello\u00a0[6/3/2024, 7:30] Bob: sport")
		require.Len(t, records, 1)
		assert.Equal(t, "Alice", records[0].Author)
	})
}

func TestParse_Empty(t *testing.T) {
	assert.Empty(t, Parse(""))
}

func TestParseLine(t *testing.T) {
	rec, ok := ParseLine("[12/11/2023, 18:05] Léa: Entrainement 💪")
	require.True(t, ok)
	assert.Equal(t, date(2023, time.November, 12), rec.Date)
	assert.Equal(t, "18:05", rec.Time)

	_, ok = ParseLine("[12/11/2023, 18:05] Léa: à demain")
	assert.False(t, ok)

	msg, ok := ParseMessage("[12/11/2023, 18:05] Léa: à demain")
	require.True(t, ok)
	assert.Equal(t, "à demain", msg.Message)
}

func TestParseReader_MatchesParse(t *testing.T) {
	text := "[1/1/2024, 6:00] A: run\nnoise\n[2/1/2024, 6:00] B: sport\n"

	got, err := ParseReader(strings.NewReader(text))
	require.NoError(t, err)
	assert.Equal(t, Parse(text), got)
}

func TestParseFile(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "team")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "chat.txt")
	content := strings.Join([]string{
		"[8/1/2024, 6:00] A: run",
		"[1/1/2024, 6:00] B: hello",
		"[3/1/2024, 7:15] B: sport",
		"trailing",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	res, err := ParseFile(path, root)
	require.NoError(t, err)

	assert.Equal(t, "team/chat", res.Meta.ExportKey)
	assert.Equal(t, path, res.Meta.FilePath)
	assert.Equal(t, int64(len(content)), res.Meta.Size)
	assert.Equal(t, 4, res.Meta.Lines)
	assert.Equal(t, 3, res.Meta.Messages)
	assert.Equal(t, date(2024, time.January, 3), res.Meta.FirstDate)
	assert.Equal(t, date(2024, time.January, 8), res.Meta.LastDate)
	require.Len(t, res.Records, 2)
	assert.Equal(t, 3, res.Records[1].Line)
}

func TestParseFile_Missing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "nope.txt"), "")
	assert.Error(t, err)
}
