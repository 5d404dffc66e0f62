package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/trainlog/internal/render"
	"github.com/Zuo-Peng/trainlog/internal/search"
)

const chat = `[4/3/2024, 7:00] Alice: run 5k
[5/3/2024, 18:30] Bob: muscu, 💪
[5/3/2024, 19:00] Bob: see you tomorrow
[6/3/2024, 12:00] Alice: sport
[12/3/2024, 12:00] Alice: Morning run`

type testEnv struct {
	cfgPath    string
	exportsDir string
	dbPath     string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("TRAINLOG_DB_PATH", "")
	t.Setenv("TRAINLOG_LISTEN", "")

	env := testEnv{
		cfgPath:    filepath.Join(dir, "config.toml"),
		exportsDir: filepath.Join(dir, "exports"),
		dbPath:     filepath.Join(dir, "trainlog.db"),
	}
	require.NoError(t, os.MkdirAll(env.exportsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(env.exportsDir, "team.txt"), []byte(chat), 0o644))

	cfg := fmt.Sprintf("exports_dir = %q\ndb_path = %q\nlog_level = \"error\"\n", env.exportsDir, env.dbPath)
	require.NoError(t, os.WriteFile(env.cfgPath, []byte(cfg), 0o644))
	return env
}

func (e testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append(args, "--config", e.cfgPath))
	err := cmd.Execute()
	return out.String(), err
}

func TestReportCmd_Text(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "report", filepath.Join(env.exportsDir, "team.txt"), "--width", "60")
	require.NoError(t, err)

	assert.Contains(t, out, "4 training sessions detected")
	assert.Contains(t, out, "Active members   2")
	assert.NotContains(t, out, "see you tomorrow")
	assert.NotContains(t, out, "\033[")
}

func TestReportCmd_JSON(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "report", filepath.Join(env.exportsDir, "team.txt"), "--format", "json")
	require.NoError(t, err)

	var v render.View
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, 4, v.Total)
	assert.Equal(t, "2024-03-12", v.Last)
}

func TestReportCmd_Stdin(t *testing.T) {
	env := newTestEnv(t)

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("[4/3/2024, 7:00] Alice: hello"))
	cmd.SetArgs([]string{"report", "-", "--config", env.cfgPath})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, render.NothingDetected+"\n", out.String())
}

func TestReportCmd_Errors(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "report")
	assert.ErrorContains(t, err, "missing export file")

	bad := filepath.Join(t.TempDir(), "bad.txt")
	require.NoError(t, os.WriteFile(bad, []byte{0xff, 0xfe}, 0o644))
	_, err = env.run(t, "report", bad)
	assert.ErrorContains(t, err, "UTF-8")

	_, err = env.run(t, "report", "x.txt", "--export", "team")
	assert.ErrorContains(t, err, "not both")

	_, err = env.run(t, "report", "x.txt", "--format", "xml")
	assert.Error(t, err)
}

func TestIndexSearchAndArchivedReport(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "index")
	require.NoError(t, err)

	out, err := env.run(t, "search", "muscu", "--no-index")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "team\t1\t"))

	out, err = env.run(t, "report", "--export", "team", "--format", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, `2024-03-05,18:30,Bob,"muscu, 💪"`)

	out, err = env.run(t, "preview", "team", "--hit", "1", "--context", "1")
	require.NoError(t, err)
	assert.Contains(t, out, ">> 2024-03-05 18:30 Bob <<")

	_, err = env.run(t, "report", "--export", "missing")
	assert.Error(t, err)
}

func TestDoctorCmd(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "doctor")
	require.NoError(t, err)
	assert.Contains(t, out, "Text exports: 1")
	assert.Contains(t, out, "run 'trainlog index' first")

	_, err = env.run(t, "index")
	require.NoError(t, err)

	out, err = env.run(t, "doctor")
	require.NoError(t, err)
	assert.Contains(t, out, "Sessions: 4")
	assert.Contains(t, out, "Status: OK (synced)")
	assert.Contains(t, out, "Alice")
}

func TestWriteResults(t *testing.T) {
	var buf bytes.Buffer
	writeResults(&buf, []search.Result{{
		ExportKey: "team",
		RecordID:  3,
		Date:      "2024-03-12",
		Time:      "12:00",
		Author:    "Alice",
		Snippet:   "Morning >>>run<<<\tfast",
	}})

	fields := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\t")
	require.Len(t, fields, 5)
	assert.Equal(t, "team", fields[0])
	assert.Equal(t, "3", fields[1])
	assert.Equal(t, "Morning "+sColorBoldRed+"run"+sColorReset+" fast", fields[4])
}
