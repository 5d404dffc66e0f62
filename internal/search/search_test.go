package search

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Zuo-Peng/trainlog/internal/index"
)

const chat = `[4/3/2024, 7:00] Alice: run 5k au parc
[5/3/2024, 18:30] Bob: séance muscu ce soir 💪
[6/3/2024, 12:00] Alice: sport avec Bob
[9/3/2024, 9:15] Chloe: Entrainement natation 🏊`

func seed(t *testing.T) *index.DB {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "team.txt"), []byte(chat), 0o644))

	db, err := index.OpenDB(filepath.Join(t.TempDir(), "trainlog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = index.IndexAll(db, root, zap.NewNop())
	require.NoError(t, err)
	return db
}

func authors(results []Result) []string {
	var out []string
	for _, r := range results {
		out = append(out, r.Author)
	}
	return out
}

func TestSearch_FTS(t *testing.T) {
	db := seed(t)

	results, err := Search(db, Options{Query: "muscu"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Bob", results[0].Author)
	assert.Equal(t, "team", results[0].ExportKey)
	assert.Equal(t, 1, results[0].RecordID)
	assert.Equal(t, "2024-03-05", results[0].Date)
	assert.Contains(t, results[0].Snippet, ">>>muscu<<<")
}

func TestSearch_DiacriticsFolded(t *testing.T) {
	db := seed(t)

	results, err := Search(db, Options{Query: "seance"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob"}, authors(results))
}

func TestSearch_Filters(t *testing.T) {
	db := seed(t)

	results, err := Search(db, Options{Query: "bob"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Bob", "Alice"}, authors(results))

	results, err = Search(db, Options{Query: "bob", Author: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice"}, authors(results))

	results, err = Search(db, Options{Query: "run OR sport OR muscu", Since: "2024-03-05"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Bob", "Alice"}, authors(results))
}

func TestSearch_EmojiUsesLike(t *testing.T) {
	db := seed(t)

	results, err := Search(db, Options{Query: "🏊"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Chloe", results[0].Author)
	assert.Contains(t, results[0].Snippet, ">>>🏊<<<")
}

func TestSearch_LikeWildcardsAreLiteral(t *testing.T) {
	db := seed(t)

	results, err := Search(db, Options{Query: "_💪"})
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = Search(db, Options{Query: "🏊%"})
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = Search(db, Options{Query: "💪"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob"}, authors(results))
}

func TestListAll(t *testing.T) {
	db := seed(t)

	results, err := Search(db, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Chloe", "Alice", "Bob", "Alice"}, authors(results))

	results, err = ListAll(db, Options{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestMakeSnippet(t *testing.T) {
	assert.Equal(t, "...a >>>run<<< t...", makeSnippet("go for a run today", "run", 2))
	assert.Equal(t, ">>>Run<<<", makeSnippet("Run", "run", 5))
	assert.Equal(t, "abcd...", makeSnippet("abcdefgh", "zzz", 2))
}

func TestNeedsLike(t *testing.T) {
	assert.True(t, needsLike("💪"))
	assert.True(t, needsLike("跑步"))
	assert.False(t, needsLike("entraînement"))
	assert.False(t, needsLike("run"))
}
