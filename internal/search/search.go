package search

import (
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	"github.com/Zuo-Peng/trainlog/internal/index"
)

type Result struct {
	ExportKey string
	RecordID  int
	Date      string
	Time      string
	Author    string
	Snippet   string
	Rank      float64
}

type Options struct {
	Query  string
	Author string // "" = all
	Since  string // "" = no filter, e.g. "2024-01-01"
	Limit  int
}

// needsLike reports whether query holds characters the unicode61 tokenizer
// drops (emoji) or does not split (CJK), which FTS5 cannot match.
func needsLike(s string) bool {
	for _, r := range s {
		if unicode.IsSymbol(r) || unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// makeSnippet extracts a snippet around the first occurrence of query in text.
func makeSnippet(text, query string, contextChars int) string {
	lower := strings.ToLower(text)
	qLower := strings.ToLower(query)
	idx := strings.Index(lower, qLower)
	runes := []rune(text)
	if idx < 0 || len(lower) != len(text) {
		// no match, or lowering changed byte offsets: return head
		if len(runes) > contextChars*2 {
			return string(runes[:contextChars*2]) + "..."
		}
		return text
	}
	qLen := len([]rune(query))
	runePos := len([]rune(text[:idx]))
	start := max(runePos-contextChars, 0)
	end := min(runePos+qLen+contextChars, len(runes))

	prefix, suffix := "", ""
	if start > 0 {
		prefix = "..."
	}
	if end < len(runes) {
		suffix = "..."
	}
	snippet := string(runes[start:runePos]) +
		">>>" + string(runes[runePos:runePos+qLen]) + "<<<" +
		string(runes[runePos+qLen:end])
	return prefix + snippet + suffix
}

// Search finds archived training records matching opts.Query, best first.
func Search(db *index.DB, opts Options) ([]Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}
	if strings.TrimSpace(opts.Query) == "" {
		return ListAll(db, opts)
	}
	if needsLike(opts.Query) {
		return searchLike(db, opts)
	}
	return searchFTS(db, opts)
}

// filters returns the WHERE conditions shared by every query shape.
func filters(opts Options) ([]string, []any) {
	var conditions []string
	var args []any

	if opts.Author != "" {
		conditions = append(conditions, "r.author = ?")
		args = append(args, opts.Author)
	}
	if opts.Since != "" {
		conditions = append(conditions, "r.date >= ?")
		args = append(args, opts.Since)
	}
	return conditions, args
}

func searchFTS(db *index.DB, opts Options) ([]Result, error) {
	conditions := []string{"records_fts MATCH ?"}
	args := []any{opts.Query}

	more, moreArgs := filters(opts)
	conditions = append(conditions, more...)
	args = append(args, moreArgs...)

	query := fmt.Sprintf(`
		SELECT
			r.export_key,
			r.record_id,
			r.date,
			r.time,
			r.author,
			snippet(records_fts, 1, '>>>', '<<<', '...', 24) AS snip,
			bm25(records_fts) AS rank
		FROM records_fts
		JOIN records r ON records_fts.rowid = r.rowid
		WHERE %s
		ORDER BY rank
		LIMIT ?
	`, strings.Join(conditions, " AND "))
	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	return scanResults(rows, true)
}

// likeEscaper makes LIKE wildcards in a query match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func searchLike(db *index.DB, opts Options) ([]Result, error) {
	conditions := []string{`r.message LIKE ? ESCAPE '\'`}
	args := []any{"%" + likeEscaper.Replace(opts.Query) + "%"}

	more, moreArgs := filters(opts)
	conditions = append(conditions, more...)
	args = append(args, moreArgs...)

	query := fmt.Sprintf(`
		SELECT r.export_key, r.record_id, r.date, r.time, r.author, r.message
		FROM records r
		WHERE %s
		ORDER BY r.date DESC, r.time DESC
		LIMIT ?
	`, strings.Join(conditions, " AND "))
	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	results, err := scanResults(rows, false)
	if err != nil {
		return nil, err
	}
	for i := range results {
		results[i].Snippet = makeSnippet(results[i].Snippet, opts.Query, 30)
	}
	return results, nil
}

// ListAll returns the most recent archived records, newest first.
func ListAll(db *index.DB, opts Options) ([]Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}
	conditions, args := filters(opts)
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT r.export_key, r.record_id, r.date, r.time, r.author, r.message
		FROM records r
		%s
		ORDER BY r.date DESC, r.time DESC
		LIMIT ?
	`, where)
	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	return scanResults(rows, false)
}

func scanResults(rows *sql.Rows, ranked bool) ([]Result, error) {
	var results []Result
	for rows.Next() {
		var r Result
		dest := []any{&r.ExportKey, &r.RecordID, &r.Date, &r.Time, &r.Author, &r.Snippet}
		if ranked {
			dest = append(dest, &r.Rank)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
