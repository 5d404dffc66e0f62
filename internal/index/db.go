package index

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when an export key is not in the archive.
var ErrNotFound = errors.New("export not found")

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS exports (
    export_key  TEXT PRIMARY KEY,
    file_path   TEXT NOT NULL,
    first_date  TEXT NOT NULL DEFAULT '',
    last_date   TEXT NOT NULL DEFAULT '',
    messages    INTEGER NOT NULL DEFAULT 0,
    lines       INTEGER NOT NULL DEFAULT 0,
    mtime       INTEGER NOT NULL DEFAULT 0,
    size        INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS records (
    export_key  TEXT NOT NULL,
    record_id   INTEGER NOT NULL,
    date        TEXT NOT NULL,
    time        TEXT NOT NULL,
    author      TEXT NOT NULL,
    message     TEXT NOT NULL,
    line_number INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (export_key, record_id)
);

CREATE INDEX IF NOT EXISTS idx_records_author ON records(author);
CREATE INDEX IF NOT EXISTS idx_records_date ON records(date);

CREATE VIRTUAL TABLE IF NOT EXISTS records_fts USING fts5(
    author,
    message,
    content=records,
    content_rowid=rowid,
    tokenize='unicode61 remove_diacritics 2'
);

CREATE TRIGGER IF NOT EXISTS records_ai AFTER INSERT ON records BEGIN
    INSERT INTO records_fts(rowid, author, message) VALUES (new.rowid, new.author, new.message);
END;

CREATE TRIGGER IF NOT EXISTS records_ad AFTER DELETE ON records BEGIN
    INSERT INTO records_fts(records_fts, rowid, author, message) VALUES('delete', old.rowid, old.author, old.message);
END;

CREATE TRIGGER IF NOT EXISTS records_au AFTER UPDATE ON records BEGIN
    INSERT INTO records_fts(records_fts, rowid, author, message) VALUES('delete', old.rowid, old.author, old.message);
    INSERT INTO records_fts(rowid, author, message) VALUES (new.rowid, new.author, new.message);
END;

CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);
`

type DB struct {
	db *sql.DB
}

func OpenDB(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	d := &DB{db: db}
	if err := d.migrateSchemaVersion(); err != nil {
		db.Close()
		return nil, fmt.Errorf("schema version: %w", err)
	}

	return d, nil
}

// schemaVersion should be bumped whenever record parsing changes
// to force a full re-index.
const schemaVersion = "1"

func (d *DB) migrateSchemaVersion() error {
	var ver string
	err := d.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&ver)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if ver == schemaVersion {
		return nil
	}
	// force re-index by resetting all export mtime/size to 0
	if _, err := d.db.Exec("UPDATE exports SET mtime = 0, size = 0"); err != nil {
		return err
	}
	_, err = d.db.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)", schemaVersion)
	return err
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Raw() *sql.DB {
	return d.db
}

type ExportInfo struct {
	Mtime int64
	Size  int64
}

// GetExportInfo returns nil when the export has never been indexed.
func (d *DB) GetExportInfo(exportKey string) (*ExportInfo, error) {
	var info ExportInfo
	err := d.db.QueryRow(
		"SELECT mtime, size FROM exports WHERE export_key = ?",
		exportKey,
	).Scan(&info.Mtime, &info.Size)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (d *DB) AllExportKeys() (map[string]struct{}, error) {
	rows, err := d.db.Query("SELECT export_key FROM exports")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys[k] = struct{}{}
	}
	return keys, rows.Err()
}

func (d *DB) DeleteExport(exportKey string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM records WHERE export_key = ?", exportKey); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM exports WHERE export_key = ?", exportKey); err != nil {
		return err
	}
	return tx.Commit()
}

func (d *DB) ExportCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM exports").Scan(&n)
	return n, err
}

func (d *DB) RecordCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM records").Scan(&n)
	return n, err
}

func (d *DB) FTSCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM records_fts").Scan(&n)
	return n, err
}

type ExportRow struct {
	ExportKey string
	FilePath  string
	FirstDate string
	LastDate  string
	Messages  int
	Lines     int
}

func (d *DB) GetExportByKey(exportKey string) (*ExportRow, error) {
	var e ExportRow
	err := d.db.QueryRow(
		"SELECT export_key, file_path, first_date, last_date, messages, lines FROM exports WHERE export_key = ?",
		exportKey,
	).Scan(&e.ExportKey, &e.FilePath, &e.FirstDate, &e.LastDate, &e.Messages, &e.Lines)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, exportKey)
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

type RecordRow struct {
	ExportKey  string
	RecordID   int
	Date       string
	Time       string
	Author     string
	Message    string
	LineNumber int
}

const recordColumns = "export_key, record_id, date, time, author, message, line_number"

func scanRecord(rows *sql.Rows) (RecordRow, error) {
	var r RecordRow
	err := rows.Scan(&r.ExportKey, &r.RecordID, &r.Date, &r.Time, &r.Author, &r.Message, &r.LineNumber)
	return r, err
}

func (d *DB) GetRecords(exportKey string) ([]RecordRow, error) {
	rows, err := d.db.Query(
		"SELECT "+recordColumns+" FROM records WHERE export_key = ? ORDER BY record_id",
		exportKey,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []RecordRow
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetRecordsWindow returns up to context records on each side of hitRecordID.
// hitIdx is the position of the hit in the returned slice (-1 if absent),
// startPos the number of records before the window and totalCount the
// number of records in the export. A negative hitRecordID returns everything.
func (d *DB) GetRecordsWindow(exportKey string, hitRecordID, context int) (records []RecordRow, hitIdx int, startPos int, totalCount int, err error) {
	err = d.db.QueryRow(
		"SELECT COUNT(*) FROM records WHERE export_key = ?", exportKey,
	).Scan(&totalCount)
	if err != nil {
		return nil, -1, 0, 0, err
	}

	// record ids are dense and 0-based, so the id is the position
	startPos = 0
	limit := totalCount
	if hitRecordID >= 0 && hitRecordID < totalCount {
		startPos = max(hitRecordID-context, 0)
		endPos := min(hitRecordID+context+1, totalCount)
		limit = endPos - startPos
	}

	rows, err := d.db.Query(
		"SELECT "+recordColumns+" FROM records WHERE export_key = ? ORDER BY record_id LIMIT ? OFFSET ?",
		exportKey, limit, startPos,
	)
	if err != nil {
		return nil, -1, 0, 0, err
	}
	defer rows.Close()

	hitIdx = -1
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, -1, 0, 0, err
		}
		if r.RecordID == hitRecordID {
			hitIdx = len(records)
		}
		records = append(records, r)
	}
	return records, hitIdx, startPos, totalCount, rows.Err()
}

type AuthorTotal struct {
	Author string
	Count  int
}

// AuthorTotals counts archived records per author across all exports.
func (d *DB) AuthorTotals() ([]AuthorTotal, error) {
	rows, err := d.db.Query("SELECT author, COUNT(*) AS n FROM records GROUP BY author ORDER BY n DESC, author")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []AuthorTotal
	for rows.Next() {
		var a AuthorTotal
		if err := rows.Scan(&a.Author, &a.Count); err != nil {
			return nil, err
		}
		totals = append(totals, a)
	}
	return totals, rows.Err()
}
