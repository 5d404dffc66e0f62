package index

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Zuo-Peng/trainlog/internal/parse"
	"github.com/Zuo-Peng/trainlog/internal/scan"
)

type Stats struct {
	Scanned int
	Updated int
	Skipped int
	Pruned  int
	Errors  int
	Records int
}

func (s Stats) String() string {
	return fmt.Sprintf("scanned=%d updated=%d skipped=%d pruned=%d errors=%d records=%d",
		s.Scanned, s.Updated, s.Skipped, s.Pruned, s.Errors, s.Records)
}

// IndexAll archives every export under root, re-parsing only files whose
// mtime or size changed, and drops exports whose files are gone.
func IndexAll(db *DB, root string, log *zap.Logger) (Stats, error) {
	var stats Stats

	files, err := scan.ScanExports(root)
	if err != nil {
		return stats, fmt.Errorf("scan: %w", err)
	}
	stats.Scanned = len(files)

	// track which files we see, for pruning
	seenKeys := make(map[string]struct{})

	for _, fi := range files {
		result, err := parse.ParseFile(fi.Path, root)
		if err != nil {
			stats.Errors++
			log.Warn("parse export", zap.String("path", fi.Path), zap.Error(err))
			continue
		}

		seenKeys[result.Meta.ExportKey] = struct{}{}

		needs, err := needsUpdate(db, result.Meta.ExportKey, fi.Mtime, fi.Size)
		if err != nil {
			stats.Errors++
			log.Warn("read export info", zap.String("export", result.Meta.ExportKey), zap.Error(err))
			continue
		}
		if !needs {
			stats.Skipped++
			continue
		}

		if err := IndexExport(db, result); err != nil {
			stats.Errors++
			log.Warn("index export", zap.String("path", fi.Path), zap.Error(err))
			continue
		}
		stats.Updated++
		stats.Records += len(result.Records)
		log.Debug("indexed export",
			zap.String("export", result.Meta.ExportKey),
			zap.Int("records", len(result.Records)))
	}

	// prune exports whose files no longer exist
	pruned, err := pruneExports(db, seenKeys)
	if err != nil {
		return stats, fmt.Errorf("prune: %w", err)
	}
	stats.Pruned = pruned

	return stats, nil
}

func needsUpdate(db *DB, exportKey string, mtime, size int64) (bool, error) {
	info, err := db.GetExportInfo(exportKey)
	if err != nil {
		return false, err
	}
	if info == nil {
		return true, nil // new export
	}
	return info.Mtime != mtime || info.Size != size, nil
}

// IndexExport replaces the archived copy of one parsed export.
func IndexExport(db *DB, result *parse.ParseResult) error {
	if err := db.DeleteExport(result.Meta.ExportKey); err != nil {
		return err
	}

	tx, err := db.Raw().Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	meta := result.Meta
	_, err = tx.Exec(
		`INSERT INTO exports (export_key, file_path, first_date, last_date, messages, lines, mtime, size)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.ExportKey,
		meta.FilePath,
		formatDate(meta.FirstDate),
		formatDate(meta.LastDate),
		meta.Messages,
		meta.Lines,
		meta.Mtime.Unix(),
		meta.Size,
	)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO records (export_key, record_id, date, time, author, message, line_number)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range result.Records {
		_, err := stmt.Exec(
			meta.ExportKey,
			i,
			r.DateString(),
			r.Time,
			r.Author,
			r.Message,
			r.Line,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func pruneExports(db *DB, seenKeys map[string]struct{}) (int, error) {
	allKeys, err := db.AllExportKeys()
	if err != nil {
		return 0, err
	}

	pruned := 0
	for key := range allKeys {
		if _, ok := seenKeys[key]; !ok {
			if err := db.DeleteExport(key); err != nil {
				return pruned, err
			}
			pruned++
		}
	}
	return pruned, nil
}
