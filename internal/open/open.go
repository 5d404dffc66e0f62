package open

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/Zuo-Peng/trainlog/internal/index"
)

// OpenExport opens the original export in $EDITOR, at the line of
// hitRecordID when it is set.
func OpenExport(db *index.DB, exportKey string, hitRecordID int) error {
	export, err := db.GetExportByKey(exportKey)
	if err != nil {
		return fmt.Errorf("get export: %w", err)
	}

	filePath := export.FilePath
	if _, err := os.Stat(filePath); err != nil {
		return fmt.Errorf("file not found: %s", filePath)
	}

	lineNum, err := recordLine(db, exportKey, hitRecordID)
	if err != nil {
		return err
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "less"
	}

	return EditorCommand(editor, filePath, lineNum).Run()
}

func recordLine(db *index.DB, exportKey string, hitRecordID int) (int, error) {
	if hitRecordID < 0 {
		return 1, nil
	}
	records, err := db.GetRecords(exportKey)
	if err != nil {
		return 0, fmt.Errorf("get records: %w", err)
	}
	for _, r := range records {
		if r.RecordID == hitRecordID {
			return r.LineNumber, nil
		}
	}
	return 1, nil
}

// EditorCommand builds the command that opens filePath at lineNum, using the
// line-jump syntax of the editors that have one.
func EditorCommand(editor, filePath string, lineNum int) *exec.Cmd {
	var cmd *exec.Cmd

	switch {
	case strings.Contains(editor, "vim") || strings.Contains(editor, "nano"):
		cmd = exec.Command(editor, fmt.Sprintf("+%d", lineNum), filePath)
	case strings.Contains(editor, "code"):
		cmd = exec.Command(editor, "--goto", filePath+":"+strconv.Itoa(lineNum))
	case strings.Contains(editor, "less"):
		cmd = exec.Command(editor, "+"+strconv.Itoa(lineNum), filePath)
	default:
		cmd = exec.Command(editor, filePath)
	}

	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd
}
