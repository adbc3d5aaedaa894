// Package modaudit appends a per-board, append-only JSONL moderation-action
// log. Purely observational: the worker never reads it back, and a failure
// to write it never blocks a publish that already succeeded.
package modaudit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go5chan/boardkeeper/internal/model"
)

// Entry is one line of the audit trail.
type Entry struct {
	Timestamp int64               `json:"timestamp"`
	CommentID string              `json:"commentId"`
	Kind      model.ModerationKind `json:"kind"`
	Reason    string              `json:"reason"`
}

// Append writes one JSON line to {boardDir}/actions.log, creating the file
// and its parent directory if necessary.
func Append(boardDir string, entry Entry) error {
	if err := os.MkdirAll(boardDir, 0o750); err != nil {
		return fmt.Errorf("modaudit: creating board dir: %w", err)
	}
	path := filepath.Join(boardDir, "actions.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("modaudit: opening %s: %w", path, err)
	}
	defer f.Close()

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("modaudit: marshaling entry: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("modaudit: writing %s: %w", path, err)
	}
	return nil
}
