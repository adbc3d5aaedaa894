// Package modstate persists per-board signer keys and archive bookkeeping,
// and arbitrates single-writer access to that state via a host-aware lock
// file. Grounded on chainwatch's internal/daemon PID-lock and atomic
// tmp-then-rename write patterns.
package modstate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Signer is the persisted Ed25519 key material for one address.
type Signer struct {
	PrivateKey string `json:"privateKey"`
}

// ArchivedThread records when this worker archived a thread, so Rule C
// (archive purge) can measure retention against it.
type ArchivedThread struct {
	ArchivedTimestamp int64 `json:"archivedTimestamp"`
}

// State is the full persisted document for one board.
type State struct {
	Signers         map[string]Signer         `json:"signers"`
	ArchivedThreads map[string]ArchivedThread `json:"archivedThreads"`
}

// Default returns the zero-value state a fresh or corrupted board starts
// from: no signer yet, nothing archived.
func Default() State {
	return State{
		Signers:         make(map[string]Signer),
		ArchivedThreads: make(map[string]ArchivedThread),
	}
}

// Load returns the state at path, or the default state if the file is
// missing or fails to parse. Corruption is treated as absence rather than
// a fatal error — see SPEC_FULL.md §7 for why this recovery heuristic is kept.
func Load(path string) State {
	data, err := os.ReadFile(path)
	if err != nil {
		return Default()
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return Default()
	}
	if s.Signers == nil {
		s.Signers = make(map[string]Signer)
	}
	if s.ArchivedThreads == nil {
		s.ArchivedThreads = make(map[string]ArchivedThread)
	}
	return s
}

// Save atomically writes state to path: write to path+".tmp", then rename
// onto path. On any failure the temp file is removed and the error is
// surfaced.
func Save(path string, s State) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("modstate: create directory for %s: %w", path, err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("modstate: marshal state: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("modstate: write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("modstate: rename temp file onto %s: %w", path, err)
	}
	return nil
}
