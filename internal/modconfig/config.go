// Package modconfig reads and writes the daemon's hierarchical declarative
// configuration: one global file plus one file per board, each a JSON
// document validated both structurally (jsonschema-go) and by hand for the
// cross-field invariants a schema cannot express. Grounded on chainwatch's
// internal/policy.LoadConfig (defaults-on-absence, strict validation) and
// internal/approval.Store's filename/key validation discipline.
package modconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go5chan/boardkeeper/internal/model"
)

// Defaults is the optional set of worker tunables plus moderation reasons
// carried in the global config's "defaults" block.
type Defaults struct {
	PerPage             *int                     `json:"perPage,omitempty"`
	Pages               *int                     `json:"pages,omitempty"`
	BumpLimit           *int                     `json:"bumpLimit,omitempty"`
	ArchivePurgeSeconds *int                     `json:"archivePurgeSeconds,omitempty"`
	ModerationReasons   *model.ModerationReasons `json:"moderationReasons,omitempty"`
}

// Global is the daemon-wide configuration record.
type Global struct {
	RPCUrl    string    `json:"rpcUrl,omitempty"`
	StateDir  string    `json:"stateDir,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	Defaults  *Defaults `json:"defaults,omitempty"`
}

// Board is one board's declared configuration.
type Board struct {
	Address             string                   `json:"address"`
	PerPage             *int                     `json:"perPage,omitempty"`
	Pages               *int                     `json:"pages,omitempty"`
	BumpLimit           *int                     `json:"bumpLimit,omitempty"`
	ArchivePurgeSeconds *int                     `json:"archivePurgeSeconds,omitempty"`
	ModerationReasons   *model.ModerationReasons `json:"moderationReasons,omitempty"`
}

// MultiBoardConfig is the union of the global record and every declared
// board.
type MultiBoardConfig struct {
	Global Global
	Boards []Board
}

func globalPath(configDir string) string {
	return filepath.Join(configDir, "global.json")
}

func boardsDir(configDir string) string {
	return filepath.Join(configDir, "boards")
}

func boardPath(configDir, address string) string {
	return filepath.Join(boardsDir(configDir), address+".json")
}

// LoadConfig reads the global file (absent -> {}) and every file under
// boards/ (absent dir -> no boards), validating each before returning the
// union. Board files are read in a stable (lexicographic filename) order.
func LoadConfig(configDir string) (MultiBoardConfig, error) {
	global, err := loadGlobal(configDir)
	if err != nil {
		return MultiBoardConfig{}, err
	}

	boards, err := loadBoards(configDir)
	if err != nil {
		return MultiBoardConfig{}, err
	}

	if err := checkDuplicateAddresses(boards); err != nil {
		return MultiBoardConfig{}, err
	}

	return MultiBoardConfig{Global: global, Boards: boards}, nil
}

// checkDuplicateAddresses rejects a board set in which two records declare
// the same address.
func checkDuplicateAddresses(boards []Board) error {
	seen := make(map[string]bool, len(boards))
	for _, b := range boards {
		if seen[b.Address] {
			return fmt.Errorf("modconfig: duplicate board address %q across config files", b.Address)
		}
		seen[b.Address] = true
	}
	return nil
}

func loadGlobal(configDir string) (Global, error) {
	path := globalPath(configDir)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Global{}, nil
		}
		return Global{}, fmt.Errorf("modconfig: read %s: %w", path, err)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Global{}, fmt.Errorf("modconfig: %s: invalid JSON: %w", path, err)
	}
	if err := validateShape(path, globalSchema, raw); err != nil {
		return Global{}, err
	}
	if err := validateGlobalFields(path, raw); err != nil {
		return Global{}, err
	}

	var g Global
	if err := json.Unmarshal(data, &g); err != nil {
		return Global{}, fmt.Errorf("modconfig: %s: %w", path, err)
	}
	return g, nil
}

func loadBoards(configDir string) ([]Board, error) {
	dir := boardsDir(configDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("modconfig: read %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	boards := make([]Board, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		b, err := loadBoardFile(path, name)
		if err != nil {
			return nil, err
		}
		boards = append(boards, b)
	}
	return boards, nil
}

func loadBoardFile(path, filename string) (Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Board{}, fmt.Errorf("modconfig: read %s: %w", path, err)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Board{}, fmt.Errorf("modconfig: %s: invalid JSON: %w", path, err)
	}
	if err := validateShape(path, boardSchema, raw); err != nil {
		return Board{}, err
	}
	if err := validateBoardFields(path, raw); err != nil {
		return Board{}, err
	}

	var b Board
	if err := json.Unmarshal(data, &b); err != nil {
		return Board{}, fmt.Errorf("modconfig: %s: %w", path, err)
	}

	wantName := b.Address + ".json"
	if filename != wantName {
		return Board{}, fmt.Errorf("modconfig: %s: filename must match address %q (expected %q)", path, b.Address, wantName)
	}
	return b, nil
}

// SaveGlobalConfig atomically writes the global config, creating configDir
// if needed.
func SaveGlobalConfig(configDir string, g Global) error {
	return atomicWriteJSON(globalPath(configDir), g)
}

// SaveBoardConfig atomically writes one board's config under boards/,
// creating the directory if needed.
func SaveBoardConfig(configDir string, b Board) error {
	if b.Address == "" {
		return fmt.Errorf("modconfig: board address must not be empty")
	}
	return atomicWriteJSON(boardPath(configDir, b.Address), b)
}

// DeleteBoardConfig removes boards/{address}.json. A missing file is
// reported as a user-facing "not found" error.
func DeleteBoardConfig(configDir, address string) error {
	path := boardPath(configDir, address)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("board %q not found", address)
		}
		return fmt.Errorf("modconfig: remove %s: %w", path, err)
	}
	return nil
}

// RenameBoardConfig moves a board's config file from oldAddr to newAddr,
// rewriting its address field. Refuses if the destination already exists.
func RenameBoardConfig(configDir, oldAddr, newAddr string) error {
	destPath := boardPath(configDir, newAddr)
	if _, err := os.Stat(destPath); err == nil {
		return fmt.Errorf("modconfig: board %q already exists", newAddr)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("modconfig: stat %s: %w", destPath, err)
	}

	srcPath := boardPath(configDir, oldAddr)
	b, err := loadBoardFile(srcPath, oldAddr+".json")
	if err != nil {
		return err
	}
	b.Address = newAddr

	if err := SaveBoardConfig(configDir, b); err != nil {
		return err
	}
	return os.Remove(srcPath)
}

func atomicWriteJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("modconfig: create directory for %s: %w", path, err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("modconfig: marshal %s: %w", path, err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("modconfig: write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("modconfig: rename temp file onto %s: %w", path, err)
	}
	return nil
}
