// Package options resolves a board's worker options from its own config
// record, the global config, and environment fallbacks, applying the
// daemon's built-in defaults to anything left unset.
package options

import (
	"os"
	"path/filepath"

	"github.com/go5chan/boardkeeper/internal/model"
	"github.com/go5chan/boardkeeper/internal/modconfig"
)

// Built-in defaults, applied when neither the board nor the global
// defaults set a tunable.
const (
	DefaultPerPage             = 15
	DefaultPages               = 10
	DefaultBumpLimit           = 300
	DefaultArchivePurgeSeconds = 172800

	defaultRPCURL = "ws://localhost:9138"
	rpcURLEnvVar  = "PLEBBIT_RPC_WS_URL"
)

// DefaultModerationReasons are the built-in strings shown to users when no
// override is configured anywhere in the hierarchy.
var DefaultModerationReasons = model.ModerationReasons{
	ArchiveCapacity:  "thread archived: board is at capacity",
	ArchiveBumpLimit: "thread archived: reply limit reached",
	PurgeArchived:    "archived thread removed after retention period",
	PurgeDeleted:     "removed: author deleted this post",
}

// WorkerOptions is the fully-resolved, ready-to-run configuration a board
// worker starts with. Never persisted; rebuilt from modconfig records on
// every start and on every hot-reload reconcile.
type WorkerOptions struct {
	SubplebbitAddress   model.Address
	PlebbitRPCURL       string
	UserAgent           string
	BoardDir            string
	PerPage             int
	Pages               int
	BumpLimit           int
	ArchivePurgeSeconds int64
	ModerationReasons   model.ModerationReasons
}

// Resolve merges board over global.defaults over built-in constants, and
// global.rpcUrl over the PLEBBIT_RPC_WS_URL environment variable over the
// hardcoded localhost default.
func Resolve(board modconfig.Board, global modconfig.Global, configDir, userAgent string) WorkerOptions {
	opts := WorkerOptions{
		SubplebbitAddress:   model.Address(board.Address),
		PlebbitRPCURL:       resolveRPCURL(global),
		UserAgent:           userAgent,
		BoardDir:            filepath.Join(configDir, "boards", board.Address),
		PerPage:             resolveInt(board.PerPage, defaultsInt(global, "perPage"), DefaultPerPage),
		Pages:               resolveInt(board.Pages, defaultsInt(global, "pages"), DefaultPages),
		BumpLimit:           resolveInt(board.BumpLimit, defaultsInt(global, "bumpLimit"), DefaultBumpLimit),
		ArchivePurgeSeconds: int64(resolveInt(board.ArchivePurgeSeconds, defaultsInt(global, "archivePurgeSeconds"), DefaultArchivePurgeSeconds)),
		ModerationReasons:   resolveReasons(board, global),
	}
	return opts
}

func resolveRPCURL(global modconfig.Global) string {
	if global.RPCUrl != "" {
		return global.RPCUrl
	}
	if v := os.Getenv(rpcURLEnvVar); v != "" {
		return v
	}
	return defaultRPCURL
}

func resolveInt(boardVal *int, globalVal *int, builtin int) int {
	if boardVal != nil {
		return *boardVal
	}
	if globalVal != nil {
		return *globalVal
	}
	return builtin
}

func defaultsInt(global modconfig.Global, field string) *int {
	if global.Defaults == nil {
		return nil
	}
	switch field {
	case "perPage":
		return global.Defaults.PerPage
	case "pages":
		return global.Defaults.Pages
	case "bumpLimit":
		return global.Defaults.BumpLimit
	case "archivePurgeSeconds":
		return global.Defaults.ArchivePurgeSeconds
	}
	return nil
}

func resolveReasons(board modconfig.Board, global modconfig.Global) model.ModerationReasons {
	var globalReasons *model.ModerationReasons
	if global.Defaults != nil {
		globalReasons = global.Defaults.ModerationReasons
	}
	if board.ModerationReasons == nil && globalReasons == nil {
		return DefaultModerationReasons
	}

	resolved := DefaultModerationReasons
	if globalReasons != nil {
		overlay(&resolved, globalReasons)
	}
	if board.ModerationReasons != nil {
		overlay(&resolved, board.ModerationReasons)
	}
	return resolved
}

func overlay(base *model.ModerationReasons, override *model.ModerationReasons) {
	if override.ArchiveCapacity != "" {
		base.ArchiveCapacity = override.ArchiveCapacity
	}
	if override.ArchiveBumpLimit != "" {
		base.ArchiveBumpLimit = override.ArchiveBumpLimit
	}
	if override.PurgeArchived != "" {
		base.PurgeArchived = override.PurgeArchived
	}
	if override.PurgeDeleted != "" {
		base.PurgeDeleted = override.PurgeDeleted
	}
}
