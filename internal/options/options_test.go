package options

import (
	"os"
	"testing"

	"github.com/go5chan/boardkeeper/internal/model"
	"github.com/go5chan/boardkeeper/internal/modconfig"
)

func intp(n int) *int { return &n }

func TestResolveAppliesBuiltinDefaults(t *testing.T) {
	board := modconfig.Board{Address: "board.eth"}
	global := modconfig.Global{}

	opts := Resolve(board, global, "/cfg", "agent/1")
	if opts.PerPage != DefaultPerPage {
		t.Errorf("PerPage = %d, want %d", opts.PerPage, DefaultPerPage)
	}
	if opts.BumpLimit != DefaultBumpLimit {
		t.Errorf("BumpLimit = %d, want %d", opts.BumpLimit, DefaultBumpLimit)
	}
	if opts.ArchivePurgeSeconds != DefaultArchivePurgeSeconds {
		t.Errorf("ArchivePurgeSeconds = %d, want %d", opts.ArchivePurgeSeconds, DefaultArchivePurgeSeconds)
	}
	if opts.ModerationReasons != DefaultModerationReasons {
		t.Errorf("ModerationReasons = %+v, want built-in defaults", opts.ModerationReasons)
	}
	if opts.BoardDir != "/cfg/boards/board.eth" {
		t.Errorf("BoardDir = %s", opts.BoardDir)
	}
}

func TestResolveBoardOverridesGlobal(t *testing.T) {
	board := modconfig.Board{Address: "board.eth", PerPage: intp(50)}
	global := modconfig.Global{Defaults: &modconfig.Defaults{PerPage: intp(20)}}

	opts := Resolve(board, global, "/cfg", "agent/1")
	if opts.PerPage != 50 {
		t.Errorf("PerPage = %d, want 50 (board overrides global)", opts.PerPage)
	}
}

func TestResolveGlobalDefaultFallsBackWhenBoardUnset(t *testing.T) {
	board := modconfig.Board{Address: "board.eth"}
	global := modconfig.Global{Defaults: &modconfig.Defaults{BumpLimit: intp(99)}}

	opts := Resolve(board, global, "/cfg", "agent/1")
	if opts.BumpLimit != 99 {
		t.Errorf("BumpLimit = %d, want 99", opts.BumpLimit)
	}
}

func TestResolveRPCURLPrecedence(t *testing.T) {
	board := modconfig.Board{Address: "board.eth"}

	t.Run("global wins", func(t *testing.T) {
		global := modconfig.Global{RPCUrl: "ws://from-global"}
		opts := Resolve(board, global, "/cfg", "agent/1")
		if opts.PlebbitRPCURL != "ws://from-global" {
			t.Errorf("PlebbitRPCURL = %s", opts.PlebbitRPCURL)
		}
	})

	t.Run("env fallback", func(t *testing.T) {
		os.Setenv("PLEBBIT_RPC_WS_URL", "ws://from-env")
		defer os.Unsetenv("PLEBBIT_RPC_WS_URL")
		opts := Resolve(board, modconfig.Global{}, "/cfg", "agent/1")
		if opts.PlebbitRPCURL != "ws://from-env" {
			t.Errorf("PlebbitRPCURL = %s", opts.PlebbitRPCURL)
		}
	})

	t.Run("hardcoded default", func(t *testing.T) {
		os.Unsetenv("PLEBBIT_RPC_WS_URL")
		opts := Resolve(board, modconfig.Global{}, "/cfg", "agent/1")
		if opts.PlebbitRPCURL != defaultRPCURL {
			t.Errorf("PlebbitRPCURL = %s, want %s", opts.PlebbitRPCURL, defaultRPCURL)
		}
	})
}

func TestResolveModerationReasonsMergePerField(t *testing.T) {
	board := modconfig.Board{
		Address:           "board.eth",
		ModerationReasons: &model.ModerationReasons{ArchiveCapacity: "board-specific capacity reason"},
	}
	global := modconfig.Global{
		Defaults: &modconfig.Defaults{
			ModerationReasons: &model.ModerationReasons{
				ArchiveCapacity:  "global capacity reason",
				ArchiveBumpLimit: "global bump reason",
			},
		},
	}

	opts := Resolve(board, global, "/cfg", "agent/1")
	if opts.ModerationReasons.ArchiveCapacity != "board-specific capacity reason" {
		t.Errorf("ArchiveCapacity = %q, want board override to win", opts.ModerationReasons.ArchiveCapacity)
	}
	if opts.ModerationReasons.ArchiveBumpLimit != "global bump reason" {
		t.Errorf("ArchiveBumpLimit = %q, want global default to fill in", opts.ModerationReasons.ArchiveBumpLimit)
	}
	if opts.ModerationReasons.PurgeArchived != DefaultModerationReasons.PurgeArchived {
		t.Errorf("PurgeArchived = %q, want built-in default", opts.ModerationReasons.PurgeArchived)
	}
}
