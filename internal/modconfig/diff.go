package modconfig

import "github.com/go5chan/boardkeeper/internal/model"

// BoardDiff is the result of comparing a declared board set against the
// previously applied one.
type BoardDiff struct {
	Added   []Board
	Removed []Board
	Changed []Board // post-change value
}

// DiffBoards compares old and new board sets by address. Added and Removed
// compare by address only; Changed requires the address to be present in
// both sets with at least one differing tunable (including
// moderationReasons, compared per-field).
func DiffBoards(oldBoards, newBoards []Board) BoardDiff {
	oldByAddr := make(map[string]Board, len(oldBoards))
	for _, b := range oldBoards {
		oldByAddr[b.Address] = b
	}
	newByAddr := make(map[string]Board, len(newBoards))
	for _, b := range newBoards {
		newByAddr[b.Address] = b
	}

	var diff BoardDiff
	for _, b := range newBoards {
		old, existed := oldByAddr[b.Address]
		if !existed {
			diff.Added = append(diff.Added, b)
			continue
		}
		if !boardsEqual(old, b) {
			diff.Changed = append(diff.Changed, b)
		}
	}
	for _, b := range oldBoards {
		if _, stillDeclared := newByAddr[b.Address]; !stillDeclared {
			diff.Removed = append(diff.Removed, b)
		}
	}
	return diff
}

func boardsEqual(a, b Board) bool {
	if !intPtrEqual(a.PerPage, b.PerPage) ||
		!intPtrEqual(a.Pages, b.Pages) ||
		!intPtrEqual(a.BumpLimit, b.BumpLimit) ||
		!intPtrEqual(a.ArchivePurgeSeconds, b.ArchivePurgeSeconds) {
		return false
	}
	return reasonsEqual(a.ModerationReasons, b.ModerationReasons)
}

func intPtrEqual(a, b *int) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

func reasonsEqual(a, b *model.ModerationReasons) bool {
	var av, bv model.ModerationReasons
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av == bv
}

// GlobalChanged reports whether any of global's board-affecting fields
// differ between old and new. A true result promotes every surviving
// board into Changed (the reconcile loop handles that promotion).
func GlobalChanged(oldGlobal, newGlobal Global) bool {
	if oldGlobal.RPCUrl != newGlobal.RPCUrl ||
		oldGlobal.StateDir != newGlobal.StateDir ||
		oldGlobal.UserAgent != newGlobal.UserAgent {
		return true
	}
	return !defaultsEqual(oldGlobal.Defaults, newGlobal.Defaults)
}

func defaultsEqual(a, b *Defaults) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if !intPtrEqual(a.PerPage, b.PerPage) ||
		!intPtrEqual(a.Pages, b.Pages) ||
		!intPtrEqual(a.BumpLimit, b.BumpLimit) ||
		!intPtrEqual(a.ArchivePurgeSeconds, b.ArchivePurgeSeconds) {
		return false
	}
	return reasonsEqual(a.ModerationReasons, b.ModerationReasons)
}
