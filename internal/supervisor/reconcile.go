package supervisor

import (
	"context"

	"github.com/go5chan/boardkeeper/internal/model"
	"github.com/go5chan/boardkeeper/internal/modconfig"
	"github.com/go5chan/boardkeeper/internal/modlog"
)

// reconcile reloads configuration and applies the diff against the
// last-applied config: removed, then changed (stop-then-restart), then
// added, each phase one board at a time. A reentrancy guard (reloading)
// and a stopped flag suppress overlapping or post-shutdown runs.
func (s *Supervisor) reconcile(ctx context.Context) {
	s.mu.Lock()
	if s.stopped || s.reloading {
		s.mu.Unlock()
		return
	}
	s.reloading = true
	previous := s.current
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.reloading = false
		s.mu.Unlock()
	}()

	next, err := modconfig.LoadConfig(s.configDir)
	if err != nil {
		modlog.Logf("supervisor", "reload aborted, config invalid: %v", err)
		return
	}

	diff := modconfig.DiffBoards(previous.Boards, next.Boards)
	if modconfig.GlobalChanged(previous.Global, next.Global) {
		diff.Changed = promoteAllSurviving(previous.Boards, next.Boards, diff)
	}

	errs := make(map[model.Address]error)

	for _, board := range diff.Removed {
		s.stopBoard(ctx, model.Address(board.Address))
	}
	for _, board := range diff.Changed {
		s.stopBoard(ctx, model.Address(board.Address))
		if err := s.startBoard(ctx, board, next.Global); err != nil {
			errs[model.Address(board.Address)] = err
		}
	}
	for _, board := range diff.Added {
		if err := s.startBoard(ctx, board, next.Global); err != nil {
			errs[model.Address(board.Address)] = err
		}
	}

	s.mu.Lock()
	s.current = next
	s.errors = errs
	s.mu.Unlock()
}

// promoteAllSurviving returns every board present in both old and new sets
// (i.e. unchanged by DiffBoards) unioned with the already-changed set, so
// a global config change restarts every board still declared.
func promoteAllSurviving(oldBoards, newBoards []modconfig.Board, diff modconfig.BoardDiff) []modconfig.Board {
	changedAddrs := make(map[string]bool, len(diff.Changed))
	for _, b := range diff.Changed {
		changedAddrs[b.Address] = true
	}
	addedAddrs := make(map[string]bool, len(diff.Added))
	for _, b := range diff.Added {
		addedAddrs[b.Address] = true
	}
	oldAddrs := make(map[string]bool, len(oldBoards))
	for _, b := range oldBoards {
		oldAddrs[b.Address] = true
	}

	result := append([]modconfig.Board{}, diff.Changed...)
	for _, b := range newBoards {
		if addedAddrs[b.Address] || changedAddrs[b.Address] {
			continue
		}
		if oldAddrs[b.Address] {
			result = append(result, b)
		}
	}
	return result
}

func (s *Supervisor) stopBoard(ctx context.Context, address model.Address) {
	s.mu.Lock()
	w, ok := s.workers[address]
	if ok {
		delete(s.workers, address)
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	if err := w.Stop(ctx); err != nil {
		modlog.Logf(string(address), "stop during reconcile: %v", err)
	}
}
