package worker

import (
	"fmt"
	"path/filepath"

	"github.com/go5chan/boardkeeper/internal/model"
	"github.com/go5chan/boardkeeper/internal/modstate"
)

// migrate handles an RPC-reported address rename mid-run. Atomic from the
// supervisor's perspective: either the worker and on-disk directory both
// reflect newAddress, or both remain at oldAddress.
func (w *Worker) migrate(oldAddress, newAddress model.Address) error {
	w.mu.Lock()
	state := w.state
	oldStatePath := w.statePath
	oldLock := w.lock
	oldBoardDir := w.boardDir
	w.mu.Unlock()

	if signer, ok := state.Signers[string(oldAddress)]; ok {
		state.Signers[string(newAddress)] = signer
		delete(state.Signers, string(oldAddress))
	}

	if oldLock != nil {
		oldLock.Release()
	}

	if err := modstate.Save(oldStatePath, state); err != nil {
		return fmt.Errorf("saving state before directory rename: %w", err)
	}

	if w.onAddressChange != nil {
		if err := w.onAddressChange(oldAddress, newAddress); err != nil {
			return w.rollbackMigration(oldAddress, newAddress, state, fmt.Errorf("renaming board directory: %w", err))
		}
	}

	newBoardDir := filepath.Join(filepath.Dir(oldBoardDir), string(newAddress))
	newStatePath := filepath.Join(newBoardDir, "state.json")

	newLock, err := modstate.AcquireLock(newStatePath)
	if err != nil {
		return w.rollbackMigration(oldAddress, newAddress, state, fmt.Errorf("acquiring lock at new address: %w", err))
	}

	w.mu.Lock()
	w.address = newAddress
	w.boardDir = newBoardDir
	w.statePath = newStatePath
	w.lock = newLock
	w.state = state
	w.mu.Unlock()
	return nil
}

// rollbackMigration undoes a partially applied migration: inverts the
// directory rename, restores the old signer entry, reacquires the old
// lock, re-saves the old state, and propagates cause.
func (w *Worker) rollbackMigration(oldAddress, newAddress model.Address, renamedState modstate.State, cause error) error {
	if w.onAddressChange != nil {
		_ = w.onAddressChange(newAddress, oldAddress)
	}

	restored := renamedState
	if signer, ok := restored.Signers[string(newAddress)]; ok {
		restored.Signers[string(oldAddress)] = signer
		delete(restored.Signers, string(newAddress))
	}

	w.mu.Lock()
	oldStatePath := w.statePath
	w.mu.Unlock()

	lock, lockErr := modstate.AcquireLock(oldStatePath)
	if lockErr != nil {
		return fmt.Errorf("migration failed (%w) and rollback could not reacquire the old lock: %v", cause, lockErr)
	}
	if err := modstate.Save(oldStatePath, restored); err != nil {
		return fmt.Errorf("migration failed (%w) and rollback could not re-save old state: %v", cause, err)
	}

	w.mu.Lock()
	w.lock = lock
	w.state = restored
	w.mu.Unlock()

	return cause
}
