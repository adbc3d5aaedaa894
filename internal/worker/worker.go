// Package worker implements the per-board state machine: it subscribes
// to board updates through the RPC adapter, coalesces concurrent handler
// runs, applies the four moderation rules in order, persists state, and
// handles address migration. This is the daemon's core loop.
package worker

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/go5chan/boardkeeper/internal/boardrpc"
	"github.com/go5chan/boardkeeper/internal/model"
	"github.com/go5chan/boardkeeper/internal/modlog"
	"github.com/go5chan/boardkeeper/internal/modstate"
	"github.com/go5chan/boardkeeper/internal/options"
	"github.com/go5chan/boardkeeper/internal/paginate"
)

// Clock lets tests control "now"; production uses realClock.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// AddressChangeHandler renames the board's on-disk directory and re-keys
// the owner's worker map when the RPC reports a new address mid-run. The
// supervisor provides this; the worker never touches directories outside
// its own state file.
type AddressChangeHandler func(oldAddress, newAddress model.Address) error

// Worker drives one board's moderation loop.
type Worker struct {
	transport       boardrpc.Transport
	onAddressChange AddressChangeHandler
	clock           Clock

	mu           sync.Mutex
	opts         options.WorkerOptions
	address      model.Address
	statePath    string
	boardDir     string
	lock         *modstate.Lock
	state        modstate.State
	signer       boardrpc.SignerInfo
	unsubscribe  func()
	running      bool
	pendingRerun bool
	stopped      bool
}

// New constructs a worker for opts, bound to transport. onAddressChange
// may be nil only if the caller is certain the board's address will never
// be renamed by the RPC (never true in production).
func New(opts options.WorkerOptions, transport boardrpc.Transport, onAddressChange AddressChangeHandler) *Worker {
	return &Worker{
		transport:       transport,
		onAddressChange: onAddressChange,
		clock:           realClock{},
		opts:            opts,
		address:         opts.SubplebbitAddress,
		boardDir:        opts.BoardDir,
		statePath:       filepath.Join(opts.BoardDir, "state.json"),
	}
}

// Start acquires the board's lock, loads state, obtains a signer,
// bootstraps the moderator role, and subscribes to updates.
func (w *Worker) Start(ctx context.Context) error {
	lock, err := modstate.AcquireLock(w.statePath)
	if err != nil {
		return modlog.Wrap(modlog.KindLockContention, fmt.Errorf("%s: %w", w.address, err))
	}

	state := modstate.Load(w.statePath)

	if err := w.transport.WaitReady(ctx); err != nil {
		lock.Release()
		return modlog.Wrap(modlog.KindRPCTransport, fmt.Errorf("%s: %w", w.address, err))
	}

	signer, err := w.obtainSigner(ctx, &state)
	if err != nil {
		lock.Release()
		return modlog.Wrap(modlog.KindRPCTransport, fmt.Errorf("%s: obtaining signer: %w", w.address, err))
	}

	board, err := w.transport.GetBoard(ctx, w.address)
	if err != nil {
		lock.Release()
		return modlog.Wrap(modlog.KindRPCTransport, fmt.Errorf("%s: fetching board: %w", w.address, err))
	}

	if err := w.ensureModeratorRole(ctx, board, signer); err != nil {
		lock.Release()
		return err
	}

	unsubscribe, err := w.transport.Subscribe(ctx, w.address, w.handleUpdate)
	if err != nil {
		lock.Release()
		return modlog.Wrap(modlog.KindRPCTransport, fmt.Errorf("%s: subscribing: %w", w.address, err))
	}

	if err := w.transport.StartBoard(ctx, w.address); err != nil {
		unsubscribe()
		lock.Release()
		return modlog.Wrap(modlog.KindRPCTransport, fmt.Errorf("%s: starting board stream: %w", w.address, err))
	}

	w.mu.Lock()
	w.lock = lock
	w.state = state
	w.signer = signer
	w.unsubscribe = unsubscribe
	w.mu.Unlock()

	return nil
}

func (w *Worker) obtainSigner(ctx context.Context, state *modstate.State) (boardrpc.SignerInfo, error) {
	if existing, ok := state.Signers[string(w.address)]; ok {
		return w.transport.CreateSigner(ctx, existing.PrivateKey)
	}
	signer, err := w.transport.CreateSigner(ctx, "")
	if err != nil {
		return boardrpc.SignerInfo{}, err
	}
	state.Signers[string(w.address)] = modstate.Signer{PrivateKey: signer.PrivateKey}
	if err := modstate.Save(w.statePath, *state); err != nil {
		return boardrpc.SignerInfo{}, fmt.Errorf("persisting new signer: %w", err)
	}
	return signer, nil
}

// ensureModeratorRole grants the signer moderator on locally hosted
// boards; on remote boards with no existing role it fails fast rather than
// run uselessly.
func (w *Worker) ensureModeratorRole(ctx context.Context, board *model.Board, signer boardrpc.SignerInfo) error {
	if role, ok := board.Roles[string(signer.Address)]; ok && role.IsModerator() {
		return nil
	}
	if !w.transport.HostsLocally(w.address) {
		return modlog.Wrap(modlog.KindMissingModRole, fmt.Errorf(
			"board %s: signer %s has no moderator role and this RPC does not host the board locally; ask the board owner to grant moderator to %s",
			w.address, signer.Address, signer.Address))
	}

	roles := make(map[string]model.Role, len(board.Roles)+1)
	for addr, r := range board.Roles {
		roles[addr] = r
	}
	roles[string(signer.Address)] = model.Role{Role: "moderator"}
	if err := w.transport.EditBoard(ctx, w.address, roles); err != nil {
		return modlog.Wrap(modlog.KindRPCTransport, fmt.Errorf("board %s: granting moderator role: %w", w.address, err))
	}
	return nil
}

// Stop unsubscribes, persists state, releases the lock, stops the board
// stream, and destroys the RPC connection. Stop never returns an error for
// RPC-side failures — it logs them and proceeds, so state is always
// persisted and the lock always released.
func (w *Worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	w.stopped = true
	unsubscribe := w.unsubscribe
	state := w.state
	statePath := w.statePath
	lock := w.lock
	address := w.address
	w.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if err := modstate.Save(statePath, state); err != nil {
		modlog.Logf(string(address), "saving state on stop: %v", err)
	}
	if lock != nil {
		lock.Release()
	}
	if err := w.transport.StopBoard(ctx, address); err != nil {
		modlog.Logf(string(address), "stopping board stream: %v", err)
	}
	if err := w.transport.Close(); err != nil {
		modlog.Logf(string(address), "closing rpc connection: %v", err)
	}
	return nil
}

// handleUpdate is the RPC subscription callback. At most one run is in
// flight; a burst of updates during a run collapses into exactly one
// deferred re-run that observes everything that arrived meanwhile.
func (w *Worker) handleUpdate(board *model.Board) {
	w.mu.Lock()
	if w.running {
		w.pendingRerun = true
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	ctx := context.Background()
	w.runOnce(ctx, board)

	for {
		w.mu.Lock()
		if w.stopped || !w.pendingRerun {
			w.running = false
			w.mu.Unlock()
			return
		}
		w.pendingRerun = false
		address := w.address
		w.mu.Unlock()

		fresh, err := w.transport.GetBoard(ctx, address)
		if err != nil {
			modlog.Logf(string(address), "re-fetching board for deferred rerun: %v", err)
			w.mu.Lock()
			w.running = false
			w.mu.Unlock()
			return
		}
		w.runOnce(ctx, fresh)
	}
}

// runOnce performs one full sweep: address drift check, empty-board
// short-circuit, thread list assembly, then rules A through D in order.
func (w *Worker) runOnce(ctx context.Context, board *model.Board) {
	w.mu.Lock()
	currentAddress := w.address
	w.mu.Unlock()

	if board.Address != "" && board.Address != currentAddress {
		if err := w.migrate(currentAddress, board.Address); err != nil {
			modlog.Logf(string(currentAddress), "address migration to %s failed: %v", board.Address, err)
			return
		}
		currentAddress = board.Address
	}

	if !hasAnyPosts(board.Posts) {
		return
	}

	threads, err := paginate.AssembleThreads(ctx, w.transport, currentAddress, board.Posts)
	if err != nil {
		modlog.Logf(string(currentAddress), "assembling thread list: %v", err)
		return
	}
	if len(threads) == 0 {
		return
	}

	w.applyRuleA(ctx, currentAddress, threads)
	w.applyRuleB(ctx, currentAddress, threads)
	w.applyRuleC(ctx, currentAddress)
	w.applyRuleD(ctx, currentAddress, threads)
}

func hasAnyPosts(posts model.Posts) bool {
	if cid, ok := posts.PageCids["active"]; ok && cid != "" {
		return true
	}
	for _, p := range posts.Pages {
		if p != nil {
			return true
		}
	}
	return false
}
