// Package supervisor drives the live set of board workers against
// declared configuration: it starts/stops workers for the declared board
// set, diffs old vs new declared state on every config change, restarts
// affected workers, and watches the configuration directory for edits.
package supervisor

import (
	"context"
	"fmt"
	"sync"

	"github.com/go5chan/boardkeeper/internal/boardrpc"
	"github.com/go5chan/boardkeeper/internal/buildinfo"
	"github.com/go5chan/boardkeeper/internal/model"
	"github.com/go5chan/boardkeeper/internal/modconfig"
	"github.com/go5chan/boardkeeper/internal/modlog"
	"github.com/go5chan/boardkeeper/internal/options"
	"github.com/go5chan/boardkeeper/internal/worker"
)

// TransportDialer opens a fresh RPC connection for one board worker.
// Production wires boardrpc.Dial; tests substitute an in-memory fake.
type TransportDialer func(rpcURL, userAgent string) (boardrpc.Transport, error)

// Supervisor owns the worker set for one configuration directory.
type Supervisor struct {
	configDir string
	dial      TransportDialer

	mu        sync.Mutex
	workers   map[model.Address]*worker.Worker
	current   modconfig.MultiBoardConfig
	errors    map[model.Address]error
	reloading bool
	stopped   bool

	watcher *watcher
}

// New constructs a Supervisor for configDir. dial is called once per
// board worker to obtain its own RPC connection.
func New(configDir string, dial TransportDialer) *Supervisor {
	return &Supervisor{
		configDir: configDir,
		dial:      dial,
		workers:   make(map[model.Address]*worker.Worker),
		errors:    make(map[model.Address]error),
	}
}

// StartupError aggregates every per-board error encountered when every
// declared board failed to start.
type StartupError struct {
	Errors map[model.Address]error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("all %d declared boards failed to start", len(e.Errors))
}

// Start loads configuration, then starts one worker per declared board,
// sequentially. If every board fails, returns an aggregate *StartupError;
// partial failures are recorded and returned via Errors() without
// aborting.
func (s *Supervisor) Start(ctx context.Context) error {
	cfg, err := modconfig.LoadConfig(s.configDir)
	if err != nil {
		return modlog.Wrap(modlog.KindValidation, fmt.Errorf("loading config: %w", err))
	}

	s.mu.Lock()
	s.current = cfg
	s.mu.Unlock()

	errs := make(map[model.Address]error)
	started := 0
	for _, board := range cfg.Boards {
		if err := s.startBoard(ctx, board, cfg.Global); err != nil {
			errs[model.Address(board.Address)] = err
			continue
		}
		started++
	}

	s.mu.Lock()
	s.errors = errs
	s.mu.Unlock()

	if started == 0 && len(errs) > 0 {
		return modlog.Wrap(modlog.KindAggregateStartup, &StartupError{Errors: errs})
	}
	return nil
}

func (s *Supervisor) startBoard(ctx context.Context, board modconfig.Board, global modconfig.Global) error {
	userAgent := global.UserAgent
	if userAgent == "" {
		userAgent = buildinfo.DefaultUserAgent()
	}
	opts := options.Resolve(board, global, s.configDir, userAgent)

	transport, err := s.dial(opts.PlebbitRPCURL, opts.UserAgent)
	if err != nil {
		return modlog.Wrap(modlog.KindRPCTransport, fmt.Errorf("%s: dialing rpc: %w", board.Address, err))
	}

	w := worker.New(opts, transport, s.onAddressChange)
	if err := w.Start(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.workers[model.Address(board.Address)] = w
	s.mu.Unlock()
	modlog.Logf(board.Address, "started")
	return nil
}

// Watch begins watching the configuration directory for changes and
// triggers a debounced reconcile on every relevant event. Call once,
// after Start.
func (s *Supervisor) Watch(ctx context.Context) error {
	return s.watch(ctx)
}

// Errors returns the most recent per-board startup/reconcile failures.
func (s *Supervisor) Errors() map[model.Address]error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[model.Address]error, len(s.errors))
	for k, v := range s.errors {
		out[k] = v
	}
	return out
}

// onAddressChange renames a worker's board directory on disk and re-keys
// the worker map. Called by a worker's migrate step.
func (s *Supervisor) onAddressChange(oldAddress, newAddress model.Address) error {
	if err := renameBoardDir(s.configDir, string(oldAddress), string(newAddress)); err != nil {
		return err
	}
	s.mu.Lock()
	if w, ok := s.workers[oldAddress]; ok {
		delete(s.workers, oldAddress)
		s.workers[newAddress] = w
	}
	s.mu.Unlock()
	return nil
}

// Stop marks the supervisor stopped, closes the watcher, and stops every
// worker concurrently, logging but never raising stop-time failures.
func (s *Supervisor) Stop(ctx context.Context) {
	s.mu.Lock()
	s.stopped = true
	w := s.watcher
	workers := make([]*worker.Worker, 0, len(s.workers))
	for _, wk := range s.workers {
		workers = append(workers, wk)
	}
	s.mu.Unlock()

	if w != nil {
		w.close()
	}

	var wg sync.WaitGroup
	for _, wk := range workers {
		wg.Add(1)
		go func(wk *worker.Worker) {
			defer wg.Done()
			if err := wk.Stop(ctx); err != nil {
				modlog.Logf("supervisor", "stopping worker: %v", err)
			}
		}(wk)
	}
	wg.Wait()
}
