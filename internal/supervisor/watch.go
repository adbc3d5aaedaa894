package supervisor

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go5chan/boardkeeper/internal/modlog"
)

const debounceDelay = 200 * time.Millisecond

// watcher fan-ins fsnotify events from the boards/ directory and the
// global config file into a single debounced reconcile trigger, the same
// single-timer-reset shape the teacher's watcher uses for multi-path
// filesystem watches.
type watcher struct {
	fsw *fsnotify.Watcher

	mu    sync.Mutex
	timer *time.Timer
	done  chan struct{}
}

// watch starts watching the supervisor's configuration directory and
// calls reconcile (debounced 200ms) on every relevant event.
func (s *Supervisor) watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	boardsDir := filepath.Join(s.configDir, "boards")
	if err := fsw.Add(boardsDir); err != nil {
		fsw.Close()
		return err
	}
	globalPath := filepath.Join(s.configDir, "global.json")
	if err := fsw.Add(filepath.Dir(globalPath)); err != nil {
		fsw.Close()
		return err
	}

	w := &watcher{fsw: fsw, done: make(chan struct{})}
	s.mu.Lock()
	s.watcher = w
	s.mu.Unlock()

	go w.run(ctx, s)
	return nil
}

func (w *watcher) run(ctx context.Context, s *Supervisor) {
	for {
		select {
		case _, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.scheduleReconcile(ctx, s)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			modlog.Logf("supervisor", "watch error: %v", err)
		case <-w.done:
			return
		}
	}
}

func (w *watcher) scheduleReconcile(ctx context.Context, s *Supervisor) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(debounceDelay, func() {
		s.reconcile(ctx)
	})
}

func (w *watcher) close() {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	close(w.done)
	w.fsw.Close()
}
