package modstate

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// Lock is an exclusively-held companion file for a state document. A
// successfully returned Lock implies no other live worker on this host
// holds a Lock for the same statePath. Cross-host exclusion is advisory
// only (see SPEC §4.1, §9).
type Lock struct {
	path string
}

// holder is the contents of a lock file: "{pid}\n{hostname}".
type holder struct {
	pid      int
	hostname string
}

func parseHolder(data []byte) (holder, bool) {
	parts := strings.SplitN(strings.TrimSpace(string(data)), "\n", 2)
	if len(parts) != 2 {
		return holder{}, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return holder{}, false
	}
	return holder{pid: pid, hostname: strings.TrimSpace(parts[1])}, true
}

// pidAlive probes liveness without actually signalling the process
// (signal 0 is a no-op delivery used only to check existence/permission).
func pidAlive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}

// AcquireLock exclusively creates statePath+".lock", creating its
// directory if needed. If the file already
// exists and names a live PID on this same host, acquisition fails with a
// "board manager already running" error naming the PID. Otherwise the
// stale file is unlinked and creation is retried once.
func AcquireLock(statePath string) (*Lock, error) {
	lockPath := statePath + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o750); err != nil {
		return nil, fmt.Errorf("modstate: create directory for %s: %w", lockPath, err)
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = ""
	}

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			content := fmt.Sprintf("%d\n%s", os.Getpid(), hostname)
			if _, werr := f.WriteString(content); werr != nil {
				f.Close()
				_ = os.Remove(lockPath)
				return nil, fmt.Errorf("modstate: write lock file %s: %w", lockPath, werr)
			}
			f.Close()
			return &Lock{path: lockPath}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("modstate: create lock file %s: %w", lockPath, err)
		}

		data, rerr := os.ReadFile(lockPath)
		if rerr != nil {
			// Lock file vanished between stat and read; retry the create.
			continue
		}
		h, ok := parseHolder(data)
		if !ok {
			// Unparseable lock content is treated like a stale lock.
			_ = os.Remove(lockPath)
			continue
		}
		if h.hostname == hostname && pidAlive(h.pid) {
			return nil, fmt.Errorf("board manager already running (PID %d)", h.pid)
		}
		// Dead PID, or a foreign/old hostname: a containerised redeploy
		// on the same volume may see a PID that's still alive on a
		// different host. Reclaim it.
		_ = os.Remove(lockPath)
	}
	return nil, fmt.Errorf("modstate: could not acquire lock %s after retry", lockPath)
}

// Release best-effort unlinks the lock file.
func (l *Lock) Release() {
	if l == nil {
		return
	}
	_ = os.Remove(l.path)
}
