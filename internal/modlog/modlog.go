// Package modlog centralizes the daemon's logging and error-kind
// taxonomy. It carries no structured logging library: every message is a
// plain, component-prefixed line written to stderr, matching the
// teacher's unleveled fmt.Fprintf style throughout.
package modlog

import (
	"fmt"
	"os"
)

// Logf writes a component-prefixed line to stderr. component is typically
// a board address or subsystem name ("supervisor", "board.eth").
func Logf(component, format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s: %s\n", component, fmt.Sprintf(format, args...))
}

// Kind classifies an error along the fatal/recorded/recovered axis of
// the error taxonomy; KindOf recovers it from a wrapped error.
type Kind int

const (
	// KindUnknown is the zero value; wrap with a specific Kind whenever
	// the call site knows one.
	KindUnknown Kind = iota
	// KindValidation marks a rejected configuration document.
	KindValidation
	// KindLockContention marks a failure to acquire a board's state lock.
	KindLockContention
	// KindRPCTransport marks a failure to connect to or call the RPC.
	KindRPCTransport
	// KindPublishFailure marks a moderation publish that the RPC rejected.
	KindPublishFailure
	// KindMissingModRole marks a board with no moderator role reachable
	// for this signer and no local hosting to self-grant one.
	KindMissingModRole
	// KindMigrationFailure marks a failed address-rename migration.
	KindMigrationFailure
	// KindAggregateStartup marks every declared board failing to start.
	KindAggregateStartup
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindLockContention:
		return "lock-contention"
	case KindRPCTransport:
		return "rpc-transport"
	case KindPublishFailure:
		return "publish-failure"
	case KindMissingModRole:
		return "missing-mod-role"
	case KindMigrationFailure:
		return "migration-failure"
	case KindAggregateStartup:
		return "aggregate-startup"
	default:
		return "unknown"
	}
}

// Error wraps an underlying error with a Kind, so callers can classify
// without string-matching messages.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap tags err with kind. A nil err yields a plain nil error (not a
// typed nil *Error), so Wrap stays nil-safe in error-return chains.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// KindOf extracts the Kind from err if it (or something it wraps) is an
// *Error, else returns KindUnknown.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = unwrapper.Unwrap()
	}
	return KindUnknown
}
