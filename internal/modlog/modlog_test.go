package modlog

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapNilIsNil(t *testing.T) {
	if Wrap(KindValidation, nil) != nil {
		t.Fatal("expected Wrap(kind, nil) to return nil")
	}
}

func TestKindOfDirect(t *testing.T) {
	err := Wrap(KindLockContention, errors.New("boom"))
	if KindOf(err) != KindLockContention {
		t.Fatalf("KindOf = %v, want KindLockContention", KindOf(err))
	}
}

func TestKindOfThroughFmtWrap(t *testing.T) {
	base := Wrap(KindRPCTransport, errors.New("dial failed"))
	wrapped := fmt.Errorf("board.eth: %w", base)
	if KindOf(wrapped) != KindRPCTransport {
		t.Fatalf("KindOf = %v, want KindRPCTransport", KindOf(wrapped))
	}
}

func TestKindOfUnknownForPlainError(t *testing.T) {
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Fatal("expected KindUnknown for an unwrapped plain error")
	}
}

func TestErrorUnwrap(t *testing.T) {
	base := errors.New("root cause")
	err := Wrap(KindPublishFailure, base)
	if !errors.Is(err, base) {
		t.Fatal("expected errors.Is to see through the wrapper")
	}
}
