package worker

import (
	"context"
	"testing"

	"github.com/go5chan/boardkeeper/internal/boardrpc"
	"github.com/go5chan/boardkeeper/internal/model"
)

func TestWorkerMigratesOnAddressDrift(t *testing.T) {
	var renamedFrom, renamedTo model.Address
	onAddressChange := func(oldAddress, newAddress model.Address) error {
		renamedFrom, renamedTo = oldAddress, newAddress
		return nil
	}

	dir := t.TempDir()
	ft := boardrpc.NewFakeTransport()
	ft.SetHosted("old.eth")
	ft.SetHosted("new.eth")
	ft.SetBoard("old.eth", &model.Board{Address: "old.eth", Roles: map[string]model.Role{}})

	w := New(newTestOptions(dir, "old.eth"), ft, onAddressChange)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop(context.Background())

	renamed := &model.Board{Address: "new.eth", Roles: map[string]model.Role{}}
	ft.SetBoard("new.eth", renamed)
	ft.PushUpdate("old.eth", renamed)

	if renamedFrom != "old.eth" || renamedTo != "new.eth" {
		t.Fatalf("expected onAddressChange(old.eth, new.eth), got (%s, %s)", renamedFrom, renamedTo)
	}

	w.mu.Lock()
	gotAddress := w.address
	w.mu.Unlock()
	if gotAddress != "new.eth" {
		t.Fatalf("expected worker address to update to new.eth, got %s", gotAddress)
	}
}

func TestWorkerMigrationReacquiresLockAtNewPath(t *testing.T) {
	onAddressChange := func(oldAddress, newAddress model.Address) error { return nil }

	dir := t.TempDir()
	ft := boardrpc.NewFakeTransport()
	ft.SetHosted("old.eth")
	ft.SetBoard("old.eth", &model.Board{Address: "old.eth", Roles: map[string]model.Role{}})

	w := New(newTestOptions(dir, "old.eth"), ft, onAddressChange)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop(context.Background())

	if err := w.migrate("old.eth", "new.eth"); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	w.mu.Lock()
	lock := w.lock
	w.mu.Unlock()
	if lock == nil {
		t.Fatal("expected migration to leave the worker holding a lock at the new path")
	}
}
