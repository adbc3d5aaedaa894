package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go5chan/boardkeeper/internal/boardrpc"
	"github.com/go5chan/boardkeeper/internal/model"
	"github.com/go5chan/boardkeeper/internal/modstate"
	"github.com/go5chan/boardkeeper/internal/options"
)

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }

func newTestOptions(boardDir string, address model.Address) options.WorkerOptions {
	return options.WorkerOptions{
		SubplebbitAddress:   address,
		PlebbitRPCURL:       "ws://test",
		UserAgent:           "test-agent/1",
		BoardDir:            boardDir,
		PerPage:             2,
		Pages:               1,
		BumpLimit:           5,
		ArchivePurgeSeconds: 100,
		ModerationReasons:   options.DefaultModerationReasons,
	}
}

func setup(t *testing.T, address model.Address) (*Worker, *boardrpc.FakeTransport) {
	t.Helper()
	dir := t.TempDir()
	ft := boardrpc.NewFakeTransport()
	ft.SetHosted(address)
	ft.SetBoard(address, &model.Board{
		Address: address,
		Roles:   map[string]model.Role{},
	})
	w := New(newTestOptions(dir, address), ft, nil)
	w.clock = fixedClock{t: time.Unix(1000, 0)}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return w, ft
}

func TestWorkerStartGrantsModeratorRoleWhenHostedLocally(t *testing.T) {
	w, ft := setup(t, "board.eth")
	defer w.Stop(context.Background())

	board, err := ft.GetBoard(context.Background(), "board.eth")
	if err != nil {
		t.Fatal(err)
	}
	foundModerator := false
	for _, role := range board.Roles {
		if role.IsModerator() {
			foundModerator = true
		}
	}
	if !foundModerator {
		t.Fatal("expected the signer to be granted a moderator role")
	}
}

func TestWorkerStartFailsOnRemoteBoardWithNoRole(t *testing.T) {
	dir := t.TempDir()
	ft := boardrpc.NewFakeTransport()
	// Not marked hosted locally, and board has no roles.
	ft.SetBoard("remote.eth", &model.Board{Address: "remote.eth"})
	w := New(newTestOptions(dir, "remote.eth"), ft, nil)

	err := w.Start(context.Background())
	if err == nil {
		t.Fatal("expected start to fail for a remote board with no moderator role")
	}
}

func TestWorkerRuleACapacityArchive(t *testing.T) {
	w, ft := setup(t, "board.eth")
	defer w.Stop(context.Background())

	board := &model.Board{
		Address: "board.eth",
		Posts: model.Posts{
			Pages: map[string]*model.Page{
				"new": {Comments: []*model.Thread{
					{CID: "t1", LastReplyTimestamp: 300, PostNumber: 1},
					{CID: "t2", LastReplyTimestamp: 200, PostNumber: 2},
					{CID: "t3", LastReplyTimestamp: 100, PostNumber: 3},
				}},
			},
		},
	}
	ft.SetBoard("board.eth", board)
	ft.PushUpdate("board.eth", board)

	if len(ft.Published) != 1 {
		t.Fatalf("expected exactly one archive publish beyond capacity, got %d: %+v", len(ft.Published), ft.Published)
	}
	if ft.Published[0].CommentID != "t3" {
		t.Errorf("expected the lowest-ranked thread (t3) to be archived, got %s", ft.Published[0].CommentID)
	}
	if ft.Published[0].Reason != options.DefaultModerationReasons.ArchiveCapacity {
		t.Errorf("unexpected reason: %s", ft.Published[0].Reason)
	}
}

func TestWorkerRuleBBumpLimitArchive(t *testing.T) {
	w, ft := setup(t, "board.eth")
	defer w.Stop(context.Background())

	board := &model.Board{
		Address: "board.eth",
		Posts: model.Posts{
			Pages: map[string]*model.Page{
				"new": {Comments: []*model.Thread{
					{CID: "t1", LastReplyTimestamp: 100, PostNumber: 1, ReplyCount: 10},
				}},
			},
		},
	}
	ft.SetBoard("board.eth", board)
	ft.PushUpdate("board.eth", board)

	if len(ft.Published) != 1 || ft.Published[0].Reason != options.DefaultModerationReasons.ArchiveBumpLimit {
		t.Fatalf("expected a bump-limit archive, got %+v", ft.Published)
	}
}

func TestWorkerRuleCArchivePurgeStrictInequality(t *testing.T) {
	w, ft := setup(t, "board.eth")
	defer w.Stop(context.Background())

	w.mu.Lock()
	w.state.ArchivedThreads["old"] = archivedAt(899)
	w.mu.Unlock()

	board := &model.Board{Address: "board.eth", Posts: model.Posts{Pages: map[string]*model.Page{"new": {Comments: []*model.Thread{{CID: "other", PostNumber: 1}}}}}}
	ft.SetBoard("board.eth", board)
	ft.PushUpdate("board.eth", board)

	found := false
	for _, m := range ft.Published {
		if m.CommentID == "old" && m.Reason == options.DefaultModerationReasons.PurgeArchived {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected archived thread past retention to be purged, got %+v", ft.Published)
	}

	w.mu.Lock()
	_, stillArchived := w.state.ArchivedThreads["old"]
	w.mu.Unlock()
	if stillArchived {
		t.Error("expected purged thread to be removed from archivedThreads")
	}
}

func TestWorkerRuleCExactBoundaryNotPurgedYet(t *testing.T) {
	w, ft := setup(t, "board.eth")
	defer w.Stop(context.Background())

	// archivePurgeSeconds is 100; clock is fixed at 1000; archived at 900
	// means exactly the boundary (1000-900==100), which must NOT purge.
	w.mu.Lock()
	w.state.ArchivedThreads["boundary"] = archivedAt(900)
	w.mu.Unlock()

	board := &model.Board{Address: "board.eth", Posts: model.Posts{Pages: map[string]*model.Page{"new": {Comments: []*model.Thread{{CID: "x", PostNumber: 1}}}}}}
	ft.SetBoard("board.eth", board)
	ft.PushUpdate("board.eth", board)

	for _, m := range ft.Published {
		if m.CommentID == "boundary" {
			t.Fatal("expected exactly-at-boundary entry to remain one more tick")
		}
	}
}

func TestWorkerRuleDAuthorDeletedPurge(t *testing.T) {
	w, ft := setup(t, "board.eth")
	defer w.Stop(context.Background())

	board := &model.Board{
		Address: "board.eth",
		Posts: model.Posts{
			Pages: map[string]*model.Page{
				"new": {Comments: []*model.Thread{
					{CID: "deleted-thread", PostNumber: 1, Deleted: true},
				}},
			},
		},
	}
	ft.SetBoard("board.eth", board)
	ft.PushUpdate("board.eth", board)

	found := false
	for _, m := range ft.Published {
		if m.CommentID == "deleted-thread" && m.Reason == options.DefaultModerationReasons.PurgeDeleted {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected deleted thread to be purged, got %+v", ft.Published)
	}
}

func archivedAt(ts int64) modstate.ArchivedThread {
	return modstate.ArchivedThread{ArchivedTimestamp: ts}
}

// TestWorkerRuleApplicationIsIdempotent covers spec property #5: running
// the same sweep twice over unchanged board state must not publish a
// second round of moderations for work the first sweep already did.
func TestWorkerRuleApplicationIsIdempotent(t *testing.T) {
	w, ft := setup(t, "board.eth")
	defer w.Stop(context.Background())

	board := &model.Board{
		Address: "board.eth",
		Posts: model.Posts{
			Pages: map[string]*model.Page{
				"new": {Comments: []*model.Thread{
					{CID: "t1", LastReplyTimestamp: 100, PostNumber: 1, ReplyCount: 10},
				}},
			},
		},
	}
	ft.SetBoard("board.eth", board)

	ft.PushUpdate("board.eth", board)
	if len(ft.Published) != 1 {
		t.Fatalf("expected exactly one archive publish on the first sweep, got %+v", ft.Published)
	}

	// The RPC's view of the board is unchanged (the fake doesn't simulate
	// the archived thread dropping out of the page), so a second sweep
	// over identical state must not re-publish the same archive.
	ft.PushUpdate("board.eth", board)
	if len(ft.Published) != 1 {
		t.Fatalf("second identical sweep published %d more moderations, want 0 (got %+v)",
			len(ft.Published)-1, ft.Published[1:])
	}
}

// blockingTransport wraps FakeTransport so a test can pause a run mid-sweep
// (inside the first PublishModeration call) to simulate a burst of RPC
// updates arriving while that run is still in flight.
type blockingTransport struct {
	*boardrpc.FakeTransport

	publishCalls  int32
	getBoardCalls int32
	entered       chan struct{}
	release       chan struct{}
}

func newBlockingTransport(ft *boardrpc.FakeTransport) *blockingTransport {
	return &blockingTransport{
		FakeTransport: ft,
		entered:       make(chan struct{}),
		release:       make(chan struct{}),
	}
}

func (b *blockingTransport) PublishModeration(ctx context.Context, m model.Moderation, signer boardrpc.SignerInfo) error {
	if atomic.AddInt32(&b.publishCalls, 1) == 1 {
		close(b.entered)
		<-b.release
	}
	return b.FakeTransport.PublishModeration(ctx, m, signer)
}

func (b *blockingTransport) GetBoard(ctx context.Context, address model.Address) (*model.Board, error) {
	atomic.AddInt32(&b.getBoardCalls, 1)
	return b.FakeTransport.GetBoard(ctx, address)
}

// TestWorkerCoalescesBurstIntoOneRerun covers spec property #6: a burst of
// updates arriving while a sweep is already running must collapse into
// exactly one deferred re-run, not one re-run per update.
func TestWorkerCoalescesBurstIntoOneRerun(t *testing.T) {
	dir := t.TempDir()
	ft := boardrpc.NewFakeTransport()
	address := model.Address("board.eth")
	ft.SetHosted(address)
	ft.SetBoard(address, &model.Board{Address: address, Roles: map[string]model.Role{}})

	bt := newBlockingTransport(ft)
	w := New(newTestOptions(dir, address), bt, nil)
	w.clock = fixedClock{t: time.Unix(1000, 0)}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop(context.Background())

	board := &model.Board{
		Address: address,
		Posts: model.Posts{
			Pages: map[string]*model.Page{
				"new": {Comments: []*model.Thread{
					{CID: "t1", LastReplyTimestamp: 300, PostNumber: 1},
					{CID: "t2", LastReplyTimestamp: 200, PostNumber: 2},
					{CID: "t3", LastReplyTimestamp: 100, PostNumber: 3},
				}},
			},
		},
	}
	ft.SetBoard(address, board)

	atomic.StoreInt32(&bt.publishCalls, 0)
	atomic.StoreInt32(&bt.getBoardCalls, 0)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.handleUpdate(board)
	}()

	<-bt.entered // first sweep is now blocked inside its one archive publish

	// A burst of further updates while the first sweep is still running.
	for i := 0; i < 3; i++ {
		w.handleUpdate(board)
	}

	close(bt.release) // let the blocked sweep finish
	wg.Wait()

	if got := atomic.LoadInt32(&bt.getBoardCalls); got != 1 {
		t.Errorf("expected exactly one deferred re-run to re-fetch the board, got %d calls", got)
	}
	if got := atomic.LoadInt32(&bt.publishCalls); got != 1 {
		t.Errorf("expected the coalesced re-run to find nothing new to publish, got %d publish calls", got)
	}
}
