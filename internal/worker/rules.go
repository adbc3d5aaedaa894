package worker

import (
	"context"

	"github.com/go5chan/boardkeeper/internal/model"
	"github.com/go5chan/boardkeeper/internal/modaudit"
	"github.com/go5chan/boardkeeper/internal/modlog"
	"github.com/go5chan/boardkeeper/internal/modstate"
	"github.com/go5chan/boardkeeper/internal/paginate"
)

// applyRuleA archives non-pinned threads beyond the board's declared
// capacity (perPage * pages), in the order the Paginator returned them.
func (w *Worker) applyRuleA(ctx context.Context, address model.Address, threads []*model.Thread) {
	maxThreads := w.opts.PerPage * w.opts.Pages

	var unpinned []*model.Thread
	for _, t := range threads {
		if !t.Pinned {
			unpinned = append(unpinned, t)
		}
	}
	if len(unpinned) <= maxThreads {
		return
	}

	for _, t := range unpinned[maxThreads:] {
		w.mu.Lock()
		_, alreadyArchived := w.state.ArchivedThreads[t.CID]
		w.mu.Unlock()
		if t.Archived || alreadyArchived {
			continue
		}
		w.archiveThread(ctx, address, t, w.opts.ModerationReasons.ArchiveCapacity)
	}
}

// applyRuleB archives every non-pinned thread whose reply count reached
// the bump limit, regardless of position.
func (w *Worker) applyRuleB(ctx context.Context, address model.Address, threads []*model.Thread) {
	for _, t := range threads {
		if t.Pinned || t.ReplyCount < w.opts.BumpLimit {
			continue
		}
		w.mu.Lock()
		_, alreadyArchived := w.state.ArchivedThreads[t.CID]
		w.mu.Unlock()
		if t.Archived || alreadyArchived {
			continue
		}
		w.archiveThread(ctx, address, t, w.opts.ModerationReasons.ArchiveBumpLimit)
	}
}

func (w *Worker) archiveThread(ctx context.Context, address model.Address, t *model.Thread, reason string) {
	m := model.Moderation{
		CommentID:         t.CID,
		Kind:              model.ModerationArchive,
		Reason:            reason,
		SubplebbitAddress: address,
	}
	w.mu.Lock()
	signer := w.signer
	w.mu.Unlock()

	if err := w.transport.PublishModeration(ctx, m, signer); err != nil {
		modlog.Logf(string(address), "publishing archive for %s: %v", t.CID, err)
		return
	}

	now := w.clock.Now().Unix()
	w.mu.Lock()
	w.state.ArchivedThreads[t.CID] = modstate.ArchivedThread{ArchivedTimestamp: now}
	statePath, state := w.statePath, w.state
	w.mu.Unlock()
	if err := modstate.Save(statePath, state); err != nil {
		modlog.Logf(string(address), "persisting archive state for %s: %v", t.CID, err)
	}
	if err := modaudit.Append(w.boardDir, modaudit.Entry{Timestamp: now, CommentID: t.CID, Kind: model.ModerationArchive, Reason: reason}); err != nil {
		modlog.Logf(string(address), "audit log for %s: %v", t.CID, err)
	}
}

// applyRuleC purges archived threads whose retention window has strictly
// elapsed.
func (w *Worker) applyRuleC(ctx context.Context, address model.Address) {
	w.mu.Lock()
	entries := make(map[string]modstate.ArchivedThread, len(w.state.ArchivedThreads))
	for cid, info := range w.state.ArchivedThreads {
		entries[cid] = info
	}
	w.mu.Unlock()

	now := w.clock.Now().Unix()
	for cid, info := range entries {
		if now-info.ArchivedTimestamp <= int64(w.opts.ArchivePurgeSeconds) {
			continue
		}
		w.purgeComment(ctx, address, cid, w.opts.ModerationReasons.PurgeArchived, true)
	}
}

// applyRuleD purges every thread (pinned included) whose author deleted
// it, plus every deleted descendant reply.
func (w *Worker) applyRuleD(ctx context.Context, address model.Address, threads []*model.Thread) {
	for _, t := range threads {
		if t.Deleted {
			w.purgeComment(ctx, address, t.CID, w.opts.ModerationReasons.PurgeDeleted, true)
		}

		deletedReplies, err := paginate.WalkDeletedReplies(ctx, w.transport, address, t)
		if err != nil {
			modlog.Logf(string(address), "walking replies of %s: %v", t.CID, err)
			continue
		}
		for _, cid := range deletedReplies {
			w.purgeComment(ctx, address, cid, w.opts.ModerationReasons.PurgeDeleted, false)
		}
	}
}

// purgeComment publishes a purge moderation for cid. When removeArchived
// is true, the archivedThreads entry (if any) is also cleared — only
// threads can carry one; replies never do.
func (w *Worker) purgeComment(ctx context.Context, address model.Address, cid, reason string, removeArchived bool) {
	m := model.Moderation{
		CommentID:         cid,
		Kind:              model.ModerationPurge,
		Reason:            reason,
		SubplebbitAddress: address,
	}
	w.mu.Lock()
	signer := w.signer
	w.mu.Unlock()

	if err := w.transport.PublishModeration(ctx, m, signer); err != nil {
		modlog.Logf(string(address), "publishing purge for %s: %v", cid, err)
		return
	}

	now := w.clock.Now().Unix()
	w.mu.Lock()
	if removeArchived {
		delete(w.state.ArchivedThreads, cid)
	}
	statePath, state := w.statePath, w.state
	w.mu.Unlock()
	if err := modstate.Save(statePath, state); err != nil {
		modlog.Logf(string(address), "persisting purge state for %s: %v", cid, err)
	}
	if err := modaudit.Append(w.boardDir, modaudit.Entry{Timestamp: now, CommentID: cid, Kind: model.ModerationPurge, Reason: reason}); err != nil {
		modlog.Logf(string(address), "audit log for %s: %v", cid, err)
	}
}
