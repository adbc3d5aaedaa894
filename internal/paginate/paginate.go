// Package paginate assembles a fully-ordered thread list from a board's
// posts surface (a preloaded page and/or a page-CID chain) and provides a
// breadth-first reply-tree walk for deleted-reply scanning.
package paginate

import (
	"context"
	"fmt"

	"github.com/go5chan/boardkeeper/internal/model"
	"golang.org/x/exp/slices"
)

// PageFetcher fetches a continuation page by CID. The board worker's RPC
// adapter (internal/boardrpc) satisfies this for top-level pages; reply
// pages are fetched separately, through GetReplyPage (see
// WalkDeletedReplies).
type PageFetcher interface {
	GetPage(ctx context.Context, address model.Address, cid string) (*model.Page, error)
}

// AssembleThreads builds the full thread list for a board's posts
// surface, per the three-case rule: an already-active-sorted chain wins
// outright; a preloaded page is walked and then re-sorted; an empty
// surface yields an empty list.
func AssembleThreads(ctx context.Context, fetcher PageFetcher, address model.Address, posts model.Posts) ([]*model.Thread, error) {
	if activeCid, ok := posts.PageCids["active"]; ok && activeCid != "" {
		return walkChain(ctx, fetcher, address, activeCid)
	}

	for _, page := range posts.Pages {
		if page == nil {
			continue
		}
		threads, err := walkPreloaded(ctx, fetcher, address, page)
		if err != nil {
			return nil, err
		}
		sortActive(threads)
		return threads, nil
	}

	return nil, nil
}

func walkChain(ctx context.Context, fetcher PageFetcher, address model.Address, startCid string) ([]*model.Thread, error) {
	var threads []*model.Thread
	cid := startCid
	for cid != "" {
		page, err := fetcher.GetPage(ctx, address, cid)
		if err != nil {
			return nil, fmt.Errorf("paginate: fetching page %s: %w", cid, err)
		}
		threads = append(threads, page.Comments...)
		cid = page.NextCID
	}
	return threads, nil
}

func walkPreloaded(ctx context.Context, fetcher PageFetcher, address model.Address, first *model.Page) ([]*model.Thread, error) {
	threads := append([]*model.Thread{}, first.Comments...)
	cid := first.NextCID
	for cid != "" {
		page, err := fetcher.GetPage(ctx, address, cid)
		if err != nil {
			return nil, fmt.Errorf("paginate: fetching continuation page %s: %w", cid, err)
		}
		threads = append(threads, page.Comments...)
		cid = page.NextCID
	}
	return threads, nil
}

// sortActive orders threads by lastReplyTimestamp descending, breaking
// ties by postNumber descending.
func sortActive(threads []*model.Thread) {
	slices.SortFunc(threads, func(a, b *model.Thread) int {
		if a.LastReplyTimestamp != b.LastReplyTimestamp {
			if a.LastReplyTimestamp > b.LastReplyTimestamp {
				return -1
			}
			return 1
		}
		if a.PostNumber != b.PostNumber {
			if a.PostNumber > b.PostNumber {
				return -1
			}
			return 1
		}
		return 0
	})
}

// replyPageFetcher fetches a reply continuation page rooted at a specific
// parent comment, as distinct from a top-level board page.
type replyPageFetcher interface {
	GetReplyPage(ctx context.Context, address model.Address, parentID, cid string) (*model.Page, error)
}

// WalkDeletedReplies breadth-first walks thread's reply subtree, returning
// the CIDs of every descendant with deleted == true. fetcher only needs
// GetReplyPage, the parent-scoped reply page fetch; GetPage is not used.
func WalkDeletedReplies(ctx context.Context, fetcher replyPageFetcher, address model.Address, thread *model.Thread) ([]string, error) {
	if thread.Replies == nil {
		return nil, nil
	}

	type queued struct {
		parentID string
		pageCid  string
	}

	visited := make(map[string]bool)
	var queue []queued
	var deleted []string

	enqueue := func(parentID, cid string) {
		if cid == "" {
			return
		}
		key := parentID + ":" + cid
		if visited[key] {
			return
		}
		visited[key] = true
		queue = append(queue, queued{parentID: parentID, pageCid: cid})
	}

	for sortKey, cid := range thread.Replies.PageCids {
		_ = sortKey
		enqueue(thread.CID, cid)
	}
	for sortKey, page := range thread.Replies.Pages {
		_ = sortKey
		if page == nil {
			continue
		}
		scanPage(page, &deleted)
		enqueue(thread.CID, page.NextCID)
	}

	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		page, err := fetcher.GetReplyPage(ctx, address, next.parentID, next.pageCid)
		if err != nil {
			return nil, fmt.Errorf("paginate: fetching reply page %s: %w", next.pageCid, err)
		}
		scanPage(page, &deleted)
		enqueue(next.parentID, page.NextCID)

		for _, reply := range page.Comments {
			if reply.Replies == nil {
				continue
			}
			for _, cid := range reply.Replies.PageCids {
				enqueue(reply.CID, cid)
			}
		}
	}

	return deleted, nil
}

func scanPage(page *model.Page, deleted *[]string) {
	if page == nil {
		return
	}
	for _, reply := range page.Comments {
		if reply.Deleted {
			*deleted = append(*deleted, reply.CID)
		}
	}
}
