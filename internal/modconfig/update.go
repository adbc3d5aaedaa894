package modconfig

import (
	"fmt"

	"github.com/go5chan/boardkeeper/internal/model"
)

// FieldUpdates names the tunables an `edit`/`defaults set` command may set.
// A nil field is left untouched; reasons are merged per-key.
type FieldUpdates struct {
	PerPage             *int
	Pages               *int
	BumpLimit           *int
	ArchivePurgeSeconds *int
	ModerationReasons   *model.ModerationReasons
}

// UpdateBoardConfig returns a copy of board with updates merged in, then
// resetFields deleted. Purely functional: never mutates board. Refuses if
// any field name appears in both updates and resetFields.
func UpdateBoardConfig(board Board, updates FieldUpdates, resetFields []string) (Board, error) {
	if err := checkNoOverlap(updates, resetFields); err != nil {
		return Board{}, err
	}

	result := board
	if updates.PerPage != nil {
		result.PerPage = updates.PerPage
	}
	if updates.Pages != nil {
		result.Pages = updates.Pages
	}
	if updates.BumpLimit != nil {
		result.BumpLimit = updates.BumpLimit
	}
	if updates.ArchivePurgeSeconds != nil {
		result.ArchivePurgeSeconds = updates.ArchivePurgeSeconds
	}
	if updates.ModerationReasons != nil {
		result.ModerationReasons = mergeReasons(result.ModerationReasons, updates.ModerationReasons)
	}

	for _, field := range resetFields {
		switch field {
		case "perPage":
			result.PerPage = nil
		case "pages":
			result.Pages = nil
		case "bumpLimit":
			result.BumpLimit = nil
		case "archivePurgeSeconds":
			result.ArchivePurgeSeconds = nil
		case "moderationReasons":
			result.ModerationReasons = nil
		}
	}
	return result, nil
}

func checkNoOverlap(updates FieldUpdates, resetFields []string) error {
	set := make(map[string]bool, len(resetFields))
	for _, f := range resetFields {
		set[f] = true
	}
	setAndReset := func(field string, isSet bool) error {
		if isSet && set[field] {
			return fmt.Errorf("cannot set and reset the same field: %q", field)
		}
		return nil
	}
	if err := setAndReset("perPage", updates.PerPage != nil); err != nil {
		return err
	}
	if err := setAndReset("pages", updates.Pages != nil); err != nil {
		return err
	}
	if err := setAndReset("bumpLimit", updates.BumpLimit != nil); err != nil {
		return err
	}
	if err := setAndReset("archivePurgeSeconds", updates.ArchivePurgeSeconds != nil); err != nil {
		return err
	}
	if err := setAndReset("moderationReasons", updates.ModerationReasons != nil); err != nil {
		return err
	}
	return nil
}

func mergeReasons(base, updates *model.ModerationReasons) *model.ModerationReasons {
	result := model.ModerationReasons{}
	if base != nil {
		result = *base
	}
	if updates.ArchiveCapacity != "" {
		result.ArchiveCapacity = updates.ArchiveCapacity
	}
	if updates.ArchiveBumpLimit != "" {
		result.ArchiveBumpLimit = updates.ArchiveBumpLimit
	}
	if updates.PurgeArchived != "" {
		result.PurgeArchived = updates.PurgeArchived
	}
	if updates.PurgeDeleted != "" {
		result.PurgeDeleted = updates.PurgeDeleted
	}
	return &result
}
