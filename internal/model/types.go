// Package model holds the runtime entities the moderation daemon reasons
// about: board addresses, the thread/reply/page views surfaced by the RPC,
// and the moderation actions the daemon publishes back.
package model

// Address identifies a board. Either a public-key hash or a human-readable
// name; the RPC may rename a board's address mid-lifetime (see Worker
// address migration).
type Address string

// ModerationKind is the action a published moderation record carries.
type ModerationKind string

const (
	ModerationArchive ModerationKind = "archived"
	ModerationPurge   ModerationKind = "purged"
)

// ModerationReasons holds the free-form strings shown to users for each of
// the four rule outcomes. A zero-value field means "use the built-in
// default" — resolved at the option-resolver/worker boundary, never here.
type ModerationReasons struct {
	ArchiveCapacity  string `json:"archiveCapacity,omitempty" yaml:"archiveCapacity,omitempty"`
	ArchiveBumpLimit string `json:"archiveBumpLimit,omitempty" yaml:"archiveBumpLimit,omitempty"`
	PurgeArchived    string `json:"purgeArchived,omitempty" yaml:"purgeArchived,omitempty"`
	PurgeDeleted     string `json:"purgeDeleted,omitempty" yaml:"purgeDeleted,omitempty"`
}

// RecognizedReasonKeys is the closed set of moderationReasons keys. Any
// other key fails config validation (SPEC §3).
var RecognizedReasonKeys = []string{
	"archiveCapacity",
	"archiveBumpLimit",
	"purgeArchived",
	"purgeDeleted",
}

// Thread is a top-level post as surfaced by the RPC. Reply shares the same
// shape; only the fields the daemon consumes are modeled.
type Thread struct {
	CID                string  `json:"cid"`
	Pinned             bool    `json:"pinned"`
	Archived           bool    `json:"archived"`
	Deleted            bool    `json:"deleted"`
	ReplyCount         int     `json:"replyCount"`
	LastReplyTimestamp int64   `json:"lastReplyTimestamp"`
	PostNumber         int64   `json:"postNumber"`
	Replies            *Replies `json:"replies,omitempty"`
}

// Replies is the subtree of a thread's reply pages, used only for the
// breadth-first deleted-reply scan (Rule D).
type Replies struct {
	// Pages holds any preloaded first pages, keyed by sort name (same
	// shape as Posts.Pages at the thread level).
	Pages map[string]*Page `json:"pages,omitempty"`
	// PageCids holds continuation CIDs by sort name for sort orders that
	// were not preloaded.
	PageCids map[string]string `json:"pageCids,omitempty"`
}

// Page is an ordered slice of threads (or replies) plus an optional
// continuation CID.
type Page struct {
	Comments []*Thread `json:"comments"`
	NextCID  string    `json:"nextCid,omitempty"`
}

// Posts is the board's thread-list surface: a preloaded first page per sort
// order, plus continuation CIDs per sort order.
type Posts struct {
	Pages    map[string]*Page  `json:"pages,omitempty"`
	PageCids map[string]string `json:"pageCids,omitempty"`
}

// Board is the live RPC view of a board.
type Board struct {
	Address Address        `json:"address"`
	Posts   Posts          `json:"posts"`
	Roles   map[string]Role `json:"roles,omitempty"`
}

// Role is a board-granted role for a given signer address.
type Role struct {
	Role string `json:"role"` // "owner" | "admin" | "moderator"
}

// IsModerator reports whether role is one of the three roles that confer
// moderation rights.
func (r Role) IsModerator() bool {
	switch r.Role {
	case "owner", "admin", "moderator":
		return true
	default:
		return false
	}
}

// Moderation is a signed moderation action about to be published.
type Moderation struct {
	CommentID         string         `json:"commentId"`
	Kind              ModerationKind `json:"kind"`
	Reason            string         `json:"reason"`
	SubplebbitAddress Address        `json:"subplebbitAddress"`
}
