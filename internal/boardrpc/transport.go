// Package boardrpc is the thin façade over the external plebbit-style RPC
// library (SPEC §4.3): connect, wait for readiness, create signers, fetch a
// board, fetch paginated pages, and publish signed moderation actions. The
// wire protocol itself (internal/boardrpc/wire.go) is the one piece the
// spec calls out of scope — a stand-in for "the RPC client library" the
// daemon is built against.
package boardrpc

import (
	"context"

	"github.com/go5chan/boardkeeper/internal/model"
)

// SignerInfo is the ed25519 key material and derived address returned by
// CreateSigner.
type SignerInfo struct {
	Address    model.Address
	PrivateKey string // hex-encoded
}

// Transport is the capability set the board worker (C5) is built against.
// Client (wire.go/client.go) is the concrete implementation over a
// WebSocket connection; tests substitute FakeTransport.
type Transport interface {
	// WaitReady blocks until the RPC has pushed its hosted-boards list
	// (the subplebbits-list-change event), as connect() must per SPEC §4.3.
	WaitReady(ctx context.Context) error

	// CreateSigner asks the RPC to either generate a new ed25519 key pair
	// (privateKey == "") or recreate one from stored key material.
	CreateSigner(ctx context.Context, privateKey string) (SignerInfo, error)

	// GetBoard fetches the current view of a board.
	GetBoard(ctx context.Context, address model.Address) (*model.Board, error)

	// Subscribe registers onUpdate to be called on every RPC update event
	// for address. The returned func unsubscribes.
	Subscribe(ctx context.Context, address model.Address, onUpdate func(*model.Board)) (unsubscribe func(), err error)

	// StartBoard begins the board's update stream.
	StartBoard(ctx context.Context, address model.Address) error

	// StopBoard ends the board's update stream.
	StopBoard(ctx context.Context, address model.Address) error

	// EditBoard is used once at startup to self-grant moderator role on
	// boards this RPC server locally owns.
	EditBoard(ctx context.Context, address model.Address, roles map[string]model.Role) error

	// HostsLocally reports whether the RPC server's own subplebbits list
	// includes address (populated after WaitReady returns).
	HostsLocally(address model.Address) bool

	// PublishModeration signs and publishes a moderation record. Returns
	// once the RPC acknowledges receipt, not once it is durably
	// federated (SPEC §4.3).
	PublishModeration(ctx context.Context, m model.Moderation, signer SignerInfo) error

	// GetPage fetches a continuation page for a thread's top-level list,
	// identified by its CID.
	GetPage(ctx context.Context, address model.Address, cid string) (*model.Page, error)

	// GetReplyPage fetches a continuation page within a reply subtree,
	// scoped to its parent comment, per Comment.replies.getPage.
	GetReplyPage(ctx context.Context, address model.Address, parentID, cid string) (*model.Page, error)

	// Close destroys the RPC connection.
	Close() error
}
