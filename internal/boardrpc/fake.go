package boardrpc

import (
	"context"
	"fmt"
	"sync"

	"github.com/go5chan/boardkeeper/internal/model"
)

// FakeTransport is an in-memory Transport double shared by this package's
// own tests and internal/worker's tests. It simulates a single RPC server
// that locally hosts a fixed set of addresses and lets a test mutate board
// state and fire subscriber callbacks directly.
type FakeTransport struct {
	mu sync.Mutex

	hosted    map[model.Address]bool
	boards    map[model.Address]*model.Board
	pages     map[string]*model.Page // keyed by cid
	observers map[model.Address][]func(*model.Board)

	// Published records every call to PublishModeration, in order.
	Published []model.Moderation

	// Started/Stopped record StartBoard/StopBoard calls by address.
	Started []model.Address
	Stopped []model.Address

	// Signers maps a requested privateKey (or "" for "generate new") to
	// the SignerInfo CreateSigner should return. A missing entry for ""
	// generates a random ed25519 key pair and caches it under "".
	Signers map[string]SignerInfo

	closed bool
}

// NewFakeTransport returns a ready-to-use fake with no hosted boards.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{
		hosted:    make(map[model.Address]bool),
		boards:    make(map[model.Address]*model.Board),
		pages:     make(map[string]*model.Page),
		observers: make(map[model.Address][]func(*model.Board)),
		Signers:   make(map[string]SignerInfo),
	}
}

var _ Transport = (*FakeTransport)(nil)

// SetHosted marks address as locally hosted, as if named in the most
// recent subplebbits-list-change event.
func (f *FakeTransport) SetHosted(address model.Address) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hosted[address] = true
}

// SetBoard installs or replaces the board value GetBoard returns.
func (f *FakeTransport) SetBoard(address model.Address, board *model.Board) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.boards[address] = board
}

// SetPage installs a page reachable via GetPage by CID.
func (f *FakeTransport) SetPage(cid string, page *model.Page) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[cid] = page
}

// PushUpdate invokes every observer subscribed to address with board, as a
// real Client would on receiving an "update" event.
func (f *FakeTransport) PushUpdate(address model.Address, board *model.Board) {
	f.mu.Lock()
	f.boards[address] = board
	handlers := append([]func(*model.Board){}, f.observers[address]...)
	f.mu.Unlock()
	for _, h := range handlers {
		if h != nil {
			h(board)
		}
	}
}

func (f *FakeTransport) WaitReady(ctx context.Context) error { return nil }

func (f *FakeTransport) CreateSigner(ctx context.Context, privateKey string) (SignerInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if info, ok := f.Signers[privateKey]; ok {
		return info, nil
	}

	if privateKey == "" {
		generatedKey, address, err := generateSignerKey()
		if err != nil {
			return SignerInfo{}, err
		}
		info := SignerInfo{Address: model.Address(address), PrivateKey: generatedKey}
		f.Signers[privateKey] = info
		return info, nil
	}

	address, err := deriveSignerKey(privateKey)
	if err != nil {
		return SignerInfo{}, err
	}
	info := SignerInfo{Address: model.Address(address), PrivateKey: privateKey}
	f.Signers[privateKey] = info
	return info, nil
}

func (f *FakeTransport) GetBoard(ctx context.Context, address model.Address) (*model.Board, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.boards[address]
	if !ok {
		return nil, fmt.Errorf("boardrpc: no such board %q", address)
	}
	return b, nil
}

func (f *FakeTransport) Subscribe(ctx context.Context, address model.Address, onUpdate func(*model.Board)) (func(), error) {
	f.mu.Lock()
	index := len(f.observers[address])
	f.observers[address] = append(f.observers[address], onUpdate)
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if handlers := f.observers[address]; index < len(handlers) {
			handlers[index] = nil
		}
	}, nil
}

func (f *FakeTransport) StartBoard(ctx context.Context, address model.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Started = append(f.Started, address)
	return nil
}

func (f *FakeTransport) StopBoard(ctx context.Context, address model.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Stopped = append(f.Stopped, address)
	return nil
}

func (f *FakeTransport) EditBoard(ctx context.Context, address model.Address, roles map[string]model.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.boards[address]
	if !ok {
		return fmt.Errorf("boardrpc: no such board %q", address)
	}
	if b.Roles == nil {
		b.Roles = make(map[string]model.Role)
	}
	for addr, role := range roles {
		b.Roles[addr] = role
	}
	return nil
}

func (f *FakeTransport) HostsLocally(address model.Address) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hosted[address]
}

func (f *FakeTransport) PublishModeration(ctx context.Context, m model.Moderation, signer SignerInfo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Published = append(f.Published, m)
	return nil
}

func (f *FakeTransport) GetPage(ctx context.Context, address model.Address, cid string) (*model.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pages[cid]
	if !ok {
		return nil, fmt.Errorf("boardrpc: no such page %q", cid)
	}
	return p, nil
}

func (f *FakeTransport) GetReplyPage(ctx context.Context, address model.Address, parentID, cid string) (*model.Page, error) {
	return f.GetPage(ctx, address, cid)
}

func (f *FakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (f *FakeTransport) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
