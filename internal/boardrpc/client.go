package boardrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go5chan/boardkeeper/internal/model"
)

// Client is the concrete Transport over a single RPC websocket connection.
// Construct with Dial.
type Client struct {
	wire *wireClient

	mu          sync.Mutex
	hostedAddrs map[model.Address]bool
	ready       chan struct{}
	readyOnce   sync.Once
	subscribers map[model.Address][]func(*model.Board)
}

var _ Transport = (*Client)(nil)

// Dial opens the RPC connection and starts listening for events. Callers
// must still call WaitReady before relying on HostsLocally.
func Dial(rpcURL, userAgent string) (*Client, error) {
	c := &Client{
		hostedAddrs: make(map[model.Address]bool),
		ready:       make(chan struct{}),
		subscribers: make(map[model.Address][]func(*model.Board)),
	}
	wire, err := dialWire(rpcURL, userAgent, c.handleEvent)
	if err != nil {
		return nil, err
	}
	c.wire = wire
	return c, nil
}

func (c *Client) handleEvent(event string, data json.RawMessage) {
	switch event {
	case "subplebbits-list-change":
		var addrs []model.Address
		if err := json.Unmarshal(data, &addrs); err != nil {
			return
		}
		c.mu.Lock()
		c.hostedAddrs = make(map[model.Address]bool, len(addrs))
		for _, a := range addrs {
			c.hostedAddrs[a] = true
		}
		c.mu.Unlock()
		c.readyOnce.Do(func() { close(c.ready) })
	case "update":
		var payload struct {
			Address model.Address `json:"address"`
			Board   *model.Board  `json:"board"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return
		}
		c.mu.Lock()
		handlers := append([]func(*model.Board){}, c.subscribers[payload.Address]...)
		c.mu.Unlock()
		for _, h := range handlers {
			if h != nil {
				h(payload.Board)
			}
		}
	}
}

// WaitReady blocks until the first subplebbits-list-change event arrives
// or ctx is done.
func (c *Client) WaitReady(ctx context.Context) error {
	select {
	case <-c.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) CreateSigner(ctx context.Context, privateKey string) (SignerInfo, error) {
	var out SignerInfo
	err := c.wire.call("createSigner", map[string]any{"privateKey": privateKey}, &out)
	return out, err
}

func (c *Client) GetBoard(ctx context.Context, address model.Address) (*model.Board, error) {
	var out model.Board
	if err := c.wire.call("getBoard", map[string]any{"address": address}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Subscribe(ctx context.Context, address model.Address, onUpdate func(*model.Board)) (func(), error) {
	c.mu.Lock()
	index := len(c.subscribers[address])
	c.subscribers[address] = append(c.subscribers[address], onUpdate)
	c.mu.Unlock()

	unsubscribe := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		handlers := c.subscribers[address]
		if index < len(handlers) {
			handlers[index] = nil
		}
	}
	return unsubscribe, nil
}

func (c *Client) StartBoard(ctx context.Context, address model.Address) error {
	return c.wire.call("startBoard", map[string]any{"address": address}, nil)
}

func (c *Client) StopBoard(ctx context.Context, address model.Address) error {
	return c.wire.call("stopBoard", map[string]any{"address": address}, nil)
}

func (c *Client) EditBoard(ctx context.Context, address model.Address, roles map[string]model.Role) error {
	return c.wire.call("editBoard", map[string]any{"address": address, "roles": roles}, nil)
}

func (c *Client) HostsLocally(address model.Address) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hostedAddrs[address]
}

func (c *Client) PublishModeration(ctx context.Context, m model.Moderation, signer SignerInfo) error {
	return c.wire.call("publishModeration", map[string]any{
		"moderation": m,
		"signer":     signer,
	}, nil)
}

func (c *Client) GetPage(ctx context.Context, address model.Address, cid string) (*model.Page, error) {
	var out model.Page
	if err := c.wire.call("getPage", map[string]any{"address": address, "cid": cid}, &out); err != nil {
		return nil, fmt.Errorf("boardrpc: getPage %s: %w", cid, err)
	}
	return &out, nil
}

func (c *Client) GetReplyPage(ctx context.Context, address model.Address, parentID, cid string) (*model.Page, error) {
	var out model.Page
	if err := c.wire.call("getReplyPage", map[string]any{"address": address, "parentId": parentID, "cid": cid}, &out); err != nil {
		return nil, fmt.Errorf("boardrpc: getReplyPage %s: %w", cid, err)
	}
	return &out, nil
}

func (c *Client) Close() error {
	return c.wire.close()
}
