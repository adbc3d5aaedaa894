package boardrpc

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"
)

// request is one outbound wire frame. The protocol is a minimal
// JSON-RPC-2.0-shaped request/response exchange with a side channel for
// unsolicited event pushes (board updates, subplebbits-list-change).
type request struct {
	ID     string `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

type response struct {
	ID     string          `json:"id,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
	Event  string          `json:"event,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// wireClient owns one websocket connection and demultiplexes responses by
// correlation ID, handing unsolicited event frames to onEvent.
type wireClient struct {
	conn    *websocket.Conn
	onEvent func(event string, data json.RawMessage)

	mu      sync.Mutex
	pending map[string]chan response
	closed  bool
}

func dialWire(rpcURL, userAgent string, onEvent func(string, json.RawMessage)) (*wireClient, error) {
	origin := strings.NewReplacer("wss://", "https://", "ws://", "http://").Replace(rpcURL)
	cfg, err := websocket.NewConfig(rpcURL, origin)
	if err != nil {
		return nil, fmt.Errorf("boardrpc: building websocket config: %w", err)
	}
	if cfg.Header == nil {
		cfg.Header = make(http.Header)
	}
	cfg.Header.Set("User-Agent", userAgent)

	conn, err := websocket.DialConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("boardrpc: dialing %s: %w", rpcURL, err)
	}

	wc := &wireClient{
		conn:    conn,
		onEvent: onEvent,
		pending: make(map[string]chan response),
	}
	go wc.readLoop()
	return wc, nil
}

func (wc *wireClient) readLoop() {
	for {
		var resp response
		if err := websocket.JSON.Receive(wc.conn, &resp); err != nil {
			wc.failAllPending(fmt.Errorf("boardrpc: connection closed: %w", err))
			return
		}
		if resp.Event != "" {
			if wc.onEvent != nil {
				wc.onEvent(resp.Event, resp.Data)
			}
			continue
		}
		wc.mu.Lock()
		ch, ok := wc.pending[resp.ID]
		if ok {
			delete(wc.pending, resp.ID)
		}
		wc.mu.Unlock()
		if ok {
			ch <- resp
		}
	}
}

func (wc *wireClient) failAllPending(err error) {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	wc.closed = true
	for id, ch := range wc.pending {
		ch <- response{ID: id, Error: err.Error()}
		delete(wc.pending, id)
	}
}

// call sends method(params) and blocks for the matching response, unmarshaling
// its result into out (a pointer), if out is non-nil.
func (wc *wireClient) call(method string, params any, out any) error {
	id := uuid.NewString()
	ch := make(chan response, 1)

	wc.mu.Lock()
	if wc.closed {
		wc.mu.Unlock()
		return fmt.Errorf("boardrpc: connection is closed")
	}
	wc.pending[id] = ch
	wc.mu.Unlock()

	if err := websocket.JSON.Send(wc.conn, request{ID: id, Method: method, Params: params}); err != nil {
		wc.mu.Lock()
		delete(wc.pending, id)
		wc.mu.Unlock()
		return fmt.Errorf("boardrpc: sending %s: %w", method, err)
	}

	resp := <-ch
	if resp.Error != "" {
		return fmt.Errorf("boardrpc: %s: %s", method, resp.Error)
	}
	if out != nil && len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, out); err != nil {
			return fmt.Errorf("boardrpc: decoding %s result: %w", method, err)
		}
	}
	return nil
}

func (wc *wireClient) close() error {
	return wc.conn.Close()
}
