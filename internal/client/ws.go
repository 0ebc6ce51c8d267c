package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WSConfig configures WebSocket transport behavior.
type WSConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// SubscribeTimeout bounds the wait for a subscription confirmation.
	SubscribeTimeout time.Duration
	// OnReconnect, when set, is called after each successful reconnect,
	// before subscriptions are replayed. Used to feed metrics.
	OnReconnect func()
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		SubscribeTimeout:  30 * time.Second,
	}
}

// NotificationHandler receives the raw result payload of one
// subscription notification. Handlers run on the transport's reader
// goroutine; a slow handler delays delivery of later notifications.
type NotificationHandler func(result json.RawMessage)

// subscription is one live entry in the registry. The subscribe request
// is kept so the entry can be replayed after a reconnect.
type subscription struct {
	method      string
	unsubMethod string
	params      []interface{}
	handler     NotificationHandler
}

// wsConn is the persistent subscription transport. Entries are keyed by
// the server-assigned subscription id, which changes on resubscribe.
type wsConn struct {
	endpoint string
	config   WSConfig
	logger   *log.Logger

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	subs   map[int64]*subscription
	subsMu sync.RWMutex

	// pendingSubs maps request ID to channel waiting for subscription ID
	pendingSubs   map[uint64]chan int64
	pendingSubsMu sync.Mutex

	done chan struct{}
	wg   sync.WaitGroup

	reconnecting atomic.Bool
}

// wsTransport returns the subscription transport, dialing it on first use.
func (c *Connection) wsTransport(ctx context.Context) (*wsConn, error) {
	c.wsMu.Lock()
	defer c.wsMu.Unlock()

	if c.ws != nil {
		return c.ws, nil
	}

	ws, err := newWSConn(ctx, c.wsEndpoint, c.wsConfig, c.logger)
	if err != nil {
		return nil, err
	}
	c.ws = ws
	return ws, nil
}

// newWSConn dials the endpoint and starts the reader and ping goroutines.
func newWSConn(ctx context.Context, endpoint string, config WSConfig, logger *log.Logger) (*wsConn, error) {
	w := &wsConn{
		endpoint:    endpoint,
		config:      config,
		logger:      logger,
		subs:        make(map[int64]*subscription),
		pendingSubs: make(map[uint64]chan int64),
		done:        make(chan struct{}),
	}

	if err := w.connect(ctx); err != nil {
		return nil, err
	}

	w.wg.Add(1)
	go w.readLoop()

	w.wg.Add(1)
	go w.pingLoop()

	return w, nil
}

// connect establishes WebSocket connection.
func (w *wsConn) connect(ctx context.Context) error {
	w.connMu.Lock()
	defer w.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, w.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	w.conn = conn
	return nil
}

// Subscribe issues a subscribe request, waits for the server-assigned
// id and registers the handler under it.
func (w *wsConn) Subscribe(ctx context.Context, method, unsubMethod string, params []interface{}, handler NotificationHandler) (int64, error) {
	sub := &subscription{
		method:      method,
		unsubMethod: unsubMethod,
		params:      params,
		handler:     handler,
	}

	subID, err := w.requestSubscription(ctx, method, params)
	if err != nil {
		return 0, err
	}

	w.subsMu.Lock()
	w.subs[subID] = sub
	w.subsMu.Unlock()

	return subID, nil
}

// Unsubscribe removes the registry entry and asks the server to tear
// down the subscription. The entry is gone even if the teardown request
// fails; later notifications with the stale id are silently dropped.
func (w *wsConn) Unsubscribe(ctx context.Context, subID int64) error {
	w.subsMu.Lock()
	sub, ok := w.subs[subID]
	delete(w.subs, subID)
	w.subsMu.Unlock()

	if !ok {
		return fmt.Errorf("unknown subscription %d", subID)
	}

	req := wsRequest{
		JSONRPC: "2.0",
		ID:      w.requestID.Add(1),
		Method:  sub.unsubMethod,
		Params:  []interface{}{subID},
	}
	if err := w.writeJSON(req); err != nil {
		w.logger.Printf("unsubscribe %d (%s): %v", subID, sub.unsubMethod, err)
	}
	return nil
}

// requestSubscription sends a subscribe request and waits for the
// server-assigned subscription id. It does not touch the registry.
func (w *wsConn) requestSubscription(ctx context.Context, method string, params []interface{}) (int64, error) {
	if w.closed.Load() {
		return 0, fmt.Errorf("transport closed")
	}

	reqID := w.requestID.Add(1)
	req := wsRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  method,
		Params:  params,
	}

	confirmCh := make(chan int64, 1)
	w.pendingSubsMu.Lock()
	w.pendingSubs[reqID] = confirmCh
	w.pendingSubsMu.Unlock()

	if err := w.writeJSON(req); err != nil {
		w.pendingSubsMu.Lock()
		delete(w.pendingSubs, reqID)
		w.pendingSubsMu.Unlock()
		return 0, fmt.Errorf("write subscribe: %w", err)
	}

	select {
	case subID, ok := <-confirmCh:
		// Close drains the pending map and closes the channel; a
		// zero-value receive here is a teardown, not a confirmation.
		if !ok {
			return 0, fmt.Errorf("transport closed")
		}
		return subID, nil
	case <-time.After(w.config.SubscribeTimeout):
		w.pendingSubsMu.Lock()
		delete(w.pendingSubs, reqID)
		w.pendingSubsMu.Unlock()
		return 0, fmt.Errorf("subscription timeout after %s", w.config.SubscribeTimeout)
	case <-w.done:
		return 0, fmt.Errorf("transport closed")
	case <-ctx.Done():
		w.pendingSubsMu.Lock()
		delete(w.pendingSubs, reqID)
		w.pendingSubsMu.Unlock()
		return 0, ctx.Err()
	}
}

func (w *wsConn) writeJSON(v interface{}) error {
	w.connMu.Lock()
	defer w.connMu.Unlock()

	if w.conn == nil {
		return fmt.Errorf("not connected")
	}
	w.conn.SetWriteDeadline(time.Now().Add(w.config.WriteTimeout))
	return w.conn.WriteJSON(v)
}

// Close closes the WebSocket connection and drops all subscriptions.
func (w *wsConn) Close() error {
	if w.closed.Swap(true) {
		return nil // Already closed
	}

	close(w.done)

	w.connMu.Lock()
	if w.conn != nil {
		w.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		w.conn.Close()
	}
	w.connMu.Unlock()

	w.subsMu.Lock()
	for id := range w.subs {
		delete(w.subs, id)
	}
	w.subsMu.Unlock()

	w.pendingSubsMu.Lock()
	for id, ch := range w.pendingSubs {
		close(ch)
		delete(w.pendingSubs, id)
	}
	w.pendingSubsMu.Unlock()

	w.wg.Wait()
	return nil
}

// readLoop reads messages from WebSocket and dispatches to handlers.
func (w *wsConn) readLoop() {
	defer w.wg.Done()

	reconnectDelay := w.config.ReconnectDelay

	for !w.closed.Load() {
		w.connMu.Lock()
		conn := w.conn
		w.connMu.Unlock()

		if conn == nil {
			select {
			case <-w.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(w.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if w.closed.Load() {
				return
			}

			// Connection error - attempt reconnect with exponential backoff
			if !w.reconnecting.Swap(true) {
				go w.reconnect(reconnectDelay)
			}

			reconnectDelay = reconnectDelay * 2
			if reconnectDelay > w.config.MaxReconnectDelay {
				reconnectDelay = w.config.MaxReconnectDelay
			}

			select {
			case <-w.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		// Reset delay on successful read
		reconnectDelay = w.config.ReconnectDelay

		w.handleMessage(message)
	}
}

// reconnect attempts to reconnect and replay all live subscriptions.
func (w *wsConn) reconnect(delay time.Duration) {
	defer w.reconnecting.Store(false)

	if w.closed.Load() {
		return
	}

	select {
	case <-w.done:
		return
	case <-time.After(delay):
	}

	w.connMu.Lock()
	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
	}
	w.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := w.connect(ctx); err != nil {
		w.logger.Printf("reconnect: %v", err)
		// Reconnect failed, will retry on next read error
		return
	}

	w.logger.Printf("reconnected to %s", w.endpoint)
	if w.config.OnReconnect != nil {
		w.config.OnReconnect()
	}
	w.resubscribeAll()
}

// resubscribeAll replays every registry entry on the new connection.
// The server assigns fresh subscription ids, so each entry is re-keyed.
func (w *wsConn) resubscribeAll() {
	w.subsMu.RLock()
	entries := make(map[int64]*subscription, len(w.subs))
	for id, sub := range w.subs {
		entries[id] = sub
	}
	w.subsMu.RUnlock()

	for oldSubID, sub := range entries {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		newSubID, err := w.requestSubscription(ctx, sub.method, sub.params)
		cancel()

		if err != nil {
			w.logger.Printf("resubscribe %s: %v", sub.method, err)
			// Failed to resubscribe, keep old mapping
			continue
		}

		w.subsMu.Lock()
		delete(w.subs, oldSubID)
		w.subs[newSubID] = sub
		w.subsMu.Unlock()
	}
}

// handleMessage processes one incoming WebSocket message.
func (w *wsConn) handleMessage(message []byte) {
	// Subscription confirmation first
	var resp wsSubscribeResponse
	if err := json.Unmarshal(message, &resp); err == nil && resp.Result > 0 {
		w.handleSubscribeResponse(&resp)
		return
	}

	// Notification
	var notif wsNotification
	if err := json.Unmarshal(message, &notif); err == nil && strings.HasSuffix(notif.Method, "Notification") {
		w.handleNotification(&notif)
		return
	}

	// Error response
	var errResp struct {
		JSONRPC string    `json:"jsonrpc"`
		ID      uint64    `json:"id"`
		Error   *RPCError `json:"error"`
	}
	if err := json.Unmarshal(message, &errResp); err == nil && errResp.Error != nil {
		// Log but don't crash; the pending subscribe will time out
		w.logger.Printf("ws error response: code=%d msg=%s", errResp.Error.Code, errResp.Error.Message)
	}
}

// handleSubscribeResponse handles subscription confirmation.
func (w *wsConn) handleSubscribeResponse(resp *wsSubscribeResponse) {
	w.pendingSubsMu.Lock()
	ch, ok := w.pendingSubs[resp.ID]
	if ok {
		delete(w.pendingSubs, resp.ID)
	}
	w.pendingSubsMu.Unlock()

	if ok {
		select {
		case ch <- resp.Result:
		default:
		}
	}
}

// handleNotification routes a notification to its handler. A stale id,
// left over from an unsubscribe racing the server, is dropped.
func (w *wsConn) handleNotification(notif *wsNotification) {
	if notif.Params == nil {
		return
	}

	w.subsMu.RLock()
	sub, ok := w.subs[notif.Params.Subscription]
	w.subsMu.RUnlock()

	if ok {
		sub.handler(notif.Params.Result)
	}
}

// pingLoop sends periodic ping frames to keep connection alive.
func (w *wsConn) pingLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.connMu.Lock()
			if w.conn != nil {
				w.conn.SetWriteDeadline(time.Now().Add(w.config.WriteTimeout))
				if err := w.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					// Connection might be dead, reader will handle reconnect
				}
			}
			w.connMu.Unlock()
		}
	}
}

// subscriptionCount reports live registry entries. Test hook.
func (w *wsConn) subscriptionCount() int {
	w.subsMu.RLock()
	defer w.subsMu.RUnlock()
	return len(w.subs)
}

// WebSocket message types

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type wsSubscribeResponse struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Result  int64  `json:"result"` // subscription ID
}

type wsNotification struct {
	JSONRPC string                `json:"jsonrpc"`
	Method  string                `json:"method"`
	Params  *wsNotificationParams `json:"params"`
}

type wsNotificationParams struct {
	Subscription int64           `json:"subscription"`
	Result       json.RawMessage `json:"result"`
}
