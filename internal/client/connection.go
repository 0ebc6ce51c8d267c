// Package client speaks JSON-RPC 2.0 to a Solana node over HTTP for
// request/response methods and over a persistent WebSocket for
// subscriptions. A single Connection carries both transports; the
// WebSocket is dialed lazily on the first subscription.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// RPCError is a JSON-RPC 2.0 error object returned by the node.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// Connection is a client for a single Solana node.
type Connection struct {
	endpoint    string
	wsEndpoint  string
	commitment  Commitment
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	requestID   atomic.Uint64
	logger      *log.Logger
	observer    CallObserver

	wsMu     sync.Mutex
	ws       *wsConn
	wsConfig WSConfig
}

// Option configures a Connection.
type Option func(*Connection)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Connection) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts for read methods.
func WithMaxRetries(n int) Option {
	return func(c *Connection) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Connection) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) Option {
	return func(c *Connection) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Connection) {
		c.client = client
	}
}

// WithCommitment sets the default commitment level for all methods.
func WithCommitment(commitment Commitment) Option {
	return func(c *Connection) {
		c.commitment = commitment
	}
}

// WithWebsocketEndpoint overrides the subscription endpoint derived
// from the HTTP endpoint.
func WithWebsocketEndpoint(endpoint string) Option {
	return func(c *Connection) {
		c.wsEndpoint = endpoint
	}
}

// WithWSConfig overrides WebSocket timing parameters.
func WithWSConfig(cfg WSConfig) Option {
	return func(c *Connection) {
		c.wsConfig = cfg
	}
}

// CallObserver sees the outcome of every JSON-RPC call: the method
// name, the elapsed wall time including retries, and the final error
// (nil on success). Used to feed metrics from the cmd layer.
type CallObserver func(method string, elapsed time.Duration, err error)

// WithCallObserver registers an observer invoked after each call.
func WithCallObserver(fn CallObserver) Option {
	return func(c *Connection) {
		c.observer = fn
	}
}

// WithLogger sets the logger used for transport events.
func WithLogger(logger *log.Logger) Option {
	return func(c *Connection) {
		c.logger = logger
	}
}

// New creates a Connection to the given JSON-RPC endpoint.
func New(endpoint string, opts ...Option) *Connection {
	c := &Connection{
		endpoint:    endpoint,
		commitment:  CommitmentFinalized,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
		wsConfig:    DefaultWSConfig(),
		logger:      log.New(os.Stderr, "[client] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.wsEndpoint == "" {
		c.wsEndpoint = websocketURL(c.endpoint)
	}
	return c
}

// NewForCluster creates a Connection to a public cluster's default endpoint.
func NewForCluster(cluster Cluster, opts ...Option) *Connection {
	return New(cluster.APIURL(), opts...)
}

// Endpoint returns the HTTP JSON-RPC endpoint.
func (c *Connection) Endpoint() string {
	return c.endpoint
}

// Commitment returns the default commitment level.
func (c *Connection) Commitment() Commitment {
	return c.commitment
}

// Close shuts down the WebSocket transport if it was ever opened.
// HTTP needs no teardown.
func (c *Connection) Close() error {
	c.wsMu.Lock()
	ws := c.ws
	c.ws = nil
	c.wsMu.Unlock()
	if ws != nil {
		return ws.Close()
	}
	return nil
}

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// Call invokes an arbitrary JSON-RPC method and decodes the raw result
// into result. It retries like the typed read wrappers, so it is not
// suitable for transaction submission.
func (c *Connection) Call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	return c.call(ctx, method, params, result)
}

// call performs a JSON-RPC call with retries and exponential backoff.
// RPC errors reported by the node are returned immediately and never
// retried; only transport-level failures are.
func (c *Connection) call(ctx context.Context, method string, params []interface{}, result interface{}) (err error) {
	if c.observer != nil {
		start := time.Now()
		defer func() { c.observer(method, time.Since(start), err) }()
	}

	body, err := c.marshalRequest(method, params)
	if err != nil {
		return err
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		done, err := c.doHTTP(ctx, body, result)
		if done {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// callOnce performs a JSON-RPC call with no retry. Used for transaction
// submission, where a blind retry could double-spend a blockhash.
func (c *Connection) callOnce(ctx context.Context, method string, params []interface{}, result interface{}) (err error) {
	if c.observer != nil {
		start := time.Now()
		defer func() { c.observer(method, time.Since(start), err) }()
	}

	body, err := c.marshalRequest(method, params)
	if err != nil {
		return err
	}
	_, err = c.doHTTP(ctx, body, result)
	return err
}

func (c *Connection) marshalRequest(method string, params []interface{}) ([]byte, error) {
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return body, nil
}

// doHTTP executes one HTTP round trip. The bool reports whether the
// outcome is final: true means return err as-is, false means the
// attempt failed at the transport level and may be retried.
func (c *Connection) doHTTP(ctx context.Context, body []byte, result interface{}) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return true, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("http request: %w", err)
	}

	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return false, fmt.Errorf("read response: %w", err)
	}

	// Handle rate limiting
	if resp.StatusCode == http.StatusTooManyRequests {
		return false, fmt.Errorf("rate limited (429)")
	}

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return false, fmt.Errorf("unmarshal response: %w", err)
	}

	if rpcResp.Error != nil {
		return true, rpcResp.Error
	}

	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return true, fmt.Errorf("unmarshal result: %w", err)
		}
	}

	return true, nil
}
