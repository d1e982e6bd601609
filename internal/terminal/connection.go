package terminal

import (
	"fmt"
	"log"
	"sync"
	"time"

	engerr "github.com/ducminhle1904/mt5-trade-engine/internal/errors"
	"github.com/ducminhle1904/mt5-trade-engine/internal/monitoring"
	"github.com/ducminhle1904/mt5-trade-engine/pkg/types"
)

// State is the connection lifecycle state.
type State int

const (
	StateDisconnected State = iota
	StateConnected
)

func (s State) String() string {
	if s == StateConnected {
		return "connected"
	}
	return "disconnected"
}

// Options tune the reconnect behavior.
type Options struct {
	// ConnectRetries bounds terminal initialization attempts per connect.
	ConnectRetries int

	// RetryBackoff is the fixed wait between failed initialization
	// attempts.
	RetryBackoff time.Duration

	// SettleInterval is the wait after a teardown before the next
	// initialization. MT5's IPC channel rejects a too-fast re-initialize.
	SettleInterval time.Duration
}

// DefaultOptions returns the reconnect defaults.
func DefaultOptions() Options {
	return Options{
		ConnectRetries: 3,
		RetryBackoff:   2 * time.Second,
		SettleInterval: 2 * time.Second,
	}
}

// Connection owns the terminal session state machine: Disconnected or
// Connected{identity}. It is the single owner of that state; nothing else
// may mutate it. All execution-layer terminal calls go through
// EnsureConnected first and must never assume a prior Connected state is
// still valid.
type Connection struct {
	term Terminal
	opts Options

	mu       sync.Mutex
	state    State
	identity *types.AccountIdentity
	creds    *Credentials
}

// NewConnection wraps a terminal binding in a connection state machine.
func NewConnection(term Terminal, opts Options) *Connection {
	if opts.ConnectRetries <= 0 {
		opts.ConnectRetries = DefaultOptions().ConnectRetries
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = DefaultOptions().RetryBackoff
	}
	if opts.SettleInterval <= 0 {
		opts.SettleInterval = DefaultOptions().SettleInterval
	}

	return &Connection{
		term:  term,
		opts:  opts,
		state: StateDisconnected,
	}
}

// State returns the current lifecycle state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Identity returns the connected account identity, or nil when
// disconnected.
func (c *Connection) Identity() *types.AccountIdentity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

// Connect brings the session to Connected{identity}.
//
// Idempotent: when already connected and the requested identity matches
// (or no credentials were supplied) and force is false, this is a no-op —
// repeated calls must not tear down a healthy session. A different
// identity, or force, triggers an explicit teardown, a settle wait, then
// bounded initialization retries with fixed backoff. When credentials are
// supplied, authentication failure tears down the just-opened channel.
func (c *Connection) Connect(creds *Credentials, force bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateConnected && !force {
		if creds == nil || (c.identity != nil && creds.Login == c.identity.Login) {
			return nil
		}
		// Connected, but to a different account: switch requires a full
		// teardown.
		log.Printf("terminal: switching account %d -> %d", c.identity.Login, creds.Login)
		force = true
	}

	if force {
		c.teardownLocked()
		time.Sleep(c.opts.SettleInterval)
	}

	if err := c.initializeWithRetry(); err != nil {
		return err
	}

	if creds != nil {
		if err := c.term.Login(creds.Login, creds.Password, creds.Server); err != nil {
			c.teardownLocked()
			return engerr.NewConnectionError("terminal", "login", err)
		}
	}

	identity, err := c.term.AccountIdentity()
	if err != nil || identity == nil {
		c.teardownLocked()
		if err == nil {
			err = fmt.Errorf("terminal has no authenticated session")
		}
		return engerr.NewConnectionError("terminal", "connect", err)
	}

	c.state = StateConnected
	c.identity = identity
	c.creds = creds
	log.Printf("terminal: connected to account %d (%s)", identity.Login, identity.Server)

	return nil
}

// initializeWithRetry attempts terminal initialization up to
// ConnectRetries times with a fixed backoff. Caller holds c.mu.
func (c *Connection) initializeWithRetry() error {
	var lastErr error
	for attempt := 1; attempt <= c.opts.ConnectRetries; attempt++ {
		lastErr = c.term.Initialize()
		if lastErr == nil {
			return nil
		}

		log.Printf("terminal: initialize attempt %d/%d failed: %v", attempt, c.opts.ConnectRetries, lastErr)
		if attempt < c.opts.ConnectRetries {
			time.Sleep(c.opts.RetryBackoff)
		}
	}

	return engerr.NewConnectionError("terminal", "initialize",
		fmt.Errorf("exhausted %d attempts: %w", c.opts.ConnectRetries, lastErr))
}

// Disconnect tears the session down and returns to Disconnected.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
}

// teardownLocked shuts the terminal down and resets state. Caller holds
// c.mu.
func (c *Connection) teardownLocked() {
	c.term.Shutdown()
	c.state = StateDisconnected
	c.identity = nil
}

// InstrumentMetadata fetches live sizing metadata through a verified
// session.
func (c *Connection) InstrumentMetadata(symbol string) (*types.InstrumentMetadata, error) {
	if err := c.EnsureConnected(); err != nil {
		return nil, err
	}
	return c.term.InstrumentMetadata(symbol)
}

// SubmitLimitOrder places a pending LIMIT order through a verified session.
func (c *Connection) SubmitLimitOrder(req LimitOrderRequest) (*OrderResult, error) {
	if err := c.EnsureConnected(); err != nil {
		return nil, err
	}
	order, err := c.term.SubmitLimitOrder(req)
	if err != nil {
		return nil, engerr.NewTerminalError("terminal", "submit_limit_order", err)
	}
	return order, nil
}

// CancelPendingOrder deletes a pending order through a verified session.
func (c *Connection) CancelPendingOrder(ticket int64) error {
	if err := c.EnsureConnected(); err != nil {
		return err
	}
	if err := c.term.CancelPendingOrder(ticket); err != nil {
		return engerr.NewTerminalError("terminal", "cancel_pending_order", err)
	}
	return nil
}

// HealthCheck queries the live account identity. Any error or empty
// response downgrades the state to Disconnected. It never upgrades:
// a Disconnected session stays Disconnected until an explicit Connect.
func (c *Connection) HealthCheck() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	identity, err := c.term.AccountIdentity()
	if err != nil || identity == nil {
		if c.state == StateConnected {
			log.Printf("terminal: health check failed, marking disconnected: %v", err)
		}
		c.state = StateDisconnected
		c.identity = nil
		return false
	}

	return c.state == StateConnected
}

// EnsureConnected restores connectivity if the health check fails,
// reusing the credentials from the last successful Connect. This is the
// mandatory precondition for every terminal-facing execution operation.
func (c *Connection) EnsureConnected() error {
	if c.HealthCheck() {
		return nil
	}

	c.mu.Lock()
	creds := c.creds
	c.mu.Unlock()

	log.Printf("terminal: connection lost, attempting reconnect")
	monitoring.RecordReconnect()
	return c.Connect(creds, true)
}
