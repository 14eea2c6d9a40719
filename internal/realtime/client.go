package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/huguesloyatho/proxydash-sub002/internal/metrics"
	"github.com/huguesloyatho/proxydash-sub002/internal/protocol"
)

// Client is the Connection Manager. It owns the transport lifecycle
// (connect, disconnect, reconnect scheduling) and orchestrates replay of
// the Subscription Registry on every successful connection.
//
// At most one live transport exists at a time: every dial bumps a
// generation counter, and events arriving from a superseded connection
// (reads, heartbeat staleness) are discarded.
type Client struct {
	cfg     Config
	logger  *slog.Logger
	dialer  Dialer
	metrics *metrics.Realtime

	registry *registry

	mu        sync.Mutex
	state     ConnectionState
	conn      Conn
	gen       uint64
	token     string
	attempts  int
	hb        *heartbeat
	reconnect pendingTimer

	statusMu   sync.Mutex
	statusObs  map[uuid.UUID]StatusFunc
	statusQ    []bool
	statusBusy bool
}

// Option configures a Client.
type Option func(*Client)

// WithDialer replaces the production WebSocket dialer.
func WithDialer(d Dialer) Option {
	return func(c *Client) {
		c.dialer = d
	}
}

// WithMetrics wires Prometheus collectors into the client.
func WithMetrics(m *metrics.Realtime) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a realtime client. The caller owns its lifecycle:
// nothing dials until Connect and Disconnect releases every timer.
func NewClient(cfg Config, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		cfg:       cfg,
		logger:    logger,
		dialer:    NewWebsocketDialer(cfg.HandshakeTimeout, cfg.WriteTimeout),
		registry:  newRegistry(),
		state:     StateDisconnected,
		token:     cfg.Token,
		statusObs: make(map[uuid.UUID]StatusFunc),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Connect establishes the connection. It is idempotent: when already
// connected it returns nil immediately; when a dial is in flight it
// returns ErrConnectInProgress. A pending reconnect timer is cancelled
// and replaced by this immediate attempt. A dial failure is returned to
// the caller and additionally schedules a backoff retry, so an explicit
// Connect against a briefly unreachable server still self-heals.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateConnected:
		c.mu.Unlock()
		return nil
	case StateConnecting:
		c.mu.Unlock()
		return ErrConnectInProgress
	case StateReconnecting:
		c.reconnect.stop()
	}
	gen, dialURL := c.beginDialLocked()
	c.mu.Unlock()

	return c.dial(ctx, gen, dialURL)
}

// Disconnect cancels all timers, closes the transport, and settles
// Disconnected. The Subscription Registry is left intact so a subsequent
// Connect resumes prior interest.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.gen++
	c.reconnect.stop()
	wasConnected := c.state == StateConnected
	c.teardownConnLocked()
	c.state = StateDisconnected
	c.attempts = 0
	if wasConnected {
		c.queueStatusLocked(false)
	}
	c.mu.Unlock()

	c.flushStatus()
	c.logger.Info("realtime disconnected")
}

// SetToken sets the bearer token carried as a ?token= query parameter.
// Takes effect on the next dial.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// State returns the current connection state.
func (c *Client) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Status returns a side-effect-free snapshot for diagnostics.
func (c *Client) Status() Status {
	c.mu.Lock()
	connected := c.state == StateConnected
	attempts := c.attempts
	c.mu.Unlock()

	return Status{
		Connected:         connected,
		WidgetIDs:         c.registry.widgetIDs(),
		Types:             c.registry.typeNames(),
		ReconnectAttempts: attempts,
	}
}

// SubscribeWidget registers fn for updates to one widget id and returns
// a disposer removing only that registration. The unsubscribe frame is
// sent once the id carries no callbacks at all, update or error.
func (c *Client) SubscribeWidget(id int, fn UpdateFunc) func() {
	handle := c.registry.addWidget(id, fn)
	c.sendIfConnected(protocol.SubscribeWidget(id))
	c.metrics.SetSubscriptions(c.registry.size())

	var once sync.Once
	return func() {
		once.Do(func() {
			if gone := c.registry.removeWidget(id, handle); gone {
				c.sendIfConnected(protocol.UnsubscribeWidget(id))
			}
			c.metrics.SetSubscriptions(c.registry.size())
		})
	}
}

// SubscribeType registers fn for updates to every widget of one type.
func (c *Client) SubscribeType(name string, fn UpdateFunc) func() {
	handle := c.registry.addType(name, fn)
	c.sendIfConnected(protocol.SubscribeType(name))
	c.metrics.SetSubscriptions(c.registry.size())

	var once sync.Once
	return func() {
		once.Do(func() {
			if gone := c.registry.removeType(name, handle); gone {
				c.sendIfConnected(protocol.UnsubscribeType(name))
			}
			c.metrics.SetSubscriptions(c.registry.size())
		})
	}
}

// SubscribeErrors registers fn for widget_error frames of one widget id.
// Error subscriptions share the id key with update subscriptions.
func (c *Client) SubscribeErrors(id int, fn ErrorFunc) func() {
	handle := c.registry.addError(id, fn)
	c.sendIfConnected(protocol.SubscribeWidget(id))
	c.metrics.SetSubscriptions(c.registry.size())

	var once sync.Once
	return func() {
		once.Do(func() {
			if gone := c.registry.removeError(id, handle); gone {
				c.sendIfConnected(protocol.UnsubscribeWidget(id))
			}
			c.metrics.SetSubscriptions(c.registry.size())
		})
	}
}

// OnConnectionChange registers a connectivity observer, invoked with the
// boolean connected flag on each transition into or out of Connected.
// Observers are independent of widget subscriptions.
func (c *Client) OnConnectionChange(fn StatusFunc) func() {
	c.statusMu.Lock()
	handle := uuid.New()
	c.statusObs[handle] = fn
	c.statusMu.Unlock()

	return func() {
		c.statusMu.Lock()
		delete(c.statusObs, handle)
		c.statusMu.Unlock()
	}
}

// beginDialLocked transitions to Connecting and invalidates any previous
// connection's pending events.
func (c *Client) beginDialLocked() (uint64, string) {
	c.state = StateConnecting
	c.gen++
	return c.gen, c.dialURLLocked()
}

// dial performs one connection attempt for the given generation. On
// success it replays the registry, starts the heartbeat and read loop,
// and publishes the status change.
func (c *Client) dial(ctx context.Context, gen uint64, dialURL string) error {
	conn, err := c.dialer.DialContext(ctx, dialURL)

	c.mu.Lock()
	if c.gen != gen || c.state != StateConnecting {
		c.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return ErrConnectAborted
	}
	if err != nil {
		c.scheduleRetryLocked()
		c.mu.Unlock()
		return fmt.Errorf("dial realtime endpoint: %w", err)
	}

	c.conn = conn
	c.state = StateConnected
	c.attempts = 0
	c.replayLocked(conn)
	hb := newHeartbeat(c.cfg.HeartbeatInterval, c.cfg.PongTimeout, c.logger)
	c.hb = hb
	c.queueStatusLocked(true)
	c.mu.Unlock()

	c.flushStatus()
	c.logger.Info("realtime connected", "subscriptions", c.registry.size())

	go hb.run(
		func() error { return writeFrame(conn, protocol.Ping()) },
		func() { c.connLost(gen, ErrStaleConnection) },
	)
	go c.readLoop(conn, gen)

	return nil
}

// replayLocked re-issues a subscribe frame for every registered key, so
// server-side interest is reconstructed without consumer intervention.
// Runs before the connection's read loop starts: no inbound frame can be
// dispatched ahead of replay.
func (c *Client) replayLocked(conn Conn) {
	for _, key := range c.registry.keys() {
		var env protocol.Envelope
		switch key.Kind {
		case KeyWidget:
			env = protocol.SubscribeWidget(key.WidgetID)
		case KeyType:
			env = protocol.SubscribeType(key.WidgetType)
		}
		if err := writeFrame(conn, env); err != nil {
			c.logger.Warn("failed to replay subscription",
				"widget_id", key.WidgetID,
				"widget_type", key.WidgetType,
				"error", err,
			)
		}
	}
}

// scheduleRetryLocked arranges the next reconnection attempt, or settles
// Disconnected once attempts are exhausted. Delay before attempt n is
// base * 2^(n-1), capped at ReconnectMaxDelay.
func (c *Client) scheduleRetryLocked() {
	c.conn = nil
	if c.attempts >= c.cfg.MaxReconnectAttempts {
		c.state = StateDisconnected
		c.logger.Warn("reconnect attempts exhausted", "attempts", c.attempts)
		return
	}

	c.attempts++
	delay := backoffDelay(c.cfg.ReconnectBaseDelay, c.cfg.ReconnectMaxDelay, c.attempts)
	c.state = StateReconnecting
	c.logger.Info("scheduling reconnect",
		"attempt", c.attempts,
		"max_attempts", c.cfg.MaxReconnectAttempts,
		"delay", delay,
	)
	c.reconnect.schedule(delay, c.retry)
}

// retry runs when the backoff timer fires.
func (c *Client) retry() {
	c.mu.Lock()
	if c.state != StateReconnecting {
		c.mu.Unlock()
		return
	}
	attempt := c.attempts
	gen, dialURL := c.beginDialLocked()
	c.mu.Unlock()

	c.metrics.IncReconnect()
	c.logger.Info("attempting reconnection", "attempt", attempt)

	if err := c.dial(context.Background(), gen, dialURL); err != nil {
		c.logger.Warn("reconnection failed", "attempt", attempt, "error", err)
	}
}

// connLost handles an asynchronous transport failure for one generation.
// Stale generations are no-ops, so a read error and a heartbeat timeout
// racing on the same connection tear it down exactly once.
func (c *Client) connLost(gen uint64, err error) {
	c.mu.Lock()
	if c.gen != gen || c.state != StateConnected {
		c.mu.Unlock()
		return
	}
	c.gen++
	c.teardownConnLocked()
	c.scheduleRetryLocked()
	c.queueStatusLocked(false)
	c.mu.Unlock()

	c.flushStatus()
	c.logger.Warn("realtime connection lost", "error", err)
}

func (c *Client) teardownConnLocked() {
	if c.hb != nil {
		c.hb.stopNow()
		c.hb = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// readLoop reads frames from one connection until it fails.
func (c *Client) readLoop(conn Conn, gen uint64) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			c.connLost(gen, err)
			return
		}
		c.handleFrame(gen, data)
	}
}

// sendIfConnected sends a frame on the live connection, if any. Send
// failures surface through the read loop, so they are only logged here.
func (c *Client) sendIfConnected(env protocol.Envelope) {
	c.mu.Lock()
	conn := c.conn
	connected := c.state == StateConnected
	c.mu.Unlock()

	if !connected || conn == nil {
		return
	}
	if err := writeFrame(conn, env); err != nil {
		c.logger.Warn("failed to send frame", "type", env.Type, "error", err)
	}
}

// queueStatusLocked records a connectivity transition while c.mu is held,
// so the queue always carries transitions in the order the state machine
// produced them. Delivery happens in flushStatus, outside all locks.
func (c *Client) queueStatusLocked(connected bool) {
	c.statusMu.Lock()
	c.statusQ = append(c.statusQ, connected)
	c.statusMu.Unlock()
}

// flushStatus delivers queued transitions to the metrics gauge and the
// observers, in queue order. One goroutine drains at a time; a flusher
// arriving while another is active leaves its event to the active one,
// so a stale notification can never overtake a newer one.
func (c *Client) flushStatus() {
	c.statusMu.Lock()
	if c.statusBusy {
		c.statusMu.Unlock()
		return
	}
	c.statusBusy = true
	for len(c.statusQ) > 0 {
		connected := c.statusQ[0]
		c.statusQ = c.statusQ[1:]
		obs := make([]StatusFunc, 0, len(c.statusObs))
		for _, fn := range c.statusObs {
			obs = append(obs, fn)
		}
		c.statusMu.Unlock()

		c.metrics.SetConnected(connected)
		for _, fn := range obs {
			fn(connected)
		}

		c.statusMu.Lock()
	}
	c.statusBusy = false
	c.statusMu.Unlock()
}

// dialURLLocked builds the endpoint URL with the optional token parameter.
func (c *Client) dialURLLocked() string {
	if c.token == "" {
		return c.cfg.URL
	}
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return c.cfg.URL
	}
	q := u.Query()
	q.Set("token", c.token)
	u.RawQuery = q.Encode()
	return u.String()
}

func writeFrame(conn Conn, env protocol.Envelope) error {
	data, err := protocol.Encode(env)
	if err != nil {
		return err
	}
	return conn.WriteMessage(data)
}

// backoffDelay computes base * 2^(attempt-1) capped at max.
func backoffDelay(base, max time.Duration, attempt int) time.Duration {
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}
