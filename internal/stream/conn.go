// Package stream keeps a resilient subscription connection to the exchange's
// WebSocket feed and turns inbound frames into typed events.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/polyclob/internal/domain"
	"github.com/alejandrodnm/polyclob/internal/ports"
)

// State is the connection lifecycle state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	}
	return "disconnected"
}

// Connection owns one transport session at a time plus the subscription
// registry that outlives it. Events are delivered in wire order on Events().
//
// Each Open gets a session number; callbacks from an older session are
// ignored, so a late close from a replaced socket cannot tear down a new one.
type Connection struct {
	cfg       Config
	transport ports.Transport
	registry  *Registry
	events    chan Event
	now       func() time.Time

	mu          sync.Mutex
	state       State
	attempts    int
	session     uint64
	intentional bool
	stopPing    chan struct{}
	reconnect   *time.Timer
}

// NewConnection creates a disconnected connection over transport.
func NewConnection(cfg Config, transport ports.Transport) *Connection {
	cfg = cfg.normalize()
	return &Connection{
		cfg:       cfg,
		transport: transport,
		registry:  NewRegistry(),
		events:    make(chan Event, cfg.EventBuffer),
		now:       time.Now,
	}
}

// Events is the single stream of data and lifecycle events. It is never closed.
func (c *Connection) Events() <-chan Event {
	return c.events
}

// State returns the current lifecycle state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Attempts returns the number of reconnects scheduled since the last successful open.
func (c *Connection) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// Subscriptions returns the registered channels in subscription order.
func (c *Connection) Subscriptions() []Channel {
	return c.registry.Snapshot()
}

// Connect opens the transport. It is a no-op while connecting or connected.
// A failed open is handled like an unexpected close: it may schedule a reconnect.
func (c *Connection) Connect(ctx context.Context) error {
	return c.connect(ctx, false)
}

func (c *Connection) connect(ctx context.Context, retry bool) error {
	c.mu.Lock()
	if c.state == StateConnecting || c.state == StateConnected {
		c.mu.Unlock()
		return nil
	}
	if retry && c.state != StateReconnecting {
		// Disconnect() ran between the timer firing and now.
		c.mu.Unlock()
		return nil
	}
	c.stopReconnectLocked()
	if !retry {
		// una llamada explícita abre un ciclo de reintentos nuevo
		c.attempts = 0
	}
	c.state = StateConnecting
	c.intentional = false
	c.session++
	session := c.session
	c.mu.Unlock()

	slog.Debug("stream connecting", "url", c.cfg.URL, "session", session)

	err := c.transport.Open(ctx, c.cfg.URL,
		func(raw []byte) { c.handleFrame(session, raw) },
		func(err error) { c.handleClose(session, err) },
	)
	if err != nil {
		terr := &domain.TransportError{Op: "open", Err: err}
		slog.Warn("stream open failed", "url", c.cfg.URL, "err", err)
		c.handleClose(session, terr)
		return fmt.Errorf("stream.Connect: %w", terr)
	}

	c.mu.Lock()
	if c.session != session || c.state != StateConnecting {
		// closed or disconnected while dialing
		c.mu.Unlock()
		return nil
	}
	c.state = StateConnected
	c.attempts = 0
	c.startPingLocked()
	subs := c.registry.Snapshot()
	c.mu.Unlock()

	slog.Info("stream connected", "url", c.cfg.URL, "subscriptions", len(subs))
	c.emit(Event{Type: EventConnected, At: c.now()})

	for _, ch := range subs {
		c.sendRaw(subscribeFrame(ch))
	}
	return nil
}

// Disconnect closes the connection for good: timers stop, the transport is
// closed and the registry is cleared. Calling it again is a no-op.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	wasActive := c.state != StateDisconnected
	c.intentional = true
	c.session++
	c.stopPingLocked()
	c.stopReconnectLocked()
	c.state = StateDisconnected
	c.attempts = 0
	c.mu.Unlock()

	c.registry.Clear()
	if err := c.transport.Close(); err != nil {
		slog.Debug("stream transport close", "err", err)
	}

	if wasActive {
		slog.Info("stream disconnected by caller")
		c.emit(Event{Type: EventDisconnected, At: c.now()})
	}
}

// Subscribe registers ch. The subscribe frame goes out now if connected,
// otherwise on the next successful open. Duplicates are ignored.
func (c *Connection) Subscribe(ch Channel) {
	if !c.registry.Add(ch) {
		return
	}
	if c.State() == StateConnected {
		c.sendRaw(subscribeFrame(ch))
	}
}

// Unsubscribe removes ch and tells the server if connected.
func (c *Connection) Unsubscribe(ch Channel) {
	if !c.registry.Remove(ch) {
		return
	}
	if c.State() == StateConnected {
		c.sendRaw(unsubscribeFrame(ch))
	}
}

// Send marshals msg and writes it. While not connected the message is logged
// and dropped; nothing is queued.
func (c *Connection) Send(msg any) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("stream.Send: marshal: %w", err)
	}
	return c.sendRaw(raw)
}

func (c *Connection) sendRaw(raw []byte) error {
	if c.State() != StateConnected {
		err := &domain.TransportError{Op: "send while not connected"}
		slog.Warn("stream send dropped", "err", err, "frame", string(raw))
		return err
	}
	if err := c.transport.Send(raw); err != nil {
		terr := &domain.TransportError{Op: "send", Err: err}
		slog.Warn("stream send failed", "err", terr)
		return terr
	}
	return nil
}

// handleFrame runs on the transport's read goroutine, one frame at a time.
func (c *Connection) handleFrame(session uint64, raw []byte) {
	c.mu.Lock()
	stale := session != c.session
	c.mu.Unlock()
	if stale {
		return
	}

	ev, ok, err := ParseFrame(raw, c.now())
	if err != nil {
		slog.Warn("stream frame dropped", "err", err)
		return
	}
	if !ok {
		slog.Debug("stream frame ignored", "frame", string(raw))
		return
	}
	c.emit(ev)
}

// handleClose reacts to the end of a session that the caller did not request.
func (c *Connection) handleClose(session uint64, cause error) {
	c.mu.Lock()
	if session != c.session || c.intentional {
		c.mu.Unlock()
		return
	}
	if c.state != StateConnected && c.state != StateConnecting {
		c.mu.Unlock()
		return
	}

	c.stopPingLocked()
	c.state = StateDisconnected

	var (
		delay     time.Duration
		exhausted bool
		attempt   int
	)
	if c.cfg.AutoReconnect {
		if c.attempts < c.cfg.MaxReconnectAttempts {
			delay = backoff(c.cfg.ReconnectBaseDelay, c.cfg.ReconnectMaxDelay, c.attempts)
			c.attempts++
			attempt = c.attempts
			c.state = StateReconnecting
			c.reconnect = time.AfterFunc(delay, func() {
				if err := c.connect(context.Background(), true); err != nil {
					slog.Debug("stream reconnect attempt failed", "attempt", attempt, "err", err)
				}
			})
		} else {
			exhausted = true
		}
	}
	attempts := c.attempts
	c.mu.Unlock()

	slog.Warn("stream closed unexpectedly", "err", cause)
	c.emit(Event{Type: EventDisconnected, At: c.now(), Err: cause})

	switch {
	case attempt > 0:
		slog.Info("stream reconnect scheduled", "attempt", attempt, "delay", delay)
	case exhausted:
		err := fmt.Errorf("%w after %d attempts", domain.ErrConnectionExhausted, attempts)
		slog.Error("stream giving up", "err", err)
		c.emit(Event{Type: EventError, At: c.now(), Err: err})
	}
}

// emit delivers ev without blocking the read loop. A full buffer drops the event.
func (c *Connection) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
		slog.Warn("stream event buffer full, dropping event", "event", describe(ev))
	}
}

func (c *Connection) startPingLocked() {
	c.stopPingLocked()
	if c.cfg.PingInterval <= 0 {
		return
	}
	stop := make(chan struct{})
	c.stopPing = stop
	go c.pingLoop(stop)
}

func (c *Connection) stopPingLocked() {
	if c.stopPing != nil {
		close(c.stopPing)
		c.stopPing = nil
	}
}

func (c *Connection) stopReconnectLocked() {
	if c.reconnect != nil {
		c.reconnect.Stop()
		c.reconnect = nil
	}
}

func (c *Connection) pingLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			_ = c.sendRaw(pingFrame)
		}
	}
}
