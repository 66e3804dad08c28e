package channel

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"taskdeck/client/internal/protocol"
)

// reconnectDelay is deliberately fixed: the channel carries no
// write-amplifying load, so availability wins over backoff growth.
const reconnectDelay = 2 * time.Second

var ErrNotConnected = errors.New("channel is not connected")

type subscriber struct {
	id int
	fn func(protocol.Event)
}

type statusSubscriber struct {
	id int
	fn func(bool)
}

// Manager owns the one physical connection to the server's event
// channel. It validates every inbound frame before dispatch, answers
// liveness probes itself, and reconnects forever on drop. Subscribers
// see events strictly in arrival order.
type Manager struct {
	url    string
	dialer Dialer
	logger *slog.Logger
	delay  time.Duration

	mu         sync.RWMutex
	sock       Socket
	connected  bool
	nextSubID  int
	subs       []subscriber
	statusSubs []statusSubscriber
}

type ManagerOption func(*Manager)

// WithReconnectDelay overrides the retry interval, for tests.
func WithReconnectDelay(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.delay = d
		}
	}
}

func NewManager(url string, dialer Dialer, logger *slog.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		url:    url,
		dialer: dialer,
		logger: logger,
		delay:  reconnectDelay,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run connects and keeps the channel alive until ctx is cancelled.
// There is no retry limit: REST responses stay authoritative while the
// channel is down, so the loop just keeps trying.
func (m *Manager) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		sock, err := m.dialer.Dial(ctx, m.url)
		if err != nil {
			m.logger.Debug("channel dial failed", "url", m.url, "error", err)
			if !m.sleep(ctx) {
				return nil
			}
			continue
		}

		m.setSocket(sock, true)
		m.logger.Info("channel connected", "url", m.url)

		err = m.readLoop(ctx, sock)
		m.setSocket(nil, false)
		_ = sock.Close()
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return nil
		}
		m.logger.Info("channel disconnected, reconnecting", "error", err)
		if !m.sleep(ctx) {
			return nil
		}
	}
}

func (m *Manager) readLoop(ctx context.Context, sock Socket) error {
	for {
		text, err := sock.ReadText(ctx)
		if err != nil {
			return err
		}
		m.handleFrame(ctx, sock, text)
	}
}

func (m *Manager) handleFrame(ctx context.Context, sock Socket, text string) {
	ev, err := protocol.Decode([]byte(text))
	if err != nil {
		// Malformed frames never tear the connection down.
		m.logger.Warn("dropping malformed channel frame", "error", err)
		return
	}

	switch ev.(type) {
	case protocol.Ping:
		// Answered here so liveness is never starved by slow subscribers.
		if err := sock.WriteText(ctx, string(protocol.EncodePong())); err != nil {
			m.logger.Debug("pong reply failed", "error", err)
		}
		return
	case protocol.Pong:
		return
	}

	for _, sub := range m.subscribers() {
		sub.fn(ev)
	}
}

// Subscribe registers fn for every validated non-liveness event. The
// returned cancel removes the registration.
func (m *Manager) Subscribe(fn func(protocol.Event)) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	m.mu.Lock()
	m.nextSubID++
	id := m.nextSubID
	m.subs = append(m.subs, subscriber{id: id, fn: fn})
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i := range m.subs {
			if m.subs[i].id == id {
				m.subs = append(m.subs[:i], m.subs[i+1:]...)
				return
			}
		}
	}
}

// SubscribeStatus observes connectivity for UI display. fn is invoked
// with the current state immediately and on every change after.
func (m *Manager) SubscribeStatus(fn func(connected bool)) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	m.mu.Lock()
	m.nextSubID++
	id := m.nextSubID
	m.statusSubs = append(m.statusSubs, statusSubscriber{id: id, fn: fn})
	current := m.connected
	m.mu.Unlock()
	fn(current)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i := range m.statusSubs {
			if m.statusSubs[i].id == id {
				m.statusSubs = append(m.statusSubs[:i], m.statusSubs[i+1:]...)
				return
			}
		}
	}
}

func (m *Manager) Connected() bool {
	if m == nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// Ping probes the server over the live connection. The pong reply is
// consumed by the read loop and never reaches subscribers.
func (m *Manager) Ping(ctx context.Context) error {
	return m.Send(ctx, protocol.EncodePing())
}

// Send writes a client frame on the live connection.
func (m *Manager) Send(ctx context.Context, raw []byte) error {
	m.mu.RLock()
	sock := m.sock
	m.mu.RUnlock()
	if sock == nil {
		return ErrNotConnected
	}
	return sock.WriteText(ctx, string(raw))
}

func (m *Manager) setSocket(sock Socket, connected bool) {
	m.mu.Lock()
	m.sock = sock
	changed := m.connected != connected
	m.connected = connected
	statusSubs := append([]statusSubscriber(nil), m.statusSubs...)
	m.mu.Unlock()
	if !changed {
		return
	}
	for _, sub := range statusSubs {
		sub.fn(connected)
	}
}

func (m *Manager) subscribers() []subscriber {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]subscriber(nil), m.subs...)
}

func (m *Manager) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(m.delay):
		return true
	}
}
