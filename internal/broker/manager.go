package broker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State is the connection manager's lifecycle state.
type State int

const (
	// StateIdle means no connection exists and none is being attempted.
	StateIdle State = iota

	// StateConnecting means a dial or handshake is in flight.
	StateConnecting

	// StateConnected means the transport is up and both channels are
	// subscribed.
	StateConnected

	// StateReconnecting means the transport died and a retry is
	// scheduled.
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

const (
	defaultBaseDelay   = 5 * time.Second
	defaultMaxAttempts = 5
)

// Manager owns the single logical broker connection for a session. It
// dials, declares the two channel subscriptions on every successful
// connect, and retries with linear backoff (base delay times the
// attempt number) when the transport closes. After the attempt cap is
// exhausted it goes idle until Connect is called again.
//
// The transport close event is the only reconnect trigger. Protocol
// errors are logged and left for the transport layer to surface as a
// close, avoiding duplicate reconnects from two error paths.
type Manager struct {
	dialer      Dialer
	sink        LiveSink
	log         *zap.Logger
	baseDelay   time.Duration
	maxAttempts int

	mu       sync.Mutex
	state    State
	attempts int
	gen      int // transport generation; stale close events are ignored
	userID   string
	conn     Conn
	subs     []Subscription
	timer    *time.Timer
}

// NewManager creates an idle connection manager. Zero values for
// baseDelay and maxAttempts select the defaults (5s, 5 attempts).
func NewManager(
	dialer Dialer,
	sink LiveSink,
	baseDelay time.Duration,
	maxAttempts int,
	log *zap.Logger,
) *Manager {
	if baseDelay <= 0 {
		baseDelay = defaultBaseDelay
	}
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &Manager{
		dialer:      dialer,
		sink:        sink,
		log:         log,
		baseDelay:   baseDelay,
		maxAttempts: maxAttempts,
	}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connect establishes the broker connection for the given user. No-op
// when already connected or connecting. A pending backoff timer is
// cancelled and the attempt counter restarts: an explicit call is a
// fresh start, not attempt n+1.
//
// On dial failure the manager schedules its own retry before returning
// the error, mirroring the behavior on a transport close.
func (m *Manager) Connect(ctx context.Context, userID string) error {
	m.mu.Lock()
	if m.state == StateConnected || m.state == StateConnecting {
		m.mu.Unlock()
		return nil
	}
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.userID = userID
	m.attempts = 0
	m.state = StateConnecting
	m.mu.Unlock()

	if err := m.dial(ctx); err != nil {
		m.mu.Lock()
		if m.state == StateConnecting {
			m.state = StateReconnecting
			m.scheduleRetryLocked()
		}
		m.mu.Unlock()
		return err
	}
	return nil
}

// Disconnect tears the session down: unsubscribes all active
// subscriptions, deactivates the transport, and goes idle with the
// attempt counter reset. Idempotent; safe to call when already idle.
// Completes synchronously so no frame arriving after return reaches
// the sink for a dead session.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.gen++
	subs := m.subs
	conn := m.conn
	m.subs = nil
	m.conn = nil
	m.state = StateIdle
	m.attempts = 0
	m.mu.Unlock()

	for _, sub := range subs {
		if err := sub.Unsubscribe(); err != nil {
			m.log.Debug("unsubscribe on teardown failed", zap.Error(err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			m.log.Debug("transport close on teardown failed", zap.Error(err))
		}
	}
}

// dial performs one connection attempt and, on success, declares both
// subscriptions against the new transport.
func (m *Manager) dial(ctx context.Context) error {
	conn, err := m.dialer.Dial(ctx)
	if err != nil {
		m.log.Warn("broker dial failed", zap.Error(err))
		return err
	}

	m.mu.Lock()
	if m.state != StateConnecting {
		// Disconnected while the handshake was in flight.
		m.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	m.gen++
	gen := m.gen
	userID := m.userID
	m.conn = conn
	m.mu.Unlock()

	subs, err := declareSubscriptions(conn, userID, m.sink, m.log, func() {
		m.transportClosed(gen)
	})
	if err != nil {
		m.log.Warn("declaring subscriptions failed", zap.Error(err))
		_ = conn.Close()
		m.mu.Lock()
		if m.gen == gen {
			m.conn = nil
		}
		m.mu.Unlock()
		return err
	}

	if !m.adoptTransport(gen, subs) {
		for _, sub := range subs {
			_ = sub.Unsubscribe()
		}
		_ = conn.Close()
		return nil
	}

	m.log.Info("broker connected", zap.String("user_id", userID))
	return nil
}

// adoptTransport installs the freshly subscribed transport and moves to
// Connected. It refuses when the dial was superseded: an explicit
// Disconnect bumped the generation, or the transport already died and
// its close event moved the state off Connecting (leaving its retry
// timer armed, which must stay in charge).
func (m *Manager) adoptTransport(gen int, subs []Subscription) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.gen != gen || m.state != StateConnecting {
		return false
	}
	m.subs = subs
	m.state = StateConnected
	m.attempts = 0
	return true
}

// transportClosed handles a close event from transport generation gen.
// Events from a superseded transport, or after an explicit Disconnect,
// are ignored.
func (m *Manager) transportClosed(gen int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen || m.state == StateIdle {
		return
	}

	if m.conn != nil {
		conn := m.conn
		go func() { _ = conn.Close() }()
	}
	m.conn = nil
	m.subs = nil
	m.state = StateReconnecting
	m.scheduleRetryLocked()
}

// scheduleRetryLocked increments the attempt counter and either arms
// the backoff timer or gives up. Caller holds mu.
func (m *Manager) scheduleRetryLocked() {
	m.attempts++
	if m.attempts > m.maxAttempts {
		m.log.Warn("max reconnect attempts reached, going idle",
			zap.Int("max_attempts", m.maxAttempts),
		)
		m.state = StateIdle
		m.attempts = 0
		return
	}

	delay := time.Duration(m.attempts) * m.baseDelay
	m.log.Info("scheduling reconnect",
		zap.Int("attempt", m.attempts),
		zap.Duration("delay", delay),
	)
	m.timer = time.AfterFunc(delay, m.tryReconnect)
}

// tryReconnect is the backoff timer callback.
func (m *Manager) tryReconnect() {
	m.mu.Lock()
	if m.state != StateReconnecting {
		m.mu.Unlock()
		return
	}
	m.state = StateConnecting
	m.mu.Unlock()

	if err := m.dial(context.Background()); err != nil {
		m.mu.Lock()
		if m.state == StateConnecting {
			m.state = StateReconnecting
			m.scheduleRetryLocked()
		}
		m.mu.Unlock()
	}
}
