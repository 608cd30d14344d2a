package zk

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-zookeeper/zk"
	"github.com/paust-team/zkwatch/coordinating"
	"github.com/paust-team/zkwatch/logger"
	"github.com/paust-team/zkwatch/qerror"
	"go.uber.org/zap"
)

type dialFunc func(servers []string, sessionTimeout time.Duration) (*zk.Conn, <-chan zk.Event, error)

func defaultDial(servers []string, sessionTimeout time.Duration) (*zk.Conn, <-chan zk.Event, error) {
	return zk.Connect(servers, sessionTimeout, zk.WithLogger(logger.ZKLogger()))
}

type Option func(*ConnectionManager)

// WithConnectTimeout bounds how long GetConnection waits for the session. Zero waits forever.
func WithConnectTimeout(timeout time.Duration) Option {
	return func(m *ConnectionManager) {
		m.connectTimeout = timeout
	}
}

func WithAuth(scheme string, credentials []byte) Option {
	return func(m *ConnectionManager) {
		m.authScheme = scheme
		m.authCredentials = credentials
	}
}

// WithStateListener registers fn to be called after every connection state transition.
func WithStateListener(fn func(coordinating.ConnectionState)) Option {
	return func(m *ConnectionManager) {
		m.listeners = append(m.listeners, fn)
	}
}

// ConnectionManager owns the single zookeeper connection of an endpoint. The
// connection is dialled on first use and shared by everything that asks for it.
type ConnectionManager struct {
	servers         []string
	sessionTimeout  time.Duration
	connectTimeout  time.Duration
	authScheme      string
	authCredentials []byte
	listeners       []func(coordinating.ConnectionState)
	dial            dialFunc

	mu       sync.Mutex
	conn     *zk.Conn
	session  *Session
	state    coordinating.ConnectionState
	ready    chan struct{}
	authed   bool
	failure  string
	dialOnce bool
}

var _ coordinating.Connector = (*ConnectionManager)(nil)

func NewConnectionManager(servers []string, sessionTimeout time.Duration, opts ...Option) *ConnectionManager {
	m := &ConnectionManager{
		servers:        servers,
		sessionTimeout: sessionTimeout,
		dial:           defaultDial,
		state:          coordinating.StateConnecting,
		ready:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *ConnectionManager) Servers() []string {
	return m.servers
}

func (m *ConnectionManager) State() coordinating.ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *ConnectionManager) SessionID() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil {
		return 0
	}
	return m.conn.SessionID()
}

// GetConnection returns the shared session, dialling it on first use, and blocks until
// the session is established, ctx is done or the connect timeout elapses.
func (m *ConnectionManager) GetConnection(ctx context.Context) (coordinating.Session, error) {
	if len(m.servers) == 0 {
		return nil, qerror.ConfigValueNotSetError{Key: "zookeeper.servers"}
	}

	m.mu.Lock()
	if m.state == coordinating.StateClosed {
		m.mu.Unlock()
		return nil, qerror.CoordClosedError{}
	}
	if !m.dialOnce {
		if err := m.dialLocked(); err != nil {
			m.mu.Unlock()
			return nil, err
		}
	}
	m.mu.Unlock()

	if m.connectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.connectTimeout)
		defer cancel()
	}

	for {
		m.mu.Lock()
		state, ready, session, failure := m.state, m.ready, m.session, m.failure
		m.mu.Unlock()

		switch state {
		case coordinating.StateConnected:
			if err := m.authenticate(); err != nil {
				return nil, err
			}
			return session, nil
		case coordinating.StateFailed:
			return nil, qerror.CoordConnectionError{Addrs: m.servers, ErrStr: failure}
		case coordinating.StateClosed:
			return nil, qerror.CoordClosedError{}
		}

		logger.Debug("waiting for zookeeper session", zap.Strings("servers", m.servers))
		select {
		case <-ready:
		case <-ctx.Done():
			return nil, qerror.CoordConnectionError{Addrs: m.servers, ErrStr: ctx.Err().Error()}
		}
	}
}

func (m *ConnectionManager) dialLocked() error {
	conn, events, err := m.dial(m.servers, m.sessionTimeout)
	if err != nil {
		logger.Error("failed to create zookeeper connection", zap.Strings("servers", m.servers), zap.Error(err))
		return qerror.CoordConnectionError{Addrs: m.servers, ErrStr: err.Error()}
	}
	m.conn = conn
	m.session = NewSession(conn)
	m.dialOnce = true
	go m.watchSession(events)
	return nil
}

func (m *ConnectionManager) authenticate() error {
	m.mu.Lock()
	if m.authScheme == "" || m.authed || m.conn == nil {
		m.mu.Unlock()
		return nil
	}
	conn := m.conn
	m.mu.Unlock()

	if err := conn.AddAuth(m.authScheme, m.authCredentials); err != nil {
		return qerror.CoordConnectionError{Addrs: m.servers, ErrStr: "auth failed: " + err.Error()}
	}
	m.mu.Lock()
	m.authed = true
	m.mu.Unlock()
	return nil
}

// watchSession translates session events of the client into state transitions until
// the client closes its event channel.
func (m *ConnectionManager) watchSession(events <-chan zk.Event) {
	for event := range events {
		m.handleEvent(event)
	}
}

func (m *ConnectionManager) handleEvent(event zk.Event) {
	if event.Type != zk.EventSession {
		return
	}
	logger.Debug("received session event", zap.String("state", event.State.String()), zap.String("server", event.Server))

	switch event.State {
	case zk.StateHasSession:
		m.setState(coordinating.StateConnected, "")
	case zk.StateConnecting, zk.StateDisconnected, zk.StateExpired:
		m.setState(coordinating.StateConnecting, "")
	case zk.StateAuthFailed:
		m.setState(coordinating.StateFailed, "authentication failed")
	}
}

func (m *ConnectionManager) setState(state coordinating.ConnectionState, failure string) {
	m.mu.Lock()
	if m.state == coordinating.StateClosed || m.state == state {
		m.mu.Unlock()
		return
	}
	prev := m.state
	m.state = state
	m.failure = failure
	// wake every waiter and re-arm the gate for the next transition
	close(m.ready)
	m.ready = make(chan struct{})
	m.mu.Unlock()

	logger.Info("zookeeper connection state changed", zap.Stringer("from", prev), zap.Stringer("to", state))
	for _, fn := range m.listeners {
		fn(state)
	}
}

// Close releases the session. Errors while closing are logged, never returned.
func (m *ConnectionManager) Close() {
	m.mu.Lock()
	if m.state == coordinating.StateClosed {
		m.mu.Unlock()
		return
	}
	conn := m.conn
	m.conn = nil
	m.state = coordinating.StateClosed
	close(m.ready)
	m.ready = make(chan struct{})
	m.mu.Unlock()

	if conn != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Warn("error occurred while closing zookeeper connection", zap.String("err", fmt.Sprint(r)))
				}
			}()
			conn.Close()
		}()
	}
	logger.Info("zookeeper connection closed", zap.Strings("servers", m.servers))
	for _, fn := range m.listeners {
		fn(coordinating.StateClosed)
	}
}
