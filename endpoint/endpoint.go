package endpoint

import (
	"context"
	"sync"

	"github.com/paust-team/zkwatch/config"
	"github.com/paust-team/zkwatch/consumer"
	"github.com/paust-team/zkwatch/coordinating"
	"github.com/paust-team/zkwatch/coordinating/zk"
	"github.com/paust-team/zkwatch/logger"
	"github.com/paust-team/zkwatch/metrics"
	"github.com/paust-team/zkwatch/producer"
	"github.com/paust-team/zkwatch/qerror"
	"go.uber.org/zap"
)

type Option func(*Endpoint)

// WithConnector replaces the zookeeper connection of the endpoint, e.g. with an
// in-memory session.
func WithConnector(connector coordinating.Connector) Option {
	return func(e *Endpoint) {
		e.connector = connector
	}
}

func WithMetrics(collector *metrics.Collector) Option {
	return func(e *Endpoint) {
		e.collector = collector
	}
}

// Endpoint binds one configuration to one connection, shared by every consumer and
// producer it creates. The connection is made on first use.
type Endpoint struct {
	config    config.EndpointConfig
	node      config.NodeConfiguration
	collector *metrics.Collector

	mu        sync.Mutex
	connector coordinating.Connector
	manager   *zk.ConnectionManager
	closed    bool
}

func NewEndpoint(cfg config.EndpointConfig, opts ...Option) (*Endpoint, error) {
	node, err := cfg.Node()
	if err != nil {
		return nil, err
	}
	e := &Endpoint{config: cfg, node: node}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func NewEndpointFromURI(uri string, opts ...Option) (*Endpoint, error) {
	cfg, err := config.ParseURI(uri)
	if err != nil {
		return nil, err
	}
	return NewEndpoint(cfg, opts...)
}

func (e *Endpoint) Config() config.EndpointConfig {
	return e.config
}

func (e *Endpoint) Node() config.NodeConfiguration {
	return e.node
}

// GetConnection returns the shared session, creating the connection manager on first use.
func (e *Endpoint) GetConnection(ctx context.Context) (coordinating.Session, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, qerror.CoordClosedError{}
	}
	if e.connector == nil {
		e.manager = e.newConnectionManager()
		e.connector = e.manager
	}
	connector := e.connector
	e.mu.Unlock()

	return connector.GetConnection(ctx)
}

func (e *Endpoint) newConnectionManager() *zk.ConnectionManager {
	opts := []zk.Option{
		zk.WithConnectTimeout(e.config.ConnectTimeout()),
		zk.WithStateListener(e.collector.SetConnectionState),
	}
	if scheme := e.config.AuthScheme(); scheme != "" {
		opts = append(opts, zk.WithAuth(scheme, []byte(e.config.AuthCredentials())))
	}
	logger.Debug("creating zookeeper connection manager", zap.Strings("servers", e.config.ZKServers()),
		zap.Duration("session-timeout", e.config.ZKTimeout()))
	return zk.NewConnectionManager(e.config.ZKServers(), e.config.ZKTimeout(), opts...)
}

func (e *Endpoint) Consumer(processor consumer.Processor) *consumer.Consumer {
	return consumer.NewConsumer(e.node, e, processor, consumer.WithMetrics(e.collector))
}

func (e *Endpoint) Producer(opts ...producer.Option) *producer.Producer {
	opts = append([]producer.Option{producer.WithMetrics(e.collector)}, opts...)
	return producer.NewProducer(e.node, e, opts...)
}

// Close releases the connection. Consumers should be stopped first.
func (e *Endpoint) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	connector := e.connector
	e.mu.Unlock()

	if closer, ok := connector.(interface{ Close() }); ok {
		closer.Close()
	}
	logger.Info("endpoint closed", zap.String("path", e.node.Path))
}
