package consumer

import (
	"context"
	"sync"
	"time"

	"github.com/paust-team/zkwatch/config"
	"github.com/paust-team/zkwatch/coordinating"
	"github.com/paust-team/zkwatch/logger"
	"github.com/paust-team/zkwatch/message"
	"github.com/paust-team/zkwatch/metrics"
	"github.com/paust-team/zkwatch/operation"
	"github.com/paust-team/zkwatch/qerror"
	"go.uber.org/zap"
)

type Option func(*Consumer)

func WithMetrics(collector *metrics.Collector) Option {
	return func(c *Consumer) {
		c.collector = collector
	}
}

// WithReleaseOnStop makes Stop call release after the worker exited, for consumers that
// own their connection.
func WithReleaseOnStop(release func()) Option {
	return func(c *Consumer) {
		c.release = release
	}
}

// Consumer watches one node. A single worker goroutine runs the operations of the
// node's watch sequence in order and hands the produced messages to the processor.
type Consumer struct {
	node      config.NodeConfiguration
	connector coordinating.Connector
	processor Processor
	collector *metrics.Collector
	release   func()

	mu       sync.Mutex
	running  bool
	starting bool
	cancel  context.CancelFunc
	done    chan struct{}

	// owned by the worker once started
	queue   *operationQueue
	factory operation.Factory
	session coordinating.Session
	cycle   uint64
}

func NewConsumer(node config.NodeConfiguration, connector coordinating.Connector, processor Processor, opts ...Option) *Consumer {
	c := &Consumer{
		node:      node,
		connector: connector,
		processor: processor,
		queue:     newOperationQueue(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Consumer) Node() config.NodeConfiguration {
	return c.node
}

func (c *Consumer) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Start obtains the connection, blocking until it is established or ctx is done, and
// spawns the worker with the first cycle queued. ctx only bounds the connection wait;
// the worker runs until Stop. The consumer is not running while Start waits.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running || c.starting {
		c.mu.Unlock()
		return qerror.ConsumerStartedError{}
	}
	if c.node.Path == "" {
		c.mu.Unlock()
		return qerror.ConfigValueNotSetError{Key: "path"}
	}
	c.starting = true
	c.mu.Unlock()

	session, err := c.connector.GetConnection(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.starting = false
	if err != nil {
		return err
	}
	c.session = session
	c.factory = operation.NewFactory(c.node)
	c.queue.drain()
	c.cycle = 0
	c.queue.push(c.factory(c.cycle)...)

	loopCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	c.running = true
	go c.run(loopCtx, c.done)

	logger.Info("consumer started", zap.String("path", c.node.Path), zap.Bool("list-children", c.node.ListChildren),
		zap.Bool("repeat", c.node.Repeat))
	return nil
}

// Stop cancels the worker, which interrupts a blocking take, a backoff sleep or a watch
// wait, and waits for it to exit. A client call in flight is allowed to finish.
func (c *Consumer) Stop() error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return qerror.ConsumerStoppedError{}
	}
	c.running = false
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	cancel()
	<-done
	dropped := c.queue.drain()
	if c.release != nil {
		c.release()
	}
	logger.Info("consumer stopped", zap.String("path", c.node.Path), zap.Int("dropped", dropped))
	return nil
}

func (c *Consumer) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for ctx.Err() == nil {
		op, err := c.queue.take(ctx)
		if err != nil {
			return
		}
		if err = c.execute(ctx, op); err == nil {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		logger.Warn("operation failed, restarting sequence", zap.Stringer("operation", op), zap.Error(err),
			zap.Duration("backoff", c.node.Backoff))
		if !c.restart(ctx) {
			return
		}
	}
}

func (c *Consumer) execute(ctx context.Context, op *operation.Operation) error {
	result, err := op.Run(ctx, c.session)
	if err != nil {
		c.collector.ObserveOperation(op.Kind.String(), metrics.OutcomeError)
		return err
	}
	if result.OK() {
		c.collector.ObserveOperation(op.Kind.String(), metrics.OutcomeOK)
	} else {
		c.collector.ObserveOperation(op.Kind.String(), metrics.OutcomeFailure)
		logger.Debug("operation completed with failure", zap.Stringer("operation", op), zap.Error(result.Err))
	}

	if op.ShouldProduceMessage(result) {
		if err = c.processor.Process(newMessage(op, result)); err != nil {
			return err
		}
		c.collector.ObserveMessage(op.Path)
	}

	if op.Terminal && c.node.Repeat {
		c.cycle++
		c.queue.push(c.factory(c.cycle)...)
	}
	return nil
}

// restart drops the rest of the current cycle, sleeps the backoff, waits for the
// connection and queues a new cycle from its first step. It returns false when ctx
// ended first or the connection was closed for good.
func (c *Consumer) restart(ctx context.Context) bool {
	c.queue.drain()
	c.collector.ObserveRestart(c.node.Path)

	for {
		if !sleep(ctx, c.node.Backoff) {
			return false
		}
		session, err := c.connector.GetConnection(ctx)
		if err == nil {
			c.session = session
			break
		}
		if ctx.Err() != nil {
			return false
		}
		if qerror.IsClosed(err) {
			logger.Warn("connection is closed, consumer worker exits", zap.String("path", c.node.Path))
			return false
		}
		logger.Warn("failed to get connection, retrying", zap.String("path", c.node.Path), zap.Error(err))
	}

	c.cycle++
	c.queue.push(c.factory(c.cycle)...)
	return true
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func newMessage(op *operation.Operation, result *operation.Result) *message.Message {
	msg := message.New(result.Data)
	msg.Children = result.Children
	msg.Err = result.Err
	msg.SetHeader(message.HeaderNode, op.Path)
	if result.Stat != nil {
		msg.SetHeader(message.HeaderStatistics, result.Stat).
			SetHeader(message.HeaderVersion, result.Stat.Version)
	}
	if result.Event != nil {
		msg.SetHeader(message.HeaderEventType, result.Event.Type)
	}
	return msg
}
