package producer

import (
	"context"
	"sync"

	"github.com/paust-team/zkwatch/config"
	"github.com/paust-team/zkwatch/coordinating"
	"github.com/paust-team/zkwatch/logger"
	"github.com/paust-team/zkwatch/message"
	"github.com/paust-team/zkwatch/metrics"
	"github.com/paust-team/zkwatch/qerror"
	"go.uber.org/zap"
)

type Option func(*Producer)

func WithMetrics(collector *metrics.Collector) Option {
	return func(p *Producer) {
		p.collector = collector
	}
}

// WithCompletion registers fn to receive the reply of every fire-and-forget request
// after it was logged.
func WithCompletion(fn func(reply *message.Message)) Option {
	return func(p *Producer) {
		p.completion = fn
	}
}

// Producer writes message payloads to nodes or deletes nodes.
type Producer struct {
	node       config.NodeConfiguration
	connector  coordinating.Connector
	collector  *metrics.Collector
	completion func(reply *message.Message)
	inflight   sync.WaitGroup
}

func NewProducer(node config.NodeConfiguration, connector coordinating.Connector, opts ...Option) *Producer {
	p := &Producer{
		node:      node,
		connector: connector,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type request struct {
	node      string
	operation message.Operation
	version   int32
	data      []byte
	mode      coordinating.CreateMode
	acl       []coordinating.ACL
}

// Process applies msg. An InOut message is applied synchronously and the reply carries
// the outcome, with a coordination failure in reply.Err. An InOnly message is applied
// in the background and Process returns a nil reply. The returned error reports
// malformed headers or a missing connection.
func (p *Producer) Process(ctx context.Context, msg *message.Message) (*message.Message, error) {
	req, err := p.newRequest(msg)
	if err != nil {
		return nil, err
	}
	session, err := p.connector.GetConnection(ctx)
	if err != nil {
		return nil, err
	}

	if msg.Pattern == message.InOut {
		return p.execute(session, req, msg.Pattern), nil
	}

	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		reply := p.execute(session, req, msg.Pattern)
		if reply.Err != nil {
			logger.Warn("asynchronous request failed", zap.String("node", req.node),
				zap.String("operation", string(req.operation)), zap.Error(reply.Err))
		} else {
			logger.Debug("asynchronous request completed", zap.String("node", req.node),
				zap.String("operation", string(req.operation)))
		}
		if p.completion != nil {
			p.completion(reply)
		}
	}()
	return nil, nil
}

// Wait blocks until every fire-and-forget request has completed.
func (p *Producer) Wait() {
	p.inflight.Wait()
}

func (p *Producer) newRequest(msg *message.Message) (request, error) {
	req := request{node: p.node.Path, data: msg.Data, mode: p.node.CreateMode}
	if node, ok := msg.Node(); ok {
		req.node = node
	}
	if req.node == "" {
		return req, qerror.ConfigValueNotSetError{Key: "path"}
	}

	var err error
	if req.operation, err = msg.Operation(); err != nil {
		return req, err
	}
	if req.version, _, err = msg.Version(); err != nil {
		return req, err
	}
	mode, ok, err := msg.CreateMode()
	if err != nil {
		return req, err
	}
	if ok {
		req.mode = mode
	}
	acl, ok, err := msg.ACL()
	if err != nil {
		return req, err
	}
	if ok {
		req.acl = acl
	} else {
		req.acl = coordinating.WorldACL(coordinating.PermAll)
	}
	return req, nil
}

func (p *Producer) execute(session coordinating.Session, req request, pattern message.Pattern) *message.Message {
	reply := message.New(nil)
	reply.Pattern = pattern
	reply.SetHeader(message.HeaderNode, req.node).
		SetHeader(message.HeaderOperation, req.operation)

	var err error
	switch req.operation {
	case message.OperationDelete:
		err = p.delete(session, req, reply)
	default:
		err = p.write(session, req, reply)
	}

	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeFailure
		reply.Err = err
	}
	p.collector.ObserveWrite(string(req.operation), outcome)
	return reply
}

func (p *Producer) write(session coordinating.Session, req request, reply *message.Message) error {
	stat, err := session.Set(req.node, req.data, req.version)
	if err == nil {
		reply.Data = req.data
		reply.SetHeader(message.HeaderStatistics, stat).
			SetHeader(message.HeaderVersion, stat.Version)
		return nil
	}
	if !qerror.IsNoNode(err) || !p.node.Create {
		return err
	}
	return p.createMissing(session, req, reply)
}

// delete removes the node. A missing node is created instead when create is configured.
func (p *Producer) delete(session coordinating.Session, req request, reply *message.Message) error {
	err := session.Delete(req.node, req.version)
	if err == nil || !qerror.IsNoNode(err) || !p.node.Create {
		return err
	}
	return p.createMissing(session, req, reply)
}

func (p *Producer) createMissing(session coordinating.Session, req request, reply *message.Message) error {
	logger.Debug("node does not exist, creating it", zap.String("node", req.node), zap.Stringer("mode", req.mode))
	created, err := session.Create(req.node, req.data, req.mode, req.acl)
	if err != nil {
		return err
	}
	reply.Data = req.data
	reply.SetHeader(message.HeaderCreatedPath, created).
		SetHeader(message.HeaderCreateMode, req.mode).
		SetHeader(message.HeaderVersion, int32(0))
	return nil
}
