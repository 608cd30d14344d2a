package operation

import (
	"context"
	"fmt"

	"github.com/paust-team/zkwatch/coordinating"
	"github.com/paust-team/zkwatch/logger"
	"github.com/paust-team/zkwatch/qerror"
	"go.uber.org/zap"
)

type Kind int

const (
	// Exists succeeds when the node exists and fails with a no-node result otherwise.
	Exists Kind = iota
	// ExistsOrChanged returns as soon as the node exists, otherwise waits for its
	// existence to change.
	ExistsOrChanged
	FetchData
	FetchChildren
	// WatchData waits for the next data change or deletion of the node.
	WatchData
	// WatchChildren waits for the next change of the node's children.
	WatchChildren
	// AnyOf runs its alternatives in order and returns the first successful result.
	AnyOf
)

var kindNames = []string{"Exists", "ExistsOrChanged", "FetchData", "FetchChildren", "WatchData", "WatchChildren", "AnyOf"}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Operation is a single step against one node. Operations hold one-shot watch
// registrations while running and must not be run twice; build a new one instead.
type Operation struct {
	Kind Kind
	Path string
	// Cycle and Step identify the operation within the sequence that created it.
	Cycle uint64
	Step  int
	// Terminal marks the last step of a sequence cycle.
	Terminal                 bool
	SendEmptyMessageOnDelete bool
	Alternatives             []*Operation
}

func (o *Operation) String() string {
	return fmt.Sprintf("%s(%s)#%d.%d", o.Kind, o.Path, o.Cycle, o.Step)
}

// Result is the outcome of an operation. A result with Err set is an expected failure,
// such as a missing node, and is still delivered downstream.
type Result struct {
	Data     []byte
	Children []string
	Stat     *coordinating.Stat
	Event    *coordinating.WatchEvent
	Err      error
}

func (r *Result) OK() bool {
	return r.Err == nil
}

// Run executes the operation, blocking for watch style kinds until the watch fires or
// ctx is done. A returned error means the operation could not complete and the
// sequence it belongs to should be rebuilt.
func (o *Operation) Run(ctx context.Context, session coordinating.Session) (*Result, error) {
	logger.Debug("running operation", zap.Stringer("operation", o))

	switch o.Kind {
	case Exists:
		return o.exists(session)
	case ExistsOrChanged:
		return o.existsOrChanged(ctx, session)
	case FetchData:
		return o.fetchData(session)
	case FetchChildren:
		return o.fetchChildren(session)
	case WatchData:
		return o.watchData(ctx, session)
	case WatchChildren:
		return o.watchChildren(ctx, session)
	case AnyOf:
		return o.anyOf(ctx, session)
	default:
		return nil, qerror.InvalidOperationError{Operation: o.Kind.String()}
	}
}

// ShouldProduceMessage reports whether result must be handed to the processor.
func (o *Operation) ShouldProduceMessage(result *Result) bool {
	if result == nil {
		return false
	}
	switch o.Kind {
	case FetchData, FetchChildren:
		return true
	case WatchData:
		return o.SendEmptyMessageOnDelete && result.Event != nil && result.Event.Type == coordinating.EventNodeDeleted
	default:
		return false
	}
}

func (o *Operation) exists(session coordinating.Session) (*Result, error) {
	exists, stat, err := session.Exists(o.Path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return &Result{Err: qerror.CoordNoNodeError{Path: o.Path}}, nil
	}
	return &Result{Stat: stat}, nil
}

func (o *Operation) existsOrChanged(ctx context.Context, session coordinating.Session) (*Result, error) {
	exists, stat, watchCh, err := session.ExistsW(o.Path)
	if err != nil {
		return nil, err
	}
	if exists {
		return &Result{Stat: stat}, nil
	}
	event, err := waitEvent(ctx, o.Path, watchCh)
	if err != nil {
		return nil, err
	}
	return &Result{Event: event}, nil
}

func (o *Operation) fetchData(session coordinating.Session) (*Result, error) {
	data, stat, err := session.Get(o.Path)
	if err != nil {
		if qerror.IsNoNode(err) {
			return &Result{Err: err}, nil
		}
		return nil, err
	}
	return &Result{Data: data, Stat: stat}, nil
}

func (o *Operation) fetchChildren(session coordinating.Session) (*Result, error) {
	children, stat, err := session.Children(o.Path)
	if err != nil {
		if qerror.IsNoNode(err) {
			return &Result{Err: err}, nil
		}
		return nil, err
	}
	return &Result{Children: children, Stat: stat}, nil
}

func (o *Operation) watchData(ctx context.Context, session coordinating.Session) (*Result, error) {
	_, stat, watchCh, err := session.GetW(o.Path)
	if err != nil {
		if qerror.IsNoNode(err) {
			// gone before the watch could be set
			return &Result{Event: &coordinating.WatchEvent{Type: coordinating.EventNodeDeleted, Path: o.Path}}, nil
		}
		return nil, err
	}
	event, err := waitEvent(ctx, o.Path, watchCh)
	if err != nil {
		return nil, err
	}
	return &Result{Stat: stat, Event: event}, nil
}

func (o *Operation) watchChildren(ctx context.Context, session coordinating.Session) (*Result, error) {
	_, stat, watchCh, err := session.ChildrenW(o.Path)
	if err != nil {
		if qerror.IsNoNode(err) {
			return &Result{Event: &coordinating.WatchEvent{Type: coordinating.EventNodeDeleted, Path: o.Path}}, nil
		}
		return nil, err
	}
	event, err := waitEvent(ctx, o.Path, watchCh)
	if err != nil {
		return nil, err
	}
	return &Result{Stat: stat, Event: event}, nil
}

func (o *Operation) anyOf(ctx context.Context, session coordinating.Session) (*Result, error) {
	var last *Result
	for _, alternative := range o.Alternatives {
		result, err := alternative.Run(ctx, session)
		if err != nil {
			return nil, err
		}
		if result.OK() {
			return result, nil
		}
		last = result
	}
	if last == nil {
		return nil, qerror.InvalidOperationError{Operation: "AnyOf without alternatives"}
	}
	return last, nil
}

// waitEvent blocks until the watch fires. Session and not-watching events mean the
// watch was lost and are reported as errors.
func waitEvent(ctx context.Context, path string, watchCh <-chan coordinating.WatchEvent) (*coordinating.WatchEvent, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case event, ok := <-watchCh:
		if !ok {
			return nil, qerror.CoordWatchError{Path: path, ErrStr: "watch channel closed"}
		}
		if event.Type == coordinating.EventSession || event.Type == coordinating.EventNotWatching {
			errStr := event.Type.String()
			if event.Err != nil {
				errStr += " : " + event.Err.Error()
			}
			return nil, qerror.CoordWatchError{Path: path, ErrStr: errStr}
		}
		if event.Err != nil {
			return nil, qerror.CoordWatchError{Path: path, ErrStr: event.Err.Error()}
		}
		return &event, nil
	}
}
