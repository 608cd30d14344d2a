package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/paust-team/zkwatch/constants"
	"github.com/paust-team/zkwatch/coordinating"
	"github.com/paust-team/zkwatch/qerror"
)

type Op string

const (
	OpExists   Op = "exists"
	OpGet      Op = "get"
	OpChildren Op = "children"
	OpSet      Op = "set"
	OpCreate   Op = "create"
	OpDelete   Op = "delete"
)

// Call records one request made against the session.
type Call struct {
	Op      Op
	Path    string
	Watch   bool
	Data    []byte
	Version int32
	Mode    coordinating.CreateMode
	ACL     []coordinating.ACL
}

type node struct {
	data     []byte
	stat     coordinating.Stat
	acl      []coordinating.ACL
	children map[string]struct{}
}

type watches map[string][]chan coordinating.WatchEvent

func (w watches) add(path string) <-chan coordinating.WatchEvent {
	ch := make(chan coordinating.WatchEvent, constants.WatchEventBuffer)
	w[path] = append(w[path], ch)
	return ch
}

func (w watches) fire(path string, event coordinating.WatchEvent) {
	for _, ch := range w[path] {
		ch <- event
		close(ch)
	}
	delete(w, path)
}

// Session is an in-process coordinating.Session. Watches are one-shot and fire with
// the same rules as zookeeper: exists watches on create/set/delete, data watches on
// set/delete and child watches on child membership changes or deletion of the node.
type Session struct {
	mu           sync.Mutex
	nodes        map[string]*node
	zxid         int64
	id           int64
	dataWatches  watches
	existWatches watches
	childWatches watches
	failures     map[Op][]error
	history      []Call
	closed       bool
}

var (
	_ coordinating.Session   = (*Session)(nil)
	_ coordinating.Connector = (*Session)(nil)
)

func NewSession() *Session {
	s := &Session{
		nodes:        map[string]*node{},
		id:           time.Now().UnixNano(),
		dataWatches:  watches{},
		existWatches: watches{},
		childWatches: watches{},
		failures:     map[Op][]error{},
	}
	s.nodes["/"] = &node{children: map[string]struct{}{}, acl: coordinating.WorldACL(coordinating.PermAll)}
	return s
}

// GetConnection lets the session stand in for a connection holder.
func (s *Session) GetConnection(ctx context.Context) (coordinating.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, qerror.CoordClosedError{}
	}
	return s, nil
}

// InjectError makes the next call of op fail with err. Injected errors queue up.
func (s *Session) InjectError(op Op, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = append(s.failures[op], err)
}

func (s *Session) History() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := make([]Call, len(s.history))
	copy(history, s.history)
	return history
}

func (s *Session) CountCalls(op Op, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, call := range s.history {
		if call.Op == op && call.Path == path {
			count++
		}
	}
	return count
}

// Close ends the session: pending watches receive EventNotWatching.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for _, w := range []watches{s.dataWatches, s.existWatches, s.childWatches} {
		for path := range w {
			w.fire(path, coordinating.WatchEvent{Type: coordinating.EventNotWatching, Path: path, Err: qerror.CoordClosedError{}})
		}
	}
}

// begin records the call and returns an injected or closed error. Must hold mu.
func (s *Session) begin(call Call) error {
	s.history = append(s.history, call)
	if s.closed {
		return qerror.CoordClosedError{}
	}
	if queue := s.failures[call.Op]; len(queue) > 0 {
		s.failures[call.Op] = queue[1:]
		return queue[0]
	}
	return nil
}

func (s *Session) nextZxid() int64 {
	s.zxid++
	return s.zxid
}

func copyStat(n *node) *coordinating.Stat {
	stat := n.stat
	stat.DataLength = int32(len(n.data))
	stat.NumChildren = int32(len(n.children))
	return &stat
}

func copyData(data []byte) []byte {
	if data == nil {
		return nil
	}
	result := make([]byte, len(data))
	copy(result, data)
	return result
}

func sortedChildren(n *node) []string {
	children := make([]string, 0, len(n.children))
	for name := range n.children {
		children = append(children, name)
	}
	sort.Strings(children)
	return children
}

func nowMillis() int64 {
	return time.Now().UnixNano() / int64(time.Millisecond)
}
