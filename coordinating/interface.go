package coordinating

import (
	"context"
	"fmt"
	"strings"
)

// Connector hands out the session of an endpoint, blocking until it is usable.
type Connector interface {
	GetConnection(ctx context.Context) (Session, error)
}

// Session is a live handle to the coordination service. Watch variants register a
// one-shot watch; the returned channel receives at most one event and is then closed.
type Session interface {
	Exists(path string) (bool, *Stat, error)
	ExistsW(path string) (bool, *Stat, <-chan WatchEvent, error)
	Get(path string) ([]byte, *Stat, error)
	GetW(path string) ([]byte, *Stat, <-chan WatchEvent, error)
	Children(path string) ([]string, *Stat, error)
	ChildrenW(path string) ([]string, *Stat, <-chan WatchEvent, error)
	Set(path string, data []byte, version int32) (*Stat, error)
	Create(path string, data []byte, mode CreateMode, acl []ACL) (string, error)
	Delete(path string, version int32) error
}

// AnyVersion disables the optimistic version check of Set and Delete.
const AnyVersion int32 = -1

type Stat struct {
	Czxid          int64
	Mzxid          int64
	Ctime          int64
	Mtime          int64
	Version        int32
	Cversion       int32
	Aversion       int32
	EphemeralOwner int64
	DataLength     int32
	NumChildren    int32
	Pzxid          int64
}

type WatchEventType int32

const (
	EventNodeCreated         WatchEventType = 1
	EventNodeDeleted         WatchEventType = 2
	EventNodeDataChanged     WatchEventType = 3
	EventNodeChildrenChanged WatchEventType = 4
	EventSession             WatchEventType = -1
	EventNotWatching         WatchEventType = -2
)

var eventNames = map[WatchEventType]string{
	EventNodeCreated:         "NodeCreated",
	EventNodeDeleted:         "NodeDeleted",
	EventNodeDataChanged:     "NodeDataChanged",
	EventNodeChildrenChanged: "NodeChildrenChanged",
	EventSession:             "Session",
	EventNotWatching:         "NotWatching",
}

func (t WatchEventType) String() string {
	if name, ok := eventNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", int32(t))
}

type WatchEvent struct {
	Type WatchEventType
	Path string
	Err  error
}

// ConnectionState is the state of a connection holder.
type ConnectionState int32

const (
	StateConnecting ConnectionState = iota
	StateConnected
	StateFailed
	StateClosed
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateFailed:
		return "Failed"
	case StateClosed:
		return "Closed"
	default:
		return fmt.Sprintf("Unknown(%d)", int32(s))
	}
}

type CreateMode int32

const (
	Persistent CreateMode = iota
	PersistentSequential
	Ephemeral
	EphemeralSequential
)

var createModeNames = []string{"PERSISTENT", "PERSISTENT_SEQUENTIAL", "EPHEMERAL", "EPHEMERAL_SEQUENTIAL"}

func (m CreateMode) String() string {
	if m >= 0 && int(m) < len(createModeNames) {
		return createModeNames[m]
	}
	return fmt.Sprintf("Unknown(%d)", int32(m))
}

func (m CreateMode) IsEphemeral() bool {
	return m == Ephemeral || m == EphemeralSequential
}

func (m CreateMode) IsSequential() bool {
	return m == PersistentSequential || m == EphemeralSequential
}

// ParseCreateMode accepts the mode names case-insensitively.
func ParseCreateMode(s string) (CreateMode, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range createModeNames {
		if n == name {
			return CreateMode(i), nil
		}
	}
	return Persistent, fmt.Errorf("unknown create mode %q", s)
}

const (
	PermRead int32 = 1 << iota
	PermWrite
	PermCreate
	PermDelete
	PermAdmin
	PermAll = 0x1f
)

type ACL struct {
	Perms  int32
	Scheme string
	ID     string
}

func WorldACL(perms int32) []ACL {
	return []ACL{{Perms: perms, Scheme: "world", ID: "anyone"}}
}

// ParseACL parses "scheme:id:perms" entries separated by commas, where perms is a
// subset of "rwcda".
func ParseACL(s string) ([]ACL, error) {
	var acls []ACL
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		idx := strings.LastIndex(entry, ":")
		first := strings.Index(entry, ":")
		if first < 0 || idx == first {
			return nil, fmt.Errorf("malformed acl entry %q", entry)
		}
		var perms int32
		for _, c := range entry[idx+1:] {
			switch c {
			case 'r':
				perms |= PermRead
			case 'w':
				perms |= PermWrite
			case 'c':
				perms |= PermCreate
			case 'd':
				perms |= PermDelete
			case 'a':
				perms |= PermAdmin
			default:
				return nil, fmt.Errorf("unknown permission %q in acl entry %q", c, entry)
			}
		}
		acls = append(acls, ACL{Perms: perms, Scheme: entry[:first], ID: entry[first+1 : idx]})
	}
	return acls, nil
}
