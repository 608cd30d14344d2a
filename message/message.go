package message

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paust-team/zkwatch/coordinating"
	"github.com/paust-team/zkwatch/qerror"
)

const (
	HeaderNode        = "ZooKeeperNode"
	HeaderVersion     = "ZooKeeperVersion"
	HeaderACL         = "ZooKeeperACL"
	HeaderCreateMode  = "ZooKeeperCreateMode"
	HeaderStatistics  = "ZooKeeperStatistics"
	HeaderEventType   = "ZooKeeperEventType"
	HeaderOperation   = "ZooKeeperOperation"
	HeaderCreatedPath = "ZooKeeperCreatedPath"
)

// Pattern tells a producer whether the sender waits for a reply.
type Pattern int

const (
	InOnly Pattern = iota
	InOut
)

type Operation string

const (
	OperationWrite  Operation = "write"
	OperationDelete Operation = "delete"
)

type Headers map[string]interface{}

type Message struct {
	ID        uuid.UUID
	Timestamp time.Time
	Pattern   Pattern
	Headers   Headers
	Data      []byte
	Children  []string
	Err       error
}

func New(data []byte) *Message {
	return &Message{
		ID:        uuid.New(),
		Timestamp: time.Now(),
		Headers:   Headers{},
		Data:      data,
	}
}

func (m *Message) SetHeader(key string, value interface{}) *Message {
	if m.Headers == nil {
		m.Headers = Headers{}
	}
	m.Headers[key] = value
	return m
}

func (m *Message) Header(key string) (interface{}, bool) {
	value, ok := m.Headers[key]
	return value, ok
}

func (m *Message) Node() (string, bool) {
	value, ok := m.Headers[HeaderNode]
	if !ok {
		return "", false
	}
	node, ok := value.(string)
	return node, ok && node != ""
}

// Version returns the version header, accepting any integer type or a decimal string.
func (m *Message) Version() (int32, bool, error) {
	value, ok := m.Headers[HeaderVersion]
	if !ok {
		return coordinating.AnyVersion, false, nil
	}
	switch v := value.(type) {
	case int32:
		return v, true, nil
	case int:
		return versionInRange(int64(v))
	case int64:
		return versionInRange(v)
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 32)
		if err != nil {
			return coordinating.AnyVersion, true, qerror.InvalidConfigError{Key: HeaderVersion, ErrStr: err.Error()}
		}
		return int32(parsed), true, nil
	default:
		return coordinating.AnyVersion, true, qerror.InvalidConfigError{Key: HeaderVersion, ErrStr: fmt.Sprintf("unsupported type %T", value)}
	}
}

func versionInRange(v int64) (int32, bool, error) {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return coordinating.AnyVersion, true, qerror.InvalidConfigError{Key: HeaderVersion, ErrStr: fmt.Sprintf("%d is out of range", v)}
	}
	return int32(v), true, nil
}

// ACL returns the acl header given either as []coordinating.ACL or in
// "scheme:id:perms" form.
func (m *Message) ACL() ([]coordinating.ACL, bool, error) {
	value, ok := m.Headers[HeaderACL]
	if !ok {
		return nil, false, nil
	}
	switch v := value.(type) {
	case []coordinating.ACL:
		return v, true, nil
	case string:
		acl, err := coordinating.ParseACL(v)
		if err != nil {
			return nil, true, qerror.InvalidConfigError{Key: HeaderACL, ErrStr: err.Error()}
		}
		return acl, true, nil
	default:
		return nil, true, qerror.InvalidConfigError{Key: HeaderACL, ErrStr: fmt.Sprintf("unsupported type %T", value)}
	}
}

func (m *Message) CreateMode() (coordinating.CreateMode, bool, error) {
	value, ok := m.Headers[HeaderCreateMode]
	if !ok {
		return coordinating.Persistent, false, nil
	}
	switch v := value.(type) {
	case coordinating.CreateMode:
		return v, true, nil
	case string:
		mode, err := coordinating.ParseCreateMode(v)
		if err != nil {
			return coordinating.Persistent, true, qerror.InvalidConfigError{Key: HeaderCreateMode, ErrStr: err.Error()}
		}
		return mode, true, nil
	default:
		return coordinating.Persistent, true, qerror.InvalidConfigError{Key: HeaderCreateMode, ErrStr: fmt.Sprintf("unsupported type %T", value)}
	}
}

func (m *Message) Operation() (Operation, error) {
	value, ok := m.Headers[HeaderOperation]
	if !ok {
		return OperationWrite, nil
	}
	var op string
	switch v := value.(type) {
	case Operation:
		op = string(v)
	case string:
		op = v
	default:
		return "", qerror.InvalidOperationError{Operation: fmt.Sprint(value)}
	}
	switch Operation(strings.ToLower(op)) {
	case OperationWrite:
		return OperationWrite, nil
	case OperationDelete:
		return OperationDelete, nil
	default:
		return "", qerror.InvalidOperationError{Operation: op}
	}
}

func (m *Message) Stat() *coordinating.Stat {
	stat, _ := m.Headers[HeaderStatistics].(*coordinating.Stat)
	return stat
}

func (m *Message) EventType() (coordinating.WatchEventType, bool) {
	eventType, ok := m.Headers[HeaderEventType].(coordinating.WatchEventType)
	return eventType, ok
}

// IsEmpty reports whether the message carries neither data nor a children listing.
func (m *Message) IsEmpty() bool {
	return len(m.Data) == 0 && m.Children == nil
}
