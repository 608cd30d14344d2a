package zk

import (
	"errors"

	"github.com/go-zookeeper/zk"
	"github.com/paust-team/zkwatch/constants"
	"github.com/paust-team/zkwatch/coordinating"
	"github.com/paust-team/zkwatch/logger"
	"github.com/paust-team/zkwatch/qerror"
	"go.uber.org/zap"
)

// Session implements coordinating.Session on top of a zookeeper connection.
type Session struct {
	conn *zk.Conn
}

var _ coordinating.Session = (*Session)(nil)

func NewSession(conn *zk.Conn) *Session {
	return &Session{conn: conn}
}

func convertError(err error, path string, version int32) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, zk.ErrNoNode):
		return qerror.CoordNoNodeError{Path: path}
	case errors.Is(err, zk.ErrNodeExists):
		return qerror.CoordTargetAlreadyExistsError{Target: path}
	case errors.Is(err, zk.ErrBadVersion):
		return qerror.CoordBadVersionError{Path: path, Version: version}
	case errors.Is(err, zk.ErrNotEmpty):
		return qerror.CoordNotEmptyError{Path: path}
	case errors.Is(err, zk.ErrClosing), errors.Is(err, zk.ErrConnectionClosed):
		return qerror.CoordClosedError{}
	default:
		return qerror.CoordRequestError{ErrStr: err.Error()}
	}
}

func convertStat(stat *zk.Stat) *coordinating.Stat {
	if stat == nil {
		return nil
	}
	return &coordinating.Stat{
		Czxid:          stat.Czxid,
		Mzxid:          stat.Mzxid,
		Ctime:          stat.Ctime,
		Mtime:          stat.Mtime,
		Version:        stat.Version,
		Cversion:       stat.Cversion,
		Aversion:       stat.Aversion,
		EphemeralOwner: stat.EphemeralOwner,
		DataLength:     stat.DataLength,
		NumChildren:    stat.NumChildren,
		Pzxid:          stat.Pzxid,
	}
}

func convertACL(acl []coordinating.ACL) []zk.ACL {
	if len(acl) == 0 {
		return zk.WorldACL(zk.PermAll)
	}
	result := make([]zk.ACL, 0, len(acl))
	for _, a := range acl {
		result = append(result, zk.ACL{Perms: a.Perms, Scheme: a.Scheme, ID: a.ID})
	}
	return result
}

func createFlags(mode coordinating.CreateMode) int32 {
	var flags int32
	if mode.IsEphemeral() {
		flags |= zk.FlagEphemeral
	}
	if mode.IsSequential() {
		flags |= zk.FlagSequence
	}
	return flags
}

func ConvertToWatchEvent(event zk.Event) (coordinating.WatchEvent, error) {
	watchEvent := coordinating.WatchEvent{Path: event.Path, Err: event.Err}
	switch event.Type {
	case zk.EventNodeCreated:
		watchEvent.Type = coordinating.EventNodeCreated
	case zk.EventNodeDeleted:
		watchEvent.Type = coordinating.EventNodeDeleted
	case zk.EventNodeDataChanged:
		watchEvent.Type = coordinating.EventNodeDataChanged
	case zk.EventNodeChildrenChanged:
		watchEvent.Type = coordinating.EventNodeChildrenChanged
	case zk.EventSession:
		watchEvent.Type = coordinating.EventSession
	case zk.EventNotWatching:
		watchEvent.Type = coordinating.EventNotWatching
	default:
		return watchEvent, qerror.CoordWatchError{Path: event.Path, ErrStr: "undefined event type " + event.Type.String()}
	}
	return watchEvent, nil
}

// forwardWatch converts the one-shot zookeeper watch channel into a coordinating one.
func forwardWatch(path string, eventCh <-chan zk.Event) <-chan coordinating.WatchEvent {
	watchCh := make(chan coordinating.WatchEvent, constants.WatchEventBuffer)
	go func() {
		defer close(watchCh)
		event, ok := <-eventCh
		if !ok {
			return
		}
		logger.Debug("received watching event", zap.String("event", event.Type.String()), zap.String("path", path))
		watchEvent, err := ConvertToWatchEvent(event)
		if err != nil {
			logger.Error("received undefined watch-event", zap.Error(err))
			watchEvent = coordinating.WatchEvent{Type: coordinating.EventNotWatching, Path: path, Err: err}
		}
		watchCh <- watchEvent
	}()
	return watchCh
}
