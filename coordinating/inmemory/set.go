package inmemory

import (
	"github.com/paust-team/zkwatch/coordinating"
	"github.com/paust-team/zkwatch/qerror"
)

func (s *Session) Set(path string, data []byte, version int32) (*coordinating.Stat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(Call{Op: OpSet, Path: path, Data: copyData(data), Version: version}); err != nil {
		return nil, err
	}
	n, ok := s.nodes[path]
	if !ok {
		return nil, qerror.CoordNoNodeError{Path: path}
	}
	if version != coordinating.AnyVersion && version != n.stat.Version {
		return nil, qerror.CoordBadVersionError{Path: path, Version: version}
	}

	n.data = copyData(data)
	n.stat.Version++
	n.stat.Mzxid = s.nextZxid()
	n.stat.Mtime = nowMillis()

	event := coordinating.WatchEvent{Type: coordinating.EventNodeDataChanged, Path: path}
	s.dataWatches.fire(path, event)
	s.existWatches.fire(path, event)
	return copyStat(n), nil
}
