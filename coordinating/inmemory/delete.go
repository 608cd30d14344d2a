package inmemory

import (
	"github.com/paust-team/zkwatch/coordinating"
	"github.com/paust-team/zkwatch/qerror"
)

func (s *Session) Delete(path string, version int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(Call{Op: OpDelete, Path: path, Version: version}); err != nil {
		return err
	}
	n, ok := s.nodes[path]
	if !ok || path == "/" {
		return qerror.CoordNoNodeError{Path: path}
	}
	if version != coordinating.AnyVersion && version != n.stat.Version {
		return qerror.CoordBadVersionError{Path: path, Version: version}
	}
	if len(n.children) > 0 {
		return qerror.CoordNotEmptyError{Path: path}
	}

	delete(s.nodes, path)
	parent := coordinating.ParentPath(path)
	p := s.nodes[parent]
	delete(p.children, coordinating.BaseName(path))
	p.stat.Cversion++
	p.stat.Pzxid = s.nextZxid()

	event := coordinating.WatchEvent{Type: coordinating.EventNodeDeleted, Path: path}
	s.dataWatches.fire(path, event)
	s.existWatches.fire(path, event)
	s.childWatches.fire(path, event)
	s.childWatches.fire(parent, coordinating.WatchEvent{Type: coordinating.EventNodeChildrenChanged, Path: parent})
	return nil
}
