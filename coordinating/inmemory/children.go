package inmemory

import (
	"github.com/paust-team/zkwatch/coordinating"
	"github.com/paust-team/zkwatch/qerror"
)

func (s *Session) Children(path string) ([]string, *coordinating.Stat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(Call{Op: OpChildren, Path: path}); err != nil {
		return nil, nil, err
	}
	n, ok := s.nodes[path]
	if !ok {
		return nil, nil, qerror.CoordNoNodeError{Path: path}
	}
	return sortedChildren(n), copyStat(n), nil
}

func (s *Session) ChildrenW(path string) ([]string, *coordinating.Stat, <-chan coordinating.WatchEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(Call{Op: OpChildren, Path: path, Watch: true}); err != nil {
		return nil, nil, nil, err
	}
	n, ok := s.nodes[path]
	if !ok {
		return nil, nil, nil, qerror.CoordNoNodeError{Path: path}
	}
	return sortedChildren(n), copyStat(n), s.childWatches.add(path), nil
}
