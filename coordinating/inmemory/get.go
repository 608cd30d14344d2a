package inmemory

import (
	"github.com/paust-team/zkwatch/coordinating"
	"github.com/paust-team/zkwatch/qerror"
)

func (s *Session) Get(path string) ([]byte, *coordinating.Stat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(Call{Op: OpGet, Path: path}); err != nil {
		return nil, nil, err
	}
	n, ok := s.nodes[path]
	if !ok {
		return nil, nil, qerror.CoordNoNodeError{Path: path}
	}
	return copyData(n.data), copyStat(n), nil
}

func (s *Session) GetW(path string) ([]byte, *coordinating.Stat, <-chan coordinating.WatchEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(Call{Op: OpGet, Path: path, Watch: true}); err != nil {
		return nil, nil, nil, err
	}
	n, ok := s.nodes[path]
	if !ok {
		return nil, nil, nil, qerror.CoordNoNodeError{Path: path}
	}
	return copyData(n.data), copyStat(n), s.dataWatches.add(path), nil
}
