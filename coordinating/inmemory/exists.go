package inmemory

import "github.com/paust-team/zkwatch/coordinating"

func (s *Session) Exists(path string) (bool, *coordinating.Stat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(Call{Op: OpExists, Path: path}); err != nil {
		return false, nil, err
	}
	n, ok := s.nodes[path]
	if !ok {
		return false, nil, nil
	}
	return true, copyStat(n), nil
}

func (s *Session) ExistsW(path string) (bool, *coordinating.Stat, <-chan coordinating.WatchEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(Call{Op: OpExists, Path: path, Watch: true}); err != nil {
		return false, nil, nil, err
	}
	watchCh := s.existWatches.add(path)
	n, ok := s.nodes[path]
	if !ok {
		return false, nil, watchCh, nil
	}
	return true, copyStat(n), watchCh, nil
}
