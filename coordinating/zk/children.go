package zk

import "github.com/paust-team/zkwatch/coordinating"

func (s *Session) Children(path string) ([]string, *coordinating.Stat, error) {
	children, stat, err := s.conn.Children(path)
	if err != nil {
		return nil, nil, convertError(err, path, coordinating.AnyVersion)
	}
	return children, convertStat(stat), nil
}

func (s *Session) ChildrenW(path string) ([]string, *coordinating.Stat, <-chan coordinating.WatchEvent, error) {
	children, stat, eventCh, err := s.conn.ChildrenW(path)
	if err != nil {
		return nil, nil, nil, convertError(err, path, coordinating.AnyVersion)
	}
	return children, convertStat(stat), forwardWatch(path, eventCh), nil
}
