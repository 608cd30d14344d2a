package zk

import "github.com/paust-team/zkwatch/coordinating"

func (s *Session) Exists(path string) (bool, *coordinating.Stat, error) {
	exists, stat, err := s.conn.Exists(path)
	if err != nil {
		return false, nil, convertError(err, path, coordinating.AnyVersion)
	}
	return exists, convertStat(stat), nil
}

func (s *Session) ExistsW(path string) (bool, *coordinating.Stat, <-chan coordinating.WatchEvent, error) {
	exists, stat, eventCh, err := s.conn.ExistsW(path)
	if err != nil {
		return false, nil, nil, convertError(err, path, coordinating.AnyVersion)
	}
	return exists, convertStat(stat), forwardWatch(path, eventCh), nil
}
