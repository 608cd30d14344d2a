package zk

import "github.com/paust-team/zkwatch/coordinating"

func (s *Session) Get(path string) ([]byte, *coordinating.Stat, error) {
	value, stat, err := s.conn.Get(path)
	if err != nil {
		return nil, nil, convertError(err, path, coordinating.AnyVersion)
	}
	return value, convertStat(stat), nil
}

func (s *Session) GetW(path string) ([]byte, *coordinating.Stat, <-chan coordinating.WatchEvent, error) {
	value, stat, eventCh, err := s.conn.GetW(path)
	if err != nil {
		return nil, nil, nil, convertError(err, path, coordinating.AnyVersion)
	}
	return value, convertStat(stat), forwardWatch(path, eventCh), nil
}
