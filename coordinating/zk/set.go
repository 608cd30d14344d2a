package zk

import "github.com/paust-team/zkwatch/coordinating"

func (s *Session) Set(path string, data []byte, version int32) (*coordinating.Stat, error) {
	stat, err := s.conn.Set(path, data, version)
	if err != nil {
		return nil, convertError(err, path, version)
	}
	return convertStat(stat), nil
}
