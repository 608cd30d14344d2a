package zk

import "github.com/paust-team/zkwatch/coordinating"

func (s *Session) Create(path string, data []byte, mode coordinating.CreateMode, acl []coordinating.ACL) (string, error) {
	created, err := s.conn.Create(path, data, createFlags(mode), convertACL(acl))
	if err != nil {
		return "", convertError(err, path, coordinating.AnyVersion)
	}
	return created, nil
}
