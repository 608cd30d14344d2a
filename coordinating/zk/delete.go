package zk

func (s *Session) Delete(path string, version int32) error {
	return convertError(s.conn.Delete(path, version), path, version)
}
