package inmemory

import (
	"fmt"

	"github.com/paust-team/zkwatch/coordinating"
	"github.com/paust-team/zkwatch/qerror"
)

func (s *Session) Create(path string, data []byte, mode coordinating.CreateMode, acl []coordinating.ACL) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(Call{Op: OpCreate, Path: path, Data: copyData(data), Mode: mode, ACL: acl}); err != nil {
		return "", err
	}
	if err := coordinating.ValidatePath(path); err != nil {
		return "", qerror.CoordRequestError{ErrStr: err.Error()}
	}
	if path == "/" {
		return "", qerror.CoordTargetAlreadyExistsError{Target: path}
	}
	parent := coordinating.ParentPath(path)
	p, ok := s.nodes[parent]
	if !ok {
		return "", qerror.CoordNoNodeError{Path: parent}
	}
	if p.stat.EphemeralOwner != 0 {
		return "", qerror.CoordRequestError{ErrStr: "ephemeral node cannot have children: " + parent}
	}

	created := path
	if mode.IsSequential() {
		created = fmt.Sprintf("%s%010d", path, p.stat.Cversion)
	}
	if _, exists := s.nodes[created]; exists {
		return "", qerror.CoordTargetAlreadyExistsError{Target: created}
	}
	if len(acl) == 0 {
		acl = coordinating.WorldACL(coordinating.PermAll)
	}

	zxid := s.nextZxid()
	now := nowMillis()
	n := &node{
		data:     copyData(data),
		acl:      acl,
		children: map[string]struct{}{},
		stat: coordinating.Stat{
			Czxid: zxid,
			Mzxid: zxid,
			Pzxid: zxid,
			Ctime: now,
			Mtime: now,
		},
	}
	if mode.IsEphemeral() {
		n.stat.EphemeralOwner = s.id
	}
	s.nodes[created] = n

	p.children[coordinating.BaseName(created)] = struct{}{}
	p.stat.Cversion++
	p.stat.Pzxid = zxid

	s.existWatches.fire(created, coordinating.WatchEvent{Type: coordinating.EventNodeCreated, Path: created})
	s.childWatches.fire(parent, coordinating.WatchEvent{Type: coordinating.EventNodeChildrenChanged, Path: parent})
	return created, nil
}
