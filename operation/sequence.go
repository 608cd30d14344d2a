package operation

import "github.com/paust-team/zkwatch/config"

// Sequence is one cycle of operations against a node, executed in order.
type Sequence []*Operation

// Factory builds the operations of a cycle. It does no I/O and returns new
// operations on every call.
type Factory func(cycle uint64) Sequence

func waitForNode(path string, cycle uint64) *Operation {
	return &Operation{
		Kind:  AnyOf,
		Path:  path,
		Cycle: cycle,
		Alternatives: []*Operation{
			{Kind: Exists, Path: path, Cycle: cycle},
			{Kind: ExistsOrChanged, Path: path, Cycle: cycle},
		},
	}
}

// DataWatchSequence waits for the node, fetches its data and waits for the next change.
func DataWatchSequence(path string, sendEmptyMessageOnDelete bool) Factory {
	return func(cycle uint64) Sequence {
		return Sequence{
			waitForNode(path, cycle),
			{Kind: FetchData, Path: path, Cycle: cycle, Step: 1},
			{Kind: WatchData, Path: path, Cycle: cycle, Step: 2, Terminal: true, SendEmptyMessageOnDelete: sendEmptyMessageOnDelete},
		}
	}
}

// ChildrenWatchSequence waits for the node, lists its children and waits for the next
// change of the listing.
func ChildrenWatchSequence(path string) Factory {
	return func(cycle uint64) Sequence {
		return Sequence{
			waitForNode(path, cycle),
			{Kind: FetchChildren, Path: path, Cycle: cycle, Step: 1},
			{Kind: WatchChildren, Path: path, Cycle: cycle, Step: 2, Terminal: true},
		}
	}
}

func NewFactory(node config.NodeConfiguration) Factory {
	if node.ListChildren {
		return ChildrenWatchSequence(node.Path)
	}
	return DataWatchSequence(node.Path, node.SendEmptyMessageOnDelete)
}
