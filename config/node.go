package config

import (
	"time"

	"github.com/paust-team/zkwatch/coordinating"
)

// NodeConfiguration describes what an endpoint does with its node. It is a value:
// consumers and producers keep their own copy.
type NodeConfiguration struct {
	Path                     string
	ListChildren             bool
	Repeat                   bool
	Backoff                  time.Duration
	SendEmptyMessageOnDelete bool
	Create                   bool
	CreateMode               coordinating.CreateMode
}
