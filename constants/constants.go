package constants

import "time"

const (
	DefaultZKServer         = "127.0.0.1:2181"
	DefaultSessionTimeout   = 5000 * time.Millisecond
	DefaultConnectTimeout   = time.Duration(0)
	DefaultBackoff          = 5000 * time.Millisecond
	DefaultCreateMode       = "EPHEMERAL"
	DefaultMetricsNamespace = "zkwatch"
	URIScheme               = "zookeeper"
)

const WatchEventBuffer = 1
