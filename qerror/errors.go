package qerror

import (
	"errors"
	"fmt"
	"strings"
)

type PQError interface {
	Code() QErrCode
	Error() string
}

// CodeOf returns the code of the first PQError in err's chain, or Success for nil.
func CodeOf(err error) (QErrCode, bool) {
	if err == nil {
		return Success, true
	}
	var pqErr PQError
	if errors.As(err, &pqErr) {
		return pqErr.Code(), true
	}
	return 0, false
}

func IsNoNode(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == ErrCoordNoNode
}

func IsNodeExists(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == ErrCoordTargetAlreadyExists
}

func IsBadVersion(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == ErrCoordBadVersion
}

func IsClosed(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == ErrCoordClosed
}

// config
type ConfigValueNotSetError struct {
	Key string
}

func (e ConfigValueNotSetError) Error() string {
	return fmt.Sprintf("config value(%s) is not set", e.Key)
}

func (e ConfigValueNotSetError) Code() QErrCode {
	return ErrConfigValueNotSet
}

type InvalidConfigError struct {
	Key    string
	ErrStr string
}

func (e InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config value(%s) : %s", e.Key, e.ErrStr)
}

func (e InvalidConfigError) Code() QErrCode {
	return ErrInvalidConfig
}

// coordinating
type CoordConnectionError struct {
	Addrs  []string
	ErrStr string
}

func (e CoordConnectionError) Error() string {
	msg := fmt.Sprintf("failed to connect to coordinator [%s]", strings.Join(e.Addrs, ","))
	if e.ErrStr != "" {
		msg += " : " + e.ErrStr
	}
	return msg
}

func (e CoordConnectionError) Code() QErrCode {
	return ErrCoordConnection
}

type CoordClosedError struct{}

func (e CoordClosedError) Error() string {
	return "coordinator connection is closed"
}

func (e CoordClosedError) Code() QErrCode {
	return ErrCoordClosed
}

type CoordRequestError struct {
	ErrStr string
}

func (e CoordRequestError) Error() string {
	return "error occurred during request to zookeeper : " + e.ErrStr
}

func (e CoordRequestError) Code() QErrCode {
	return ErrCoordRequest
}

type CoordTargetAlreadyExistsError struct {
	Target string
}

func (e CoordTargetAlreadyExistsError) Error() string {
	return fmt.Sprintf("target %s already exists", e.Target)
}

func (e CoordTargetAlreadyExistsError) Code() QErrCode {
	return ErrCoordTargetAlreadyExists
}

type CoordNoNodeError struct {
	Path string
}

func (e CoordNoNodeError) Error() string {
	return "no node exists for path: " + e.Path
}

func (e CoordNoNodeError) Code() QErrCode {
	return ErrCoordNoNode
}

type CoordBadVersionError struct {
	Path    string
	Version int32
}

func (e CoordBadVersionError) Error() string {
	return fmt.Sprintf("version(%d) does not match for path: %s", e.Version, e.Path)
}

func (e CoordBadVersionError) Code() QErrCode {
	return ErrCoordBadVersion
}

type CoordNotEmptyError struct {
	Path string
}

func (e CoordNotEmptyError) Error() string {
	return "node has children: " + e.Path
}

func (e CoordNotEmptyError) Code() QErrCode {
	return ErrCoordNotEmpty
}

type CoordWatchError struct {
	Path   string
	ErrStr string
}

func (e CoordWatchError) Error() string {
	return fmt.Sprintf("watch on path(%s) stopped : %s", e.Path, e.ErrStr)
}

func (e CoordWatchError) Code() QErrCode {
	return ErrCoordWatch
}

// consumer / producer
type ConsumerStoppedError struct{}

func (e ConsumerStoppedError) Error() string {
	return "consumer is stopped"
}

func (e ConsumerStoppedError) Code() QErrCode {
	return ErrConsumerStopped
}

type ConsumerStartedError struct{}

func (e ConsumerStartedError) Error() string {
	return "consumer is already started"
}

func (e ConsumerStartedError) Code() QErrCode {
	return ErrConsumerStarted
}

type InvalidOperationError struct {
	Operation string
}

func (e InvalidOperationError) Error() string {
	return fmt.Sprintf("invalid operation(%s)", e.Operation)
}

func (e InvalidOperationError) Code() QErrCode {
	return ErrInvalidOperation
}
