package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log   *zap.Logger
	level zap.AtomicLevel
)

func init() {
	log = newLogger()
}

// SetLevel changes the level of the package logger at runtime.
func SetLevel(l zapcore.Level) {
	level.SetLevel(l)
}

func Level() zapcore.Level {
	return level.Level()
}

func Debug(message string, fields ...zap.Field) {
	log.Debug(message, fields...)
}

func Info(message string, fields ...zap.Field) {
	log.Info(message, fields...)
}

func Warn(message string, fields ...zap.Field) {
	log.Warn(message, fields...)
}

func Error(message string, fields ...zap.Field) {
	log.Error(message, fields...)
}

func Sync() {
	_ = log.Sync()
}

// zkLogger forwards the zookeeper client's printf style logs into zap.
type zkLogger struct{}

func (zkLogger) Printf(format string, args ...interface{}) {
	log.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)), zap.String("source", "zk"))
}

// ZKLogger returns a logger usable with zk.WithLogger.
func ZKLogger() interface {
	Printf(format string, args ...interface{})
} {
	return zkLogger{}
}
