//go:build !release

package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newLogger() *zap.Logger {
	level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	config := zap.NewDevelopmentConfig()
	config.Level = level
	l, err := config.Build(zap.AddCallerSkip(1), zap.AddStacktrace(zap.ErrorLevel))
	if err != nil {
		panic(err)
	}
	return l
}
