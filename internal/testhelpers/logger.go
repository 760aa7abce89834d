package testhelpers

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"recipehub/pkg/logger"
)

// NewTestLogger returns a logger whose entries can be inspected.
func NewTestLogger() (logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return logger.FromZap(zap.New(core)), logs
}
