package cluster

import (
	"io"

	"github.com/agleyzer/m3u8kit/pkg/logger"
	"github.com/hashicorp/go-hclog"
	"go.uber.org/zap/zapcore"
)

// newRaftLogger returns the hclog.Logger handed to Raft. Raft output is
// discarded unless debug logging is enabled, in which case it is written
// through the application logger.
func newRaftLogger(log *logger.Logger) hclog.Logger {
	if log == nil || !log.Enabled(zapcore.DebugLevel) {
		return newNoOpHCLogger()
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "raft",
		Level:  hclog.Debug,
		Output: log.StdLogger().Writer(),
	})
}

// newNoOpHCLogger creates a no-op hclog.Logger for Raft to avoid excessive logging.
func newNoOpHCLogger() hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   "raft",
		Level:  hclog.Off,
		Output: io.Discard,
	})
}
