package smfcodec

import "github.com/charmbracelet/log"

// logger receives tolerance warnings from the decode/encode paths: dropped
// unpaired notes, PPQ fallback, and similar recoverable oddities. Nil-safe
// so callers that never set one (tests, library embedders) pay nothing.
var logger *log.Logger

// SetLogger installs the logger used for tolerance warnings. Pass nil to
// silence them again.
func SetLogger(l *log.Logger) {
	logger = l
}

func warnf(msg string, keyvals ...interface{}) {
	if logger != nil {
		logger.Warn(msg, keyvals...)
	}
}
