package app

import (
	"io"

	"github.com/charmbracelet/log"
)

// Logger is the structured logger the service and persister report through.
// *log.Logger satisfies it.
type Logger interface {
	Debug(msg any, keyvals ...any)
	Info(msg any, keyvals ...any)
	Warn(msg any, keyvals ...any)
	Error(msg any, keyvals ...any)
}

func discardLogger() Logger {
	return log.New(io.Discard)
}
