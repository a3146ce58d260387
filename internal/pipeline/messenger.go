package pipeline

import "log"

// Messenger receives the informational stream of a run: stage progress,
// recovery warnings and the terminal error. It mirrors the message panel of
// the original toolbox.
type Messenger interface {
	Message(format string, args ...any)
	Warning(format string, args ...any)
	Error(format string, args ...any)
}

// logMessenger writes messages through the standard logger (stderr).
type logMessenger struct{}

// NewLogMessenger returns the default Messenger backed by the standard
// logger.
func NewLogMessenger() Messenger {
	return logMessenger{}
}

func (logMessenger) Message(format string, args ...any) {
	log.Printf(format, args...)
}

func (logMessenger) Warning(format string, args ...any) {
	log.Printf("warning: "+format, args...)
}

func (logMessenger) Error(format string, args ...any) {
	log.Printf("error: "+format, args...)
}
