package logger

import (
	"log"
)

// StdLogger is a lightweight implementation backed by Go's log package.
// Every line carries the base fields given at construction time, e.g.
// the shell session id.
type StdLogger struct {
	verbose bool
	base    map[string]interface{}
}

// NewStd creates a StdLogger.
func NewStd(verbose bool, base map[string]interface{}) *StdLogger {
	return &StdLogger{verbose: verbose, base: base}
}

func (l *StdLogger) Debug(msg string, fields map[string]interface{}) {
	if !l.verbose {
		return
	}
	log.Println("[DEBUG]", msg, l.merged(fields))
}

func (l *StdLogger) Info(msg string, fields map[string]interface{}) {
	if !l.verbose {
		return
	}
	log.Println("[INFO]", msg, l.merged(fields))
}

func (l *StdLogger) Warn(msg string, fields map[string]interface{}) {
	if !l.verbose {
		return
	}
	log.Println("[WARN]", msg, l.merged(fields))
}

func (l *StdLogger) Error(msg string, err error, fields map[string]interface{}) {
	if !l.verbose {
		return
	}
	log.Println("[ERROR]", msg, err, l.merged(fields))
}

func (l *StdLogger) merged(fields map[string]interface{}) map[string]interface{} {
	if len(l.base) == 0 {
		return fields
	}
	out := make(map[string]interface{}, len(l.base)+len(fields))
	for k, v := range l.base {
		out[k] = v
	}
	for k, v := range fields {
		out[k] = v
	}
	return out
}
