package logger

import "sync"

type TestLogEntry struct {
	Severity  string
	Message   string
	Arguments []interface{}
}

// TestLogger is a Logger that records every entry for later inspection.
// Safe for concurrent use so background goroutines can log during tests.
type TestLogger struct {
	metadata map[string]interface{}
	logs     *[]TestLogEntry
	lock     *sync.Mutex
}

var _ Logger = (*TestLogger)(nil)

// NewTestLogger returns a Logger that records entries instead of writing them.
func NewTestLogger() *TestLogger {
	var logs []TestLogEntry
	return &TestLogger{logs: &logs, lock: &sync.Mutex{}}
}

// Logs returns a copy of all entries recorded so far, across all loggers
// derived from the same root via With/WithPrefix.
func (c *TestLogger) Logs() []TestLogEntry {
	c.lock.Lock()
	defer c.lock.Unlock()
	out := make([]TestLogEntry, len(*c.logs))
	copy(out, *c.logs)
	return out
}

func (c *TestLogger) With(metadata map[string]interface{}) Logger {
	kv := make(map[string]interface{}, len(c.metadata)+len(metadata))
	for k, v := range c.metadata {
		kv[k] = v
	}
	for k, v := range metadata {
		kv[k] = v
	}
	return &TestLogger{metadata: kv, logs: c.logs, lock: c.lock}
}

func (c *TestLogger) WithPrefix(prefix string) Logger {
	return &TestLogger{metadata: c.metadata, logs: c.logs, lock: c.lock}
}

func (c *TestLogger) IsLevelEnabled(level LogLevel) bool {
	return true
}

func (c *TestLogger) record(severity string, msg string, args ...interface{}) {
	c.lock.Lock()
	defer c.lock.Unlock()
	*c.logs = append(*c.logs, TestLogEntry{severity, msg, args})
}

func (c *TestLogger) Trace(msg string, args ...interface{}) {
	c.record("TRACE", msg, args...)
}

func (c *TestLogger) Debug(msg string, args ...interface{}) {
	c.record("DEBUG", msg, args...)
}

func (c *TestLogger) Info(msg string, args ...interface{}) {
	c.record("INFO", msg, args...)
}

func (c *TestLogger) Warn(msg string, args ...interface{}) {
	c.record("WARNING", msg, args...)
}

func (c *TestLogger) Error(msg string, args ...interface{}) {
	c.record("ERROR", msg, args...)
}
