package logging

import (
	"os"
	"sync"
)

var (
	globalMu     sync.RWMutex
	globalLogger *Logger
)

// InitLogger builds the global logger. Calling it again replaces the previous
// logger and closes its file.
func InitLogger(config *Config) error {
	logger, err := NewLogger(config)
	if err != nil {
		return err
	}

	globalMu.Lock()
	previous := globalLogger
	globalLogger = logger
	globalMu.Unlock()

	if previous != nil {
		_ = previous.Close()
	}
	return nil
}

// GetGlobalLogger returns the global logger, falling back to stdout at info
// level when InitLogger has not been called
func GetGlobalLogger() *Logger {
	globalMu.RLock()
	logger := globalLogger
	globalMu.RUnlock()
	if logger != nil {
		return logger
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger = NewWriterLogger(os.Stdout, LevelInfo)
	}
	return globalLogger
}
