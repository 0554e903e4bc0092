// Package logger wraps zap for structured logging.
package logger

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultLogFile is used until SetLogPath names another file.
const DefaultLogFile = "attemptgen.log"

var (
	log     *zap.Logger
	file    *os.File
	once    sync.Once
	mu      sync.Mutex
	logFile = DefaultLogFile
	level   = zap.NewAtomicLevelAt(zap.InfoLevel)
)

// InitLogger initializes the Zap logger with structured logging. Console
// output goes to stderr, leaving stdout to command output; the same entries
// are appended to the log file as JSON. If the file cannot be opened the
// logger falls back to console only.
func InitLogger() {
	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()

		consoleEncoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		consoleCore := zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stderr), level)

		core := consoleCore
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err == nil {
			file = f
			fileEncoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
			core = zapcore.NewTee(consoleCore, zapcore.NewCore(fileEncoder, zapcore.AddSync(f), level))
		}

		log = zap.New(core, zap.AddCaller())
		if err != nil {
			log.Warn("Log file unavailable, logging to console only", zap.String("path", logFile), zap.Error(err))
		}
	})
}

// GetLogger provides access to the initialized logger.
func GetLogger() *zap.Logger {
	InitLogger()
	return log
}

// SetLogPath changes the log file. It only takes effect for a logger that
// has not been initialized yet; call ResetLogger first otherwise.
func SetLogPath(path string) {
	mu.Lock()
	defer mu.Unlock()
	logFile = path
}

// SetLevel parses a level name (debug, info, warn, error) and applies it to
// the logger, initialized or not.
func SetLevel(name string) error {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	level.SetLevel(l)
	return nil
}

// Sync ensures buffered logs are written before the application exits.
func Sync() {
	mu.Lock()
	defer mu.Unlock()
	if log != nil {
		_ = log.Sync()
	}
}

// ResetLogger flushes and closes the current logger so the next call to
// GetLogger builds a new one.
func ResetLogger() {
	Sync()
	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		_ = file.Close()
		file = nil
	}
	log = nil
	once = sync.Once{}
}
