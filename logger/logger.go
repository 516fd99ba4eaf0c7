// Package logger wraps zap for structured logging.
package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log     *zap.Logger
	once    sync.Once
	file    *os.File
	logFile = "mimic.log" // Default log file
)

// SetLogPath overrides the log file location. Call it before the first
// InitLogger or GetLogger; later calls have no effect until ResetLogger.
func SetLogPath(path string) {
	logFile = path
}

// InitLogger initializes the Zap logger with structured logging. Console
// output stays human-readable while the log file carries JSON records.
func InitLogger() {
	once.Do(func() {
		// Define log level (adjustable)
		level := zap.NewAtomicLevelAt(zap.InfoLevel)

		// Configure console logging
		consoleEncoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		cores := []zapcore.Core{
			zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), level),
		}

		// Configure file logging; drop the file sink if it cannot be opened
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err == nil {
			file = f
			fileEncoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
			cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(file), level))
		}

		// Initialize global logger
		log = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	})
}

// GetLogger provides access to the initialized logger.
func GetLogger() *zap.Logger {
	if log == nil {
		InitLogger()
	}
	return log
}

// Sync ensures buffered logs are written before the application exits.
func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}

// ResetLogger discards the current logger so the next InitLogger builds a
// fresh one. Used by tests that redirect the log file.
func ResetLogger() {
	if file != nil {
		file.Close()
		file = nil
	}
	log = nil
	once = sync.Once{}
}
