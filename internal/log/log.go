// Package log provides debug logging for Lasso. Logging is disabled
// unless LASSO_DEBUG=1; when enabled, output goes to ~/.lasso/debug.log
// with rotation so it never interferes with terminal rendering.
package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger      *zap.Logger
	enabled     bool
	initialized bool
	mu          sync.Mutex
)

// Init initializes the logger based on the LASSO_DEBUG env var.
func Init() error {
	mu.Lock()
	defer mu.Unlock()

	if initialized {
		return nil
	}
	initialized = true

	if os.Getenv("LASSO_DEBUG") != "1" {
		logger = zap.NewNop()
		return nil
	}

	enabled = true

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	logDir := filepath.Join(homeDir, ".lasso")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return err
	}

	logPath := filepath.Join(logDir, "debug.log")

	// Use lumberjack for log rotation
	writeSyncer := zapcore.AddSync(&lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    50, // MB
		MaxBackups: 3,
		MaxAge:     7, // Days
		Compress:   true,
	})

	// Console encoder for human-readable output
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "T",
		LevelKey:       "", // Hide level, we use custom markers
		NameKey:        "",
		CallerKey:      "",
		MessageKey:     "M",
		StacktraceKey:  "",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.TimeEncoderOfLayout("15:04:05"),
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		writeSyncer,
		zapcore.DebugLevel,
	)

	logger = zap.New(core, zap.AddCaller())
	logger.Info("Debug logging started")

	return nil
}

// IsEnabled returns whether debug logging is enabled.
func IsEnabled() bool {
	return enabled
}

// Logger returns the underlying zap logger.
func Logger() *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// Sync flushes any buffered log entries.
func Sync() error {
	if logger != nil {
		return logger.Sync()
	}
	return nil
}

// LogRequest logs an outbound API call with timing.
func LogRequest(method, path string, status int, duration time.Duration) {
	if !enabled {
		return
	}
	logger.Info(fmt.Sprintf("[api] %s %s status=%d %s", method, path, status, duration.Round(time.Millisecond)))
}

// LogStreamDone logs stream completion stats.
func LogStreamDone(sessionID string, duration time.Duration, textParts, toolCalls int) {
	if !enabled {
		return
	}
	logger.Info(fmt.Sprintf("[stream] session=%s done duration=%s text_parts=%d tool_calls=%d",
		sessionID, duration.Round(time.Millisecond), textParts, toolCalls))
}

// LogError logs an error with a component marker.
func LogError(component string, err error) {
	if !enabled {
		return
	}
	logger.Error(fmt.Sprintf("[%s] %v", component, err))
}
