package common

import (
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

const maxLogFileSize = 100 * 1024 * 1024

// Logger wraps arbor.ILogger to provide a consistent interface
type Logger struct {
	arbor.ILogger
}

// NewLogger creates a console logger with the specified level
func NewLogger(level string) *Logger {
	logger := arbor.NewLogger().WithConsoleWriter(consoleWriter())
	return &Logger{ILogger: logger.WithLevelFromString(level)}
}

// NewLoggerFromConfig creates a logger with the writers selected in config.
func NewLoggerFromConfig(config LoggingConfig) *Logger {
	logger := arbor.NewLogger()

	hasConsole := false
	for _, output := range config.Outputs {
		switch output {
		case "console", "stdout":
			hasConsole = true
		case "file":
			path := config.FilePath
			if path == "" {
				path = "./logs/nsechat.log"
			}
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				continue
			}
			backups := config.MaxBackups
			if backups <= 0 {
				backups = 3
			}
			logger = logger.WithFileWriter(models.WriterConfiguration{
				Type:       models.LogWriterTypeFile,
				FileName:   path,
				TimeFormat: "15:04:05",
				MaxSize:    maxLogFileSize,
				MaxBackups: backups,
				TextOutput: true,
			})
		}
	}

	if hasConsole || len(config.Outputs) == 0 {
		logger = logger.WithConsoleWriter(consoleWriter())
	}

	return &Logger{ILogger: logger.WithLevelFromString(config.Level)}
}

// NewDefaultLogger creates a logger with default settings
func NewDefaultLogger() *Logger {
	return NewLogger("info")
}

// NewSilentLogger creates a logger that discards all output
func NewSilentLogger() *Logger {
	return &Logger{ILogger: arbor.NewNoOpLogger()}
}

func consoleWriter() models.WriterConfiguration {
	return models.WriterConfiguration{
		Type:       models.LogWriterTypeConsole,
		TimeFormat: "15:04:05",
		TextOutput: true,
	}
}
