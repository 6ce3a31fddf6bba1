package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log *zap.Logger

// Config controls the logging subsystem.
type Config struct {
	// Log level: debug, info, warn, error, dpanic, panic, fatal
	Level string `mapstructure:"level"`
	// Mirror log output to the console
	Console bool `mapstructure:"console"`
	// Log file path
	FilePath string `mapstructure:"file_path"`
	// Maximum size of a single log file, in MB
	MaxSize int `mapstructure:"max_size"`
	// Maximum number of rotated log files to keep
	MaxBackups int `mapstructure:"max_backups"`
	// Maximum age of rotated log files, in days
	MaxAge int `mapstructure:"max_age"`
	// Compress rotated log files
	Compress bool `mapstructure:"compress"`
}

// Init initializes the logging subsystem.
func Init(config Config) error {
	if config.Level == "" {
		config.Level = "info"
	}
	if config.FilePath == "" {
		config.FilePath = "logs/ai-podcast.log"
	}
	if config.MaxSize == 0 {
		config.MaxSize = 100
	}
	if config.MaxBackups == 0 {
		config.MaxBackups = 3
	}
	if config.MaxAge == 0 {
		config.MaxAge = 28
	}

	logDir := filepath.Dir(config.FilePath)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		return fmt.Errorf("invalid log level '%s': %w", config.Level, err)
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var cores []zapcore.Core

	fileWriter := zapcore.AddSync(&lumberjack.Logger{
		Filename:   config.FilePath,
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		Compress:   config.Compress,
	})
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		fileWriter,
		level,
	)
	cores = append(cores, fileCore)

	if config.Console {
		consoleEncoder := zapcore.NewConsoleEncoder(encoderConfig)
		consoleCore := zapcore.NewCore(
			consoleEncoder,
			zapcore.AddSync(os.Stdout),
			level,
		)
		cores = append(cores, consoleCore)
	}

	core := zapcore.NewTee(cores...)
	log = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))

	Info("logging initialized", "level", config.Level, "file", config.FilePath)

	return nil
}

// Sync flushes buffered log entries.
func Sync() error {
	if log != nil {
		return log.Sync()
	}
	return nil
}

// Debug logs a message at debug level.
func Debug(msg string, keysAndValues ...interface{}) {
	if log != nil {
		sugar := log.Sugar()
		sugar.Debugw(msg, keysAndValues...)
	}
}

// Info logs a message at info level.
func Info(msg string, keysAndValues ...interface{}) {
	if log != nil {
		sugar := log.Sugar()
		sugar.Infow(msg, keysAndValues...)
	}
}

// Warn logs a message at warn level.
func Warn(msg string, keysAndValues ...interface{}) {
	if log != nil {
		sugar := log.Sugar()
		sugar.Warnw(msg, keysAndValues...)
	}
}

// Error logs a message at error level.
func Error(msg string, keysAndValues ...interface{}) {
	if log != nil {
		sugar := log.Sugar()
		sugar.Errorw(msg, keysAndValues...)
	}
}

// Fatal logs a message at fatal level and exits.
func Fatal(msg string, keysAndValues ...interface{}) {
	if log != nil {
		sugar := log.Sugar()
		sugar.Fatalw(msg, keysAndValues...)
	}
}

// WithContext returns a logger that tags every entry with a context label.
func WithContext(ctx string) *ContextLogger {
	return &ContextLogger{context: ctx}
}

// ContextLogger tags every entry with a fixed context label.
type ContextLogger struct {
	context string
}

// Debug logs a message at debug level with the context label.
func (c *ContextLogger) Debug(msg string, keysAndValues ...interface{}) {
	if log != nil {
		kvs := append([]interface{}{"context", c.context}, keysAndValues...)
		Debug(msg, kvs...)
	}
}

// Info logs a message at info level with the context label.
func (c *ContextLogger) Info(msg string, keysAndValues ...interface{}) {
	if log != nil {
		kvs := append([]interface{}{"context", c.context}, keysAndValues...)
		Info(msg, kvs...)
	}
}

// Warn logs a message at warn level with the context label.
func (c *ContextLogger) Warn(msg string, keysAndValues ...interface{}) {
	if log != nil {
		kvs := append([]interface{}{"context", c.context}, keysAndValues...)
		Warn(msg, kvs...)
	}
}

// Error logs a message at error level with the context label.
func (c *ContextLogger) Error(msg string, keysAndValues ...interface{}) {
	if log != nil {
		kvs := append([]interface{}{"context", c.context}, keysAndValues...)
		Error(msg, kvs...)
	}
}

// Fatal logs a message at fatal level with the context label and exits.
func (c *ContextLogger) Fatal(msg string, keysAndValues ...interface{}) {
	if log != nil {
		kvs := append([]interface{}{"context", c.context}, keysAndValues...)
		Fatal(msg, kvs...)
	}
}

// TimeTrack logs the elapsed time of a function when the returned func runs.
func TimeTrack(name string) func() {
	start := time.Now()
	return func() {
		Info("function timing", "function", name, "duration", time.Since(start))
	}
}
