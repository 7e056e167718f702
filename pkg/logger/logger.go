package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rollbar/rollbar-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/abisalde/student-portal/internal/configs"
)

var globalLogger = zap.NewNop()

func consoleEncoder() zapcore.EncoderConfig {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	return encoderConfig
}

func jsonEncoder() zapcore.EncoderConfig {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return encoderConfig
}

// InitLogger replaces the global logger. When a rollbar token is configured,
// error level entries are also reported to Rollbar.
func InitLogger(cfg *configs.LoggingConfig, env string) error {
	l, err := NewLogger(cfg)
	if err != nil {
		return err
	}

	if cfg.RollbarToken != "" {
		rollbar.SetToken(cfg.RollbarToken)
		rollbar.SetEnvironment(env)
		if host, err := os.Hostname(); err == nil {
			rollbar.SetServerHost(host)
		}
		l = l.WithOptions(zap.Hooks(rollbarHook))
	}

	globalLogger = l
	return nil
}

// NewLogger builds a zap logger from the logging section of the config.
func NewLogger(cfg *configs.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %v", err)
	}

	encoding := "console"
	encoderConfig := consoleEncoder()
	if cfg.Format == "json" {
		encoding = "json"
		encoderConfig = jsonEncoder()
	}

	outputPaths := []string{"stdout"}
	errorOutputPaths := []string{"stderr"}

	if cfg.OutputPath != "" {
		dir := filepath.Dir(cfg.OutputPath)
		if dir != "." && dir != "" {
			if err = os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}
		outputPaths = append(outputPaths, cfg.OutputPath)
		errorOutputPaths = append(errorOutputPaths, cfg.OutputPath)
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      encoding == "console",
		Encoding:         encoding,
		OutputPaths:      outputPaths,
		ErrorOutputPaths: errorOutputPaths,
		EncoderConfig:    encoderConfig,
	}

	l, err := zapConfig.Build(zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %v", err)
	}
	return l, nil
}

func rollbarHook(entry zapcore.Entry) error {
	if entry.Level < zapcore.ErrorLevel {
		return nil
	}

	extras := map[string]interface{}{
		"caller": entry.Caller.TrimmedPath(),
		"logger": entry.LoggerName,
	}
	if entry.Level >= zapcore.DPanicLevel {
		rollbar.Critical(entry.Message, extras)
		return nil
	}
	rollbar.Error(entry.Message, extras)
	return nil
}

// SetLogger swaps the global logger, mostly for tests using zaptest/observer.
func SetLogger(l *zap.Logger) {
	globalLogger = l
}

func GetLogger() *zap.Logger {
	return globalLogger
}

func Debug(msg string, fields ...zap.Field) {
	globalLogger.Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	globalLogger.Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	globalLogger.Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	globalLogger.Error(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	globalLogger.Fatal(msg, fields...)
}

func With(fields ...zap.Field) *zap.Logger {
	return globalLogger.With(fields...)
}

// Sync flushes buffered entries and waits for pending Rollbar reports.
func Sync() error {
	rollbar.Wait()
	return globalLogger.Sync()
}
