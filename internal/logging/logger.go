package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger writes JSON events to a rotating file logDir/fileName and mirrors
// them in console format on stderr. Each process needs its own fileName:
// lumberjack rotates by renaming, which is unsafe across processes.
//
// The console core never filters out warnings, so config problems reach the
// operator even when level is "error".
func NewLogger(logDir, fileName, level string) (*zap.Logger, error) {
	return newLogger(logDir, fileName, level, zapcore.Lock(os.Stderr))
}

func newLogger(logDir, fileName, level string, console zapcore.WriteSyncer) (*zap.Logger, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	file := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(logDir, fileName),
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	})
	fileCfg := zap.NewProductionEncoderConfig()
	fileCfg.TimeKey = "ts"

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), file, lvl),
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), console, min(lvl, zapcore.WarnLevel)),
	)
	return zap.New(core), nil
}
