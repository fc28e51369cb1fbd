package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// FileName is the log file created inside the data directory.
const FileName = "courier.log"

// New builds a console-encoded logger writing to dataDir/courier.log, since
// the terminal UI owns stdout. It replaces the zap globals and routes the
// standard library logger through it. The returned func flushes and closes
// the file.
func New(dataDir, level string) (*zap.Logger, func(), error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create data dir: %w", err)
	}
	path := filepath.Join(dataDir, FileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	logger := newLogger(zapcore.AddSync(f), lvl)
	zap.ReplaceGlobals(logger)
	log.SetFlags(0)
	log.SetOutput(zap.NewStdLog(logger).Writer())

	cleanup := func() {
		_ = logger.Sync()
		_ = f.Close()
	}
	return logger, cleanup, nil
}

func newLogger(out zapcore.WriteSyncer, lvl zapcore.Level) *zap.Logger {
	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)

	core := zapcore.NewCore(consoleEncoder, out, lvl)
	return zap.New(core, zap.AddCaller())
}

// ParseLevel maps a config value such as "debug" or "WARN" to a zap level.
// Empty means info.
func ParseLevel(level string) (zapcore.Level, error) {
	level = strings.TrimSpace(level)
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return lvl, fmt.Errorf("invalid log_level %q: %w", level, err)
	}
	return lvl, nil
}
