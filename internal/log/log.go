// Package log provides the process-wide structured logger.
package log

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu   sync.Mutex
	base *zap.Logger
)

// Init builds the process-wide logger. Safe to call more than once; the
// last call wins. debug switches the level to Debug and enables caller
// info, matching the MEMLAYER_DEBUG env var convention used by the CLI.
// If logFile is non-empty, logs are additionally written there through a
// lumberjack rotator (10MB/file, 5 backups, 28 days) instead of only to
// stderr — the standard zap+lumberjack pairing for a long-running process
// like `memlayer service start`.
func Init(debug bool, logFile string) *zap.Logger {
	mu.Lock()
	defer mu.Unlock()

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if debug {
		level.SetLevel(zapcore.DebugLevel)
	}

	encoder := zapcore.NewJSONEncoder(encCfg)
	sinks := []zapcore.WriteSyncer{zapcore.AddSync(os.Stderr)}
	if logFile != "" {
		sinks = append(sinks, zapcore.AddSync(&lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     28,
		}))
	}
	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(sinks...), level)

	var opts []zap.Option
	if debug {
		opts = append(opts, zap.Development(), zap.AddCaller())
	}
	base = zap.New(core, opts...)
	return base
}

// L returns the process-wide logger, initializing a default (non-debug)
// instance on first use if Init was never called.
func L() *zap.Logger {
	mu.Lock()
	needsInit := base == nil
	mu.Unlock()
	if needsInit {
		Init(os.Getenv("MEMLAYER_DEBUG") != "", os.Getenv("MEMLAYER_LOG_FILE"))
	}
	mu.Lock()
	defer mu.Unlock()
	return base
}

// Component returns a child logger tagged with the given component name,
// e.g. log.Component("store") or log.Component("retrieval").
func Component(name string) *zap.Logger {
	return L().With(zap.String("component", name))
}

// Sync flushes any buffered log entries. Call before process exit.
func Sync() {
	mu.Lock()
	l := base
	mu.Unlock()
	if l != nil {
		_ = l.Sync()
	}
}
