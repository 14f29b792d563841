package logging

import (
	"fmt"
	"strings"

	"pai-openai/internal/util"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level names accepted on the command line and in OPENAI_LOG_LEVEL.
const (
	LevelSilent = "silent"
	LevelError  = "error"
	LevelWarn   = "warn"
	LevelInfo   = "info"
	LevelDebug  = "debug"
)

// Levels lists the accepted level names from quietest to loudest.
var Levels = []string{LevelSilent, LevelError, LevelWarn, LevelInfo, LevelDebug}

// ParseLevel validates a level name. Matching is case-insensitive.
func ParseLevel(name string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for _, level := range Levels {
		if normalized == level {
			return level, nil
		}
	}
	return "", fmt.Errorf("invalid log level %q (want one of %s)", name, strings.Join(Levels, ", "))
}

func zapLevel(level string) zapcore.Level {
	switch level {
	case LevelError:
		return zapcore.ErrorLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelDebug:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

// New builds the process logger. Log lines always go to stderr; stdout
// carries model output only.
func New(level string) (*zap.Logger, error) {
	parsed, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if parsed == LevelSilent {
		return zap.NewNop(), nil
	}

	var cfg zap.Config
	if parsed == LevelDebug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Encoding = "console"
		cfg.Sampling = nil
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		cfg.DisableStacktrace = true
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel(parsed))
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	return cfg.Build(zap.WrapCore(StripANSICore))
}

// StripANSICore wraps a core so that messages never carry terminal escapes.
func StripANSICore(core zapcore.Core) zapcore.Core {
	return stripCore{Core: core}
}

type stripCore struct {
	zapcore.Core
}

func (c stripCore) With(fields []zapcore.Field) zapcore.Core {
	return stripCore{Core: c.Core.With(fields)}
}

func (c stripCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c stripCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	entry.Message = util.StripANSI(entry.Message)
	return c.Core.Write(entry, fields)
}
