package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// 輸出格式
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// New 建立 zap logger
//
// 參數:
//
//	level: debug / info / warn / error，空字串視為 info
//	format: json (production encoder) 或 console (development encoder)
//
// 回傳:
//
//	*zap.Logger: logger
//	error: level 或 format 不合法
func New(level, format string) (*zap.Logger, error) {
	lvl := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if strings.TrimSpace(level) != "" {
		var parsed zapcore.Level
		if err := parsed.Set(level); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl.SetLevel(parsed)
	}

	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatJSON:
		cfg = zap.NewProductionConfig()
	case FormatConsole:
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
	cfg.Level = lvl
	cfg.DisableStacktrace = true

	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return l, nil
}
