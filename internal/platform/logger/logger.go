package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config はロガーの設定
type Config struct {
	Level  slog.Level
	Format string // "json" or "text"
	Output io.Writer
}

// DefaultConfig はデフォルトのロガー設定
func DefaultConfig() Config {
	return Config{
		Level:  slog.LevelInfo,
		Format: "json",
		Output: os.Stdout,
	}
}

// FromStrings は設定ファイル由来の文字列からロガー設定を組み立てる
func FromStrings(level, format string) (Config, error) {
	cfg := DefaultConfig()

	lv, err := ParseLevel(level)
	if err != nil {
		return cfg, err
	}
	cfg.Level = lv

	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "", "json":
		cfg.Format = "json"
	case "text":
		cfg.Format = "text"
	default:
		return cfg, fmt.Errorf("unknown log format: %q", format)
	}

	return cfg, nil
}

// ParseLevel は "debug" / "info" / "warn" / "error" を slog.Level に変換する
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %q", s)
	}
}

// New は新しいロガーを作成し、デフォルトロガーとして設定します
func New(cfg Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: cfg.Level,
	}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(out, opts)
	default: // "json"
		handler = slog.NewJSONHandler(out, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}
