package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"course-eval/backend/config"
)

func TestNewLogger_Formats(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		l, err := NewLogger(&config.LogConfig{Level: "debug", Format: format})
		if err != nil {
			t.Fatalf("format=%s 初始化失败: %v", format, err)
		}
		if !l.Core().Enabled(zapcore.DebugLevel) {
			t.Errorf("format=%s 期望启用 debug 级别", format)
		}
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	if _, err := NewLogger(&config.LogConfig{Level: "verbose", Format: "json"}); err == nil {
		t.Error("无效级别应返回错误")
	}
}

func TestNewLogger_InfoLevel(t *testing.T) {
	l, err := NewLogger(&config.LogConfig{Level: "info", Format: "json"})
	if err != nil {
		t.Fatalf("初始化失败: %v", err)
	}
	if l.Core().Enabled(zapcore.DebugLevel) {
		t.Error("info 级别不应启用 debug")
	}
	if !l.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info 级别应启用 info")
	}
}
