package database

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestGormLogLevel(t *testing.T) {
	cases := map[string]gormlogger.LogLevel{
		"debug": gormlogger.Info,
		"info":  gormlogger.Warn,
		"warn":  gormlogger.Warn,
		"error": gormlogger.Error,
		"":      gormlogger.Error,
	}
	for in, want := range cases {
		if got := gormLogLevel(in); got != want {
			t.Errorf("gormLogLevel(%q) 期望 %v，实际 %v", in, want, got)
		}
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		t.Fatalf("读取嵌入迁移目录失败: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("迁移目录为空")
	}
	if len(entries)%2 != 0 {
		t.Errorf("迁移文件应成对出现(up/down)，实际 %d 个", len(entries))
	}
}

func TestMigrateLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := &migrateLogger{logger: zap.New(core)}

	l.Printf("1/u init_schema (%s)\n", "12ms")
	if logs.Len() != 1 || logs.All()[0].Message != "1/u init_schema (12ms)" {
		t.Errorf("日志内容不符: %+v", logs.All())
	}
	if l.Verbose() {
		t.Error("info 级别下不应开启 verbose")
	}
}
