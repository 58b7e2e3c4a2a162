// Package testdb 为测试提供临时的 SQLite 数据库
package testdb

import (
	"path/filepath"
	"testing"

	"workin-messenger/internal/model"
	dbPkg "workin-messenger/pkg/db"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open 在测试临时目录中创建数据库并完成迁移
// 单连接保证并发测试时 SQLite 写入串行化
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), dbPkg.NewGormConfig("silent"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(&model.Avatar{}, &model.User{}, &model.Message{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
