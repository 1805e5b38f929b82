// Package repository 数据库无关的 SQL 存储层
//
// 通过 dbutil.Dialect 接口屏蔽不同数据库的 SQL 差异，
// 所有 SQL 以 PostgreSQL 风格编写，运行时由 Dialect.Rebind() 转换。
package repository

import (
	"database/sql"
	"strings"

	"campus-blog/internal/shared/storage/dbutil"
)

// Store 通用 SQL 存储实现
// 实现了 storage.PersistentStore 接口
type Store struct {
	db      *sql.DB
	dialect dbutil.Dialect
}

// NewStore 创建通用存储
func NewStore(db *sql.DB, dialect dbutil.Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// Close 关闭数据库连接
func (r *Store) Close() error {
	return r.db.Close()
}

// DB 返回底层数据库连接（仅用于测试）
func (r *Store) DB() *sql.DB {
	return r.db
}

// rebind 快捷方法：将 PG 风格 SQL 转换为当前方言
func (r *Store) rebind(query string) string {
	return r.dialect.Rebind(query)
}

// isUniqueViolation 判断是否唯一键冲突
// SQLite: "UNIQUE constraint failed"; PostgreSQL: "duplicate key value"
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
