// Package storage 定义存储层领域错误
//
// 这些错误用于隔离业务层与底层存储引擎的错误类型，
// 各驱动实现（mongostore/repository）负责将底层错误转换为这些领域错误。
package storage

import "errors"

var (
	// ErrNotFound 实体不存在
	// 替代 sql.ErrNoRows / mongo.ErrNoDocuments
	ErrNotFound = errors.New("entity not found")

	// ErrConflict 状态条件写失败（如对已审核博客再次 approve/reject）
	ErrConflict = errors.New("conflict: state precondition failed")

	// ErrDuplicate 唯一键冲突（重复 ID / email / username）
	ErrDuplicate = errors.New("duplicate: entity already exists")
)
