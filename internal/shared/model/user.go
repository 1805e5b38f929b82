// Package model 定义核心数据模型
//
// user.go 包含用户相关的数据模型：
//   - User：注册用户（含角色标志）
//   - UserRole：角色枚举（user / admin）
//   - UserSummary：嵌入博客视图的公开用户信息
package model

import (
	"strings"
	"time"
)

// UserRole 用户角色
type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

// ValidRole 校验角色值是否合法
func ValidRole(r string) bool {
	return r == string(UserRoleAdmin) || r == string(UserRoleUser)
}

// User 注册用户
//
// 密码只保存 bcrypt 哈希，序列化时永不输出（json:"-"）。
// Username 和 Email 全局唯一，Email 统一小写存储。
type User struct {
	ID           string    `json:"id" bson:"_id" db:"id"`
	FirstName    string    `json:"first_name" bson:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" bson:"last_name" db:"last_name"`
	Username     string    `json:"username" bson:"username" db:"username"`
	Email        string    `json:"email" bson:"email" db:"email"`
	PasswordHash string    `json:"-" bson:"password_hash" db:"password_hash"` // never expose in JSON
	Role         UserRole  `json:"role" bson:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at" db:"updated_at"`
}

// FullName 返回 "FirstName LastName"
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsAdmin 是否管理员
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// UserSummary 用户公开信息投影
// 博客列表/详情的反范式化视图中内嵌作者和审核人信息
type UserSummary struct {
	ID        string `json:"id" bson:"_id"`
	Username  string `json:"username" bson:"username"`
	FirstName string `json:"first_name" bson:"first_name"`
	LastName  string `json:"last_name" bson:"last_name"`
	Email     string `json:"email" bson:"email"`
}

// Summary 返回用户的公开信息投影
func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}
}

// NormalizeEmail 统一邮箱格式（去空白 + 小写）
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
