// Package storage 定义持久化存储层抽象接口
//
// 设计原则：依赖倒置 (DIP)
//   - 调用方只依赖接口，不知道具体实现
//   - 具体实现在子包中：mongostore/（MongoDB）、repository/（SQL）
//   - 初始化时通过依赖注入传入实现
package storage

import (
	"context"
	"time"

	"campus-blog/internal/shared/model"
)

// UserStore 用户存储接口
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
	UpdateUserRole(ctx context.Context, id string, role model.UserRole) error
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error
}

// BlogStore 博客存储接口
//
// 读取语义：
//   - Get* 未命中返回 (nil, nil)
//   - 列表按 created_at 倒序（最新优先），无次级排序键
//   - 列表/详情由存储层完成读取时 join，补全 Author/Reviewer 公开信息
//
// 审核语义（原子条件写）：
//   - ApproveBlog/RejectBlog 以 status == pending 为写入前置条件，
//     条件不满足时返回 ErrConflict（博客存在）或 ErrNotFound（不存在）。
//     两个并发审核请求不可能同时成功。
//   - ApproveBlog 同时清除历史 rejection_reason
type BlogStore interface {
	CreateBlog(ctx context.Context, blog *model.Blog) error
	GetBlog(ctx context.Context, id string) (*model.Blog, error)
	ListBlogs(ctx context.Context, status model.BlogStatus) ([]*model.Blog, error)
	ListBlogsByAuthor(ctx context.Context, authorID string) ([]*model.Blog, error)
	UpdateBlog(ctx context.Context, id string, update *model.BlogUpdate) error
	DeleteBlog(ctx context.Context, id string) error
	ApproveBlog(ctx context.Context, id, reviewerID string, at time.Time) error
	RejectBlog(ctx context.Context, id, reviewerID, reason string, at time.Time) error
}

// PersistentStore 持久化存储的完整接口
type PersistentStore interface {
	UserStore
	BlogStore
	Close() error
}
