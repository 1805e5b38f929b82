// Package model 定义核心数据模型
//
// blog.go 包含博客相关的数据模型：
//   - Blog：博客文章（含审核状态机字段）
//   - BlogStatus：审核状态枚举（pending / approved / rejected）
//   - CoverImage：内嵌封面图（二进制 + MIME 类型）
package model

import "time"

// BlogStatus 博客审核状态
//
// 状态机：
//
//	pending ──approve──> approved
//	   └──────reject───> rejected
//
// approved / rejected 不再通过公开 API 回到 pending。
type BlogStatus string

const (
	BlogStatusPending  BlogStatus = "pending"
	BlogStatusApproved BlogStatus = "approved"
	BlogStatusRejected BlogStatus = "rejected"
)

// ValidBlogStatus 校验状态值是否合法
func ValidBlogStatus(s string) bool {
	switch BlogStatus(s) {
	case BlogStatusPending, BlogStatusApproved, BlogStatusRejected:
		return true
	}
	return false
}

// DefaultRejectionReason 拒绝时未提供理由的默认值
const DefaultRejectionReason = "No reason provided"

// CoverImage 内嵌封面图
// 未配置对象存储时，封面图直接以二进制形式存入文档
type CoverImage struct {
	Data        []byte `json:"-" bson:"data"`
	ContentType string `json:"content_type" bson:"content_type"`
}

// Blog 博客文章
//
// 新建时 Status 固定为 pending，作者取自调用方身份（不信任请求体）。
// 审核（approve/reject）只允许从 pending 出发，由管理员执行，
// 并记录审核人（ReviewerID）和审核时间（ReviewedAt）。
//
// 封面图二选一：
//   - CoverImage：内嵌二进制（默认）
//   - CoverImageKey：对象存储 key（配置了 MinIO 时）
type Blog struct {
	ID            string      `json:"id" bson:"_id" db:"id"`
	Title         string      `json:"title" bson:"title" db:"title"`
	Description   string      `json:"description" bson:"description" db:"description"`
	Content       string      `json:"content" bson:"content" db:"content"` // 富文本 HTML
	Category      string      `json:"category" bson:"category" db:"category"`
	ImageCaption  string      `json:"image_caption,omitempty" bson:"image_caption,omitempty" db:"image_caption"`
	CoverImage    *CoverImage `json:"cover_image,omitempty" bson:"cover_image,omitempty" db:"-"`
	CoverImageKey string      `json:"-" bson:"cover_image_key,omitempty" db:"cover_image_key"`

	AuthorID string     `json:"author_id" bson:"author_id" db:"author_id"`
	Status   BlogStatus `json:"status" bson:"status" db:"status"`

	ReviewerID      *string    `json:"reviewer_id,omitempty" bson:"reviewer_id,omitempty" db:"reviewer_id"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty" bson:"reviewed_at,omitempty" db:"reviewed_at"`
	RejectionReason *string    `json:"rejection_reason,omitempty" bson:"rejection_reason,omitempty" db:"rejection_reason"`

	CreatedAt time.Time `json:"created_at" bson:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at" db:"updated_at"`

	// 读取时由存储层补全的反范式化视图（不持久化）
	Author   *UserSummary `json:"author,omitempty" bson:"-" db:"-"`
	Reviewer *UserSummary `json:"reviewer,omitempty" bson:"-" db:"-"`
}

// HasCover 是否带封面图（内嵌或对象存储）
func (b *Blog) HasCover() bool {
	return b.CoverImageKey != "" || (b.CoverImage != nil && len(b.CoverImage.Data) > 0)
}

// BlogUpdate 作者/管理员可编辑的字段集合
// nil 表示该字段不修改
type BlogUpdate struct {
	Title        *string `json:"title,omitempty"`
	Description  *string `json:"description,omitempty"`
	Content      *string `json:"content,omitempty"`
	Category     *string `json:"category,omitempty"`
	ImageCaption *string `json:"image_caption,omitempty"`
}

// Empty 是否没有任何待修改字段
func (u *BlogUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Content == nil &&
		u.Category == nil && u.ImageCaption == nil
}
