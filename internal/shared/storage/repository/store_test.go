// Package repository SQLite 集成测试
//
// 使用 SQLite 内存数据库验证 repository 层所有存储接口的正确性。
// 无需外部数据库依赖，可在任何环境下运行。
package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"campus-blog/internal/shared/model"
	"campus-blog/internal/shared/storage"
	"campus-blog/internal/shared/storage/dbutil"
	sqlitedriver "campus-blog/internal/shared/storage/driver/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ storage.PersistentStore = (*Store)(nil)

// newTestStore 创建用于测试的 SQLite 内存数据库 Store
func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sqlitedriver.Open(":memory:")
	require.NoError(t, err)
	dialect := sqlitedriver.NewDialect()
	require.NoError(t, dialect.AutoMigrate(db))
	store := NewStore(db, dialect)
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestUser(t *testing.T, s *Store, id, username string, role model.UserRole) *model.User {
	t.Helper()
	now := time.Now().Truncate(time.Second)
	u := &model.User{
		ID:           id,
		FirstName:    "Test",
		LastName:     "User",
		Username:     username,
		Email:        username + "@example.edu",
		PasswordHash: "$2a$12$fakehashfakehashfakehash",
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func newTestBlog(t *testing.T, s *Store, id, authorID string, createdAt time.Time) *model.Blog {
	t.Helper()
	b := &model.Blog{
		ID:          id,
		Title:       "Title " + id,
		Description: "Description",
		Content:     "<p>Content</p>",
		Category:    "campus-life",
		AuthorID:    authorID,
		Status:      model.BlogStatusPending,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	require.NoError(t, s.CreateBlog(context.Background(), b))
	return b
}

// ============================================================================
// Dialect 基础测试
// ============================================================================

func TestDialectTypes(t *testing.T) {
	d := sqlitedriver.NewDialect()
	assert.Equal(t, dbutil.DriverSQLite, d.DriverType())
	assert.Equal(t, "datetime('now')", d.CurrentTimestamp())
}

func TestRebind(t *testing.T) {
	d := sqlitedriver.NewDialect()
	assert.Equal(t, "SELECT * FROM t WHERE id = ? AND name = ?",
		d.Rebind("SELECT * FROM t WHERE id = $1 AND name = $2"))
	// 应去除 PG 类型转换
	assert.Equal(t, "UPDATE t SET status = ? WHERE id = ?",
		d.Rebind("UPDATE t SET status = $1::varchar WHERE id = $2"))
}

// ============================================================================
// User 测试
// ============================================================================

func TestUserCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, s, "usr-001", "alice", model.UserRoleUser)

	// Get by ID
	got, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, model.UserRoleUser, got.Role)

	// Get by Email / Username
	got, err = s.GetUserByEmail(ctx, u.Email)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)

	got, err = s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)

	// Get not found
	got, err = s.GetUserByID(ctx, "nonexistent")
	require.NoError(t, err)
	assert.Nil(t, got)

	// List
	newTestUser(t, s, "usr-002", "bob", model.UserRoleUser)
	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestUserDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	newTestUser(t, s, "usr-001", "alice", model.UserRoleUser)

	dup := &model.User{
		ID:           "usr-002",
		FirstName:    "Other",
		LastName:     "Alice",
		Username:     "alice", // 用户名冲突
		Email:        "other@example.edu",
		PasswordHash: "x",
		Role:         model.UserRoleUser,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	err := s.CreateUser(ctx, dup)
	assert.ErrorIs(t, err, storage.ErrDuplicate)

	dup.Username = "alice2"
	dup.Email = "alice@example.edu" // 邮箱冲突
	err = s.CreateUser(ctx, dup)
	assert.ErrorIs(t, err, storage.ErrDuplicate)
}

func TestUpdateUserRole(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, s, "usr-001", "alice", model.UserRoleUser)

	require.NoError(t, s.UpdateUserRole(ctx, u.ID, model.UserRoleAdmin))
	got, _ := s.GetUserByID(ctx, u.ID)
	assert.Equal(t, model.UserRoleAdmin, got.Role)
	assert.True(t, got.IsAdmin())

	err := s.UpdateUserRole(ctx, "nonexistent", model.UserRoleAdmin)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdateUserPassword(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, s, "usr-001", "alice", model.UserRoleUser)

	require.NoError(t, s.UpdateUserPassword(ctx, u.ID, "new-hash"))
	got, _ := s.GetUserByID(ctx, u.ID)
	assert.Equal(t, "new-hash", got.PasswordHash)

	err := s.UpdateUserPassword(ctx, "nonexistent", "x")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

// ============================================================================
// Blog 测试
// ============================================================================

func TestBlogCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	author := newTestUser(t, s, "usr-001", "alice", model.UserRoleUser)
	b := newTestBlog(t, s, "blog-001", author.ID, time.Now().Truncate(time.Second))

	// Get：作者公开信息应被补全
	got, err := s.GetBlog(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.BlogStatusPending, got.Status)
	require.NotNil(t, got.Author)
	assert.Equal(t, "alice", got.Author.Username)
	assert.Nil(t, got.Reviewer)
	assert.Nil(t, got.ReviewerID)

	// Get not found
	got, err = s.GetBlog(ctx, "nonexistent")
	require.NoError(t, err)
	assert.Nil(t, got)

	// Update
	title := "Updated Title"
	require.NoError(t, s.UpdateBlog(ctx, b.ID, &model.BlogUpdate{Title: &title}))
	got, _ = s.GetBlog(ctx, b.ID)
	assert.Equal(t, "Updated Title", got.Title)
	assert.Equal(t, "Description", got.Description)

	err = s.UpdateBlog(ctx, "nonexistent", &model.BlogUpdate{Title: &title})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Delete
	require.NoError(t, s.DeleteBlog(ctx, b.ID))
	got, _ = s.GetBlog(ctx, b.ID)
	assert.Nil(t, got)

	err = s.DeleteBlog(ctx, b.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestBlogCoverInline(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	author := newTestUser(t, s, "usr-001", "alice", model.UserRoleUser)
	now := time.Now().Truncate(time.Second)
	b := &model.Blog{
		ID:          "blog-001",
		Title:       "With Cover",
		Description: "d",
		Content:     "c",
		Category:    "events",
		CoverImage:  &model.CoverImage{Data: []byte{0xff, 0xd8, 0xff}, ContentType: "image/jpeg"},
		AuthorID:    author.ID,
		Status:      model.BlogStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, s.CreateBlog(ctx, b))

	got, err := s.GetBlog(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CoverImage)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff}, got.CoverImage.Data)
	assert.Equal(t, "image/jpeg", got.CoverImage.ContentType)
	assert.True(t, got.HasCover())
}

func TestBlogListOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	author := newTestUser(t, s, "usr-001", "alice", model.UserRoleUser)
	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	for i := 0; i < 3; i++ {
		newTestBlog(t, s, fmt.Sprintf("blog-%03d", i), author.ID, base.Add(time.Duration(i)*time.Minute))
	}

	// 最新优先
	blogs, err := s.ListBlogs(ctx, "")
	require.NoError(t, err)
	require.Len(t, blogs, 3)
	assert.Equal(t, "blog-002", blogs[0].ID)
	assert.Equal(t, "blog-000", blogs[2].ID)

	// 状态过滤
	blogs, err = s.ListBlogs(ctx, model.BlogStatusApproved)
	require.NoError(t, err)
	assert.Len(t, blogs, 0)

	blogs, err = s.ListBlogs(ctx, model.BlogStatusPending)
	require.NoError(t, err)
	assert.Len(t, blogs, 3)
}

func TestBlogListByAuthor(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := newTestUser(t, s, "usr-001", "alice", model.UserRoleUser)
	bob := newTestUser(t, s, "usr-002", "bob", model.UserRoleUser)
	now := time.Now().Truncate(time.Second)
	newTestBlog(t, s, "blog-001", alice.ID, now)
	newTestBlog(t, s, "blog-002", bob.ID, now.Add(time.Minute))

	blogs, err := s.ListBlogsByAuthor(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, blogs, 1)
	assert.Equal(t, "blog-001", blogs[0].ID)
}

// ============================================================================
// 审核状态机测试
// ============================================================================

func TestApproveBlog(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	author := newTestUser(t, s, "usr-001", "alice", model.UserRoleUser)
	admin := newTestUser(t, s, "usr-adm", "admin", model.UserRoleAdmin)
	b := newTestBlog(t, s, "blog-001", author.ID, time.Now().Truncate(time.Second))

	at := time.Now().Truncate(time.Second)
	require.NoError(t, s.ApproveBlog(ctx, b.ID, admin.ID, at))

	got, err := s.GetBlog(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BlogStatusApproved, got.Status)
	require.NotNil(t, got.ReviewerID)
	assert.Equal(t, admin.ID, *got.ReviewerID)
	require.NotNil(t, got.ReviewedAt)
	assert.Nil(t, got.RejectionReason)
	require.NotNil(t, got.Reviewer)
	assert.Equal(t, "admin", got.Reviewer.Username)

	// 重复审核应冲突
	err = s.ApproveBlog(ctx, b.ID, admin.ID, at)
	assert.ErrorIs(t, err, storage.ErrConflict)
	err = s.RejectBlog(ctx, b.ID, admin.ID, "late", at)
	assert.ErrorIs(t, err, storage.ErrConflict)

	// 不存在的博客
	err = s.ApproveBlog(ctx, "nonexistent", admin.ID, at)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRejectBlog(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	author := newTestUser(t, s, "usr-001", "alice", model.UserRoleUser)
	admin := newTestUser(t, s, "usr-adm", "admin", model.UserRoleAdmin)
	b := newTestBlog(t, s, "blog-001", author.ID, time.Now().Truncate(time.Second))

	at := time.Now().Truncate(time.Second)
	require.NoError(t, s.RejectBlog(ctx, b.ID, admin.ID, "off topic", at))

	got, err := s.GetBlog(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BlogStatusRejected, got.Status)
	require.NotNil(t, got.RejectionReason)
	assert.Equal(t, "off topic", *got.RejectionReason)

	err = s.RejectBlog(ctx, b.ID, admin.ID, "again", at)
	assert.ErrorIs(t, err, storage.ErrConflict)
	err = s.ApproveBlog(ctx, b.ID, admin.ID, at)
	assert.ErrorIs(t, err, storage.ErrConflict)
}

// TestApproveClearsRejectionReason 验证二次进入 pending 后审核通过会清除历史拒绝理由
// （pending 回退只可能由运维直接操作数据产生，不经过公开 API）
func TestApproveClearsRejectionReason(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	author := newTestUser(t, s, "usr-001", "alice", model.UserRoleUser)
	admin := newTestUser(t, s, "usr-adm", "admin", model.UserRoleAdmin)
	b := newTestBlog(t, s, "blog-001", author.ID, time.Now().Truncate(time.Second))

	at := time.Now().Truncate(time.Second)
	require.NoError(t, s.RejectBlog(ctx, b.ID, admin.ID, "needs work", at))

	// 直接写库模拟重新提交
	_, err := s.DB().Exec("UPDATE blogs SET status = 'pending' WHERE id = ?", b.ID)
	require.NoError(t, err)

	require.NoError(t, s.ApproveBlog(ctx, b.ID, admin.ID, at.Add(time.Minute)))
	got, _ := s.GetBlog(ctx, b.ID)
	assert.Equal(t, model.BlogStatusApproved, got.Status)
	assert.Nil(t, got.RejectionReason)
}
