package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"campus-blog/internal/shared/model"
	"campus-blog/internal/shared/storage"
)

// blogColumns 博客查询列（含作者/审核人 join 出的公开信息）
const blogColumns = `
	b.id, b.title, b.description, b.content, b.category, b.image_caption,
	b.cover_image, b.cover_content_type, b.cover_image_key,
	b.author_id, b.status, b.reviewer_id, b.reviewed_at, b.rejection_reason,
	b.created_at, b.updated_at,
	a.username, a.first_name, a.last_name, a.email,
	rv.username, rv.first_name, rv.last_name, rv.email`

const blogFrom = `
	FROM blogs b
	LEFT JOIN users a ON a.id = b.author_id
	LEFT JOIN users rv ON rv.id = b.reviewer_id`

func scanBlog(row interface{ Scan(...interface{}) error }) (*model.Blog, error) {
	b := &model.Blog{}
	var (
		imageCaption, coverType, coverKey sql.NullString
		coverData                         []byte
		reviewerID, rejectionReason       sql.NullString
		reviewedAt                        sql.NullTime
		aUsername, aFirst, aLast, aEmail  sql.NullString
		rUsername, rFirst, rLast, rEmail  sql.NullString
	)

	err := row.Scan(&b.ID, &b.Title, &b.Description, &b.Content, &b.Category, &imageCaption,
		&coverData, &coverType, &coverKey,
		&b.AuthorID, &b.Status, &reviewerID, &reviewedAt, &rejectionReason,
		&b.CreatedAt, &b.UpdatedAt,
		&aUsername, &aFirst, &aLast, &aEmail,
		&rUsername, &rFirst, &rLast, &rEmail)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	b.ImageCaption = imageCaption.String
	b.CoverImageKey = coverKey.String
	if len(coverData) > 0 {
		b.CoverImage = &model.CoverImage{Data: coverData, ContentType: coverType.String}
	}
	if reviewerID.Valid {
		b.ReviewerID = &reviewerID.String
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		b.ReviewedAt = &t
	}
	if rejectionReason.Valid {
		b.RejectionReason = &rejectionReason.String
	}
	if aUsername.Valid {
		b.Author = &model.UserSummary{
			ID:        b.AuthorID,
			Username:  aUsername.String,
			FirstName: aFirst.String,
			LastName:  aLast.String,
			Email:     aEmail.String,
		}
	}
	if reviewerID.Valid && rUsername.Valid {
		b.Reviewer = &model.UserSummary{
			ID:        reviewerID.String,
			Username:  rUsername.String,
			FirstName: rFirst.String,
			LastName:  rLast.String,
			Email:     rEmail.String,
		}
	}
	return b, nil
}

func (r *Store) queryBlogs(ctx context.Context, query string, args ...interface{}) ([]*model.Blog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blogs := []*model.Blog{}
	for rows.Next() {
		b, err := scanBlog(rows)
		if err != nil {
			return nil, err
		}
		blogs = append(blogs, b)
	}
	return blogs, rows.Err()
}

// CreateBlog 创建博客
func (r *Store) CreateBlog(ctx context.Context, blog *model.Blog) error {
	var coverData []byte
	var coverType sql.NullString
	if blog.CoverImage != nil {
		coverData = blog.CoverImage.Data
		coverType = sql.NullString{String: blog.CoverImage.ContentType, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, r.rebind(
		`INSERT INTO blogs (id, title, description, content, category, image_caption,
		                    cover_image, cover_content_type, cover_image_key,
		                    author_id, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`),
		blog.ID, blog.Title, blog.Description, blog.Content, blog.Category, blog.ImageCaption,
		coverData, coverType, nullIfEmpty(blog.CoverImageKey),
		blog.AuthorID, blog.Status, blog.CreatedAt, blog.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return storage.ErrDuplicate
	}
	return err
}

// GetBlog 获取单篇博客（含作者/审核人公开信息）
func (r *Store) GetBlog(ctx context.Context, id string) (*model.Blog, error) {
	return scanBlog(r.db.QueryRowContext(ctx, r.rebind(
		`SELECT `+blogColumns+blogFrom+` WHERE b.id = $1`), id))
}

// ListBlogs 按状态列出博客，status 为空时返回全部（最新优先）
func (r *Store) ListBlogs(ctx context.Context, status model.BlogStatus) ([]*model.Blog, error) {
	if status == "" {
		return r.queryBlogs(ctx, r.rebind(
			`SELECT `+blogColumns+blogFrom+` ORDER BY b.created_at DESC`))
	}
	return r.queryBlogs(ctx, r.rebind(
		`SELECT `+blogColumns+blogFrom+` WHERE b.status = $1 ORDER BY b.created_at DESC`), status)
}

// ListBlogsByAuthor 列出指定作者的全部博客（不限状态，最新优先）
func (r *Store) ListBlogsByAuthor(ctx context.Context, authorID string) ([]*model.Blog, error) {
	return r.queryBlogs(ctx, r.rebind(
		`SELECT `+blogColumns+blogFrom+` WHERE b.author_id = $1 ORDER BY b.created_at DESC`), authorID)
}

// UpdateBlog 更新博客的可编辑字段
func (r *Store) UpdateBlog(ctx context.Context, id string, update *model.BlogUpdate) error {
	sets := []string{}
	args := []interface{}{}
	n := 1
	add := func(col string, val *string) {
		if val != nil {
			sets = append(sets, fmt.Sprintf("%s = $%d", col, n))
			args = append(args, *val)
			n++
		}
	}
	add("title", update.Title)
	add("description", update.Description)
	add("content", update.Content)
	add("category", update.Category)
	add("image_caption", update.ImageCaption)
	if len(sets) == 0 {
		return nil
	}

	query := "UPDATE blogs SET "
	for i, s := range sets {
		if i > 0 {
			query += ", "
		}
		query += s
	}
	query += fmt.Sprintf(", updated_at = %s WHERE id = $%d", r.dialect.CurrentTimestamp(), n)
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, r.rebind(query), args...)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteBlog 删除博客
func (r *Store) DeleteBlog(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.rebind(`DELETE FROM blogs WHERE id = $1`), id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ApproveBlog 审核通过：pending -> approved
//
// 条件写：WHERE status = 'pending' 保证两个并发审核不会同时成功。
// 通过的同时清除历史拒绝理由。
func (r *Store) ApproveBlog(ctx context.Context, id, reviewerID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, r.rebind(
		`UPDATE blogs
		 SET status = $1, reviewer_id = $2, reviewed_at = $3,
		     rejection_reason = NULL, updated_at = $4
		 WHERE id = $5 AND status = $6`),
		model.BlogStatusApproved, reviewerID, at, at, id, model.BlogStatusPending,
	)
	if err != nil {
		return err
	}
	return r.reviewOutcome(ctx, res, id)
}

// RejectBlog 审核拒绝：pending -> rejected
func (r *Store) RejectBlog(ctx context.Context, id, reviewerID, reason string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, r.rebind(
		`UPDATE blogs
		 SET status = $1, reviewer_id = $2, reviewed_at = $3,
		     rejection_reason = $4, updated_at = $5
		 WHERE id = $6 AND status = $7`),
		model.BlogStatusRejected, reviewerID, at, reason, at, id, model.BlogStatusPending,
	)
	if err != nil {
		return err
	}
	return r.reviewOutcome(ctx, res, id)
}

// reviewOutcome 条件写未命中时区分 NotFound 和 Conflict
// 该判定读不在条件写的原子范围内，只用于错误分类
func (r *Store) reviewOutcome(ctx context.Context, res sql.Result, id string) error {
	if affected, _ := res.RowsAffected(); affected > 0 {
		return nil
	}
	var exists int
	err := r.db.QueryRowContext(ctx, r.rebind(
		`SELECT 1 FROM blogs WHERE id = $1`), id).Scan(&exists)
	if err == sql.ErrNoRows {
		return storage.ErrNotFound
	}
	if err != nil {
		return err
	}
	return storage.ErrConflict
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
