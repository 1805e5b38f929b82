package mongostore

import (
	"context"
	"time"

	"campus-blog/internal/shared/model"
	"campus-blog/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// BlogStore
// ============================================================================

func (s *Store) CreateBlog(ctx context.Context, blog *model.Blog) error {
	return insertOne(ctx, s.col(ColBlogs), blog)
}

func (s *Store) GetBlog(ctx context.Context, id string) (*model.Blog, error) {
	blog, err := findOne[model.Blog](ctx, s.col(ColBlogs), bson.D{{Key: "_id", Value: id}})
	if err != nil || blog == nil {
		return blog, err
	}
	if err := s.attachUsers(ctx, []*model.Blog{blog}); err != nil {
		return nil, err
	}
	return blog, nil
}

func (s *Store) ListBlogs(ctx context.Context, status model.BlogStatus) ([]*model.Blog, error) {
	filter := bson.D{}
	if status != "" {
		filter = bson.D{{Key: "status", Value: status}}
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	blogs, err := findMany[model.Blog](ctx, s.col(ColBlogs), filter, opts)
	if err != nil {
		return nil, err
	}
	if err := s.attachUsers(ctx, blogs); err != nil {
		return nil, err
	}
	return blogs, nil
}

func (s *Store) ListBlogsByAuthor(ctx context.Context, authorID string) ([]*model.Blog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	blogs, err := findMany[model.Blog](ctx, s.col(ColBlogs), bson.D{{Key: "author_id", Value: authorID}}, opts)
	if err != nil {
		return nil, err
	}
	if err := s.attachUsers(ctx, blogs); err != nil {
		return nil, err
	}
	return blogs, nil
}

func (s *Store) UpdateBlog(ctx context.Context, id string, update *model.BlogUpdate) error {
	fields := bson.D{}
	add := func(key string, val *string) {
		if val != nil {
			fields = append(fields, bson.E{Key: key, Value: *val})
		}
	}
	add("title", update.Title)
	add("description", update.Description)
	add("content", update.Content)
	add("category", update.Category)
	add("image_caption", update.ImageCaption)
	if len(fields) == 0 {
		return nil
	}
	fields = append(fields, bson.E{Key: "updated_at", Value: time.Now()})
	return updateFields(ctx, s.col(ColBlogs), id, fields)
}

func (s *Store) DeleteBlog(ctx context.Context, id string) error {
	return deleteByID(ctx, s.col(ColBlogs), id)
}

// ApproveBlog 审核通过：pending -> approved
//
// 条件更新（filter 带 status=pending），文档级原子，
// 两个并发审核请求不可能同时命中。通过时 $unset 清除历史拒绝理由。
func (s *Store) ApproveBlog(ctx context.Context, id, reviewerID string, at time.Time) error {
	res, err := s.col(ColBlogs).UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "status", Value: model.BlogStatusPending}},
		bson.D{
			{Key: "$set", Value: bson.D{
				{Key: "status", Value: model.BlogStatusApproved},
				{Key: "reviewer_id", Value: reviewerID},
				{Key: "reviewed_at", Value: at},
				{Key: "updated_at", Value: at},
			}},
			{Key: "$unset", Value: bson.D{{Key: "rejection_reason", Value: ""}}},
		})
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 {
		return s.reviewOutcome(ctx, id)
	}
	return nil
}

// RejectBlog 审核拒绝：pending -> rejected
func (s *Store) RejectBlog(ctx context.Context, id, reviewerID, reason string, at time.Time) error {
	res, err := s.col(ColBlogs).UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "status", Value: model.BlogStatusPending}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "status", Value: model.BlogStatusRejected},
			{Key: "reviewer_id", Value: reviewerID},
			{Key: "reviewed_at", Value: at},
			{Key: "rejection_reason", Value: reason},
			{Key: "updated_at", Value: at},
		}}})
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 {
		return s.reviewOutcome(ctx, id)
	}
	return nil
}

// reviewOutcome 条件更新未命中时区分 NotFound 和 Conflict
// 该判定读不在条件更新的原子范围内，只用于错误分类
func (s *Store) reviewOutcome(ctx context.Context, id string) error {
	count, err := s.col(ColBlogs).CountDocuments(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return wrapError(err)
	}
	if count == 0 {
		return storage.ErrNotFound
	}
	return storage.ErrConflict
}

// attachUsers 读取时 join：批量查出作者/审核人并内嵌公开信息
// 反范式化视图在存储层完成，审核状态机逻辑不感知 join
func (s *Store) attachUsers(ctx context.Context, blogs []*model.Blog) error {
	if len(blogs) == 0 {
		return nil
	}

	idSet := map[string]bool{}
	for _, b := range blogs {
		idSet[b.AuthorID] = true
		if b.ReviewerID != nil {
			idSet[*b.ReviewerID] = true
		}
	}
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	users, err := findMany[model.User](ctx, s.col(ColUsers),
		bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
	if err != nil {
		return err
	}
	byID := make(map[string]*model.UserSummary, len(users))
	for _, u := range users {
		byID[u.ID] = u.Summary()
	}

	for _, b := range blogs {
		b.Author = byID[b.AuthorID]
		if b.ReviewerID != nil {
			b.Reviewer = byID[*b.ReviewerID]
		}
	}
	return nil
}
