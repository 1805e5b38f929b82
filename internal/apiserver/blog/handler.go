// Package blog 实现博客文章的 HTTP 接口
//
// 路由分三组：
//   - 公开读：已发布（approved）博客的列表/详情/封面图，无需认证
//   - 作者操作：创建、编辑、删除、查看自己的全部博客
//   - 管理员审核：见 admin.go
package blog

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"campus-blog/internal/apiserver/auth"
	"campus-blog/internal/shared/model"
	"campus-blog/internal/shared/objstore"
	"campus-blog/internal/shared/storage"
)

// MaxCoverSize 封面图大小上限（8 MiB）
const MaxCoverSize = 8 << 20

// BlogStore 博客存储接口
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

// MetricsRecorder 领域指标上报接口（由 server 包的 Prometheus 指标实现）
type MetricsRecorder interface {
	RecordReview(decision string)
	RecordCoverUpload()
}

// Handler 博客 HTTP 处理器
type Handler struct {
	store   BlogStore
	covers  *objstore.Client // 可为 nil（未配置对象存储时封面图内嵌）
	metrics MetricsRecorder  // 可为 nil
}

// NewHandler 创建博客处理器
func NewHandler(store BlogStore, covers *objstore.Client) *Handler {
	return &Handler{store: store, covers: covers}
}

// SetMetrics 注入领域指标上报
func (h *Handler) SetMetrics(m MetricsRecorder) {
	h.metrics = m
}

// RegisterRoutes 注册博客相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// 公开读
	mux.HandleFunc("GET /api/v1/blogs", h.ListPublished)
	mux.HandleFunc("GET /api/v1/blogs/{id}", h.GetPublished)
	mux.HandleFunc("GET /api/v1/blogs/{id}/cover", h.GetCover)

	// 作者操作
	mux.HandleFunc("POST /api/v1/blogs", h.Create)
	mux.HandleFunc("PUT /api/v1/blogs/{id}", h.Update)
	mux.HandleFunc("DELETE /api/v1/blogs/{id}", h.Delete)
	mux.HandleFunc("GET /api/v1/user/blogs", h.ListMine)

	// 管理员审核
	mux.HandleFunc("GET /api/v1/admin/blogs", auth.AdminOnly(h.AdminList))
	mux.HandleFunc("GET /api/v1/admin/blogs/pending", auth.AdminOnly(h.AdminListPending))
	mux.HandleFunc("PUT /api/v1/admin/blogs/{id}/approve", auth.AdminOnly(h.Approve))
	mux.HandleFunc("PUT /api/v1/admin/blogs/{id}/reject", auth.AdminOnly(h.Reject))
	mux.HandleFunc("DELETE /api/v1/admin/blogs/{id}", auth.AdminOnly(h.AdminDelete))
}

// ============================================================================
// 公开读
// ============================================================================

// ListPublished 列出已发布博客（公开，按创建时间倒序）
func (h *Handler) ListPublished(w http.ResponseWriter, r *http.Request) {
	blogs, err := h.store.ListBlogs(r.Context(), model.BlogStatusApproved)
	if err != nil {
		log.Printf("[blog] ListBlogs error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list blogs")
		return
	}
	writeJSON(w, http.StatusOK, blogs)
}

// GetPublished 获取单篇已发布博客（公开）
// 未发布（pending/rejected）的博客对公开接口表现为不存在
func (h *Handler) GetPublished(w http.ResponseWriter, r *http.Request) {
	blog, err := h.store.GetBlog(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[blog] GetBlog error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if blog == nil || blog.Status != model.BlogStatusApproved {
		writeError(w, http.StatusNotFound, "blog not found")
		return
	}
	writeJSON(w, http.StatusOK, blog)
}

// GetCover 获取博客封面图（公开，仅已发布博客）
// 封面图来源二选一：对象存储（CoverImageKey）或内嵌二进制
func (h *Handler) GetCover(w http.ResponseWriter, r *http.Request) {
	blog, err := h.store.GetBlog(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[blog] GetBlog error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if blog == nil || blog.Status != model.BlogStatusApproved || !blog.HasCover() {
		writeError(w, http.StatusNotFound, "cover image not found")
		return
	}

	if blog.CoverImageKey != "" && h.covers != nil {
		rc, contentType, err := h.covers.DownloadCover(r.Context(), blog.CoverImageKey)
		if err != nil {
			log.Printf("[blog] DownloadCover error: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to load cover image")
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", contentType)
		io.Copy(w, rc)
		return
	}

	w.Header().Set("Content-Type", blog.CoverImage.ContentType)
	w.Write(blog.CoverImage.Data)
}

// ============================================================================
// 作者操作
// ============================================================================

type createRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Content      string `json:"content"`
	Category     string `json:"category"`
	ImageCaption string `json:"image_caption"`
}

// Create 创建博客
//
// 支持两种请求体：
//   - multipart/form-data：表单字段 + 可选封面图文件（字段名 image）
//   - application/json：纯文本字段
//
// 作者取自调用方身份，状态固定为 pending。
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAuthUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "access token required")
		return
	}

	var req createRequest
	var cover *model.CoverImage

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(MaxCoverSize); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		req.Title = r.FormValue("title")
		req.Description = r.FormValue("description")
		req.Content = r.FormValue("content")
		req.Category = r.FormValue("category")
		req.ImageCaption = r.FormValue("image_caption")

		var err error
		cover, err = readCoverFile(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	if req.Title == "" || req.Description == "" || req.Content == "" || req.Category == "" {
		writeError(w, http.StatusBadRequest, "title, description, content, category are required")
		return
	}

	now := time.Now()
	blog := &model.Blog{
		ID:           generateID("blog"),
		Title:        req.Title,
		Description:  req.Description,
		Content:      req.Content,
		Category:     req.Category,
		ImageCaption: req.ImageCaption,
		AuthorID:     user.ID,
		Status:       model.BlogStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if cover != nil {
		if h.covers != nil {
			key, err := h.covers.UploadCover(r.Context(), cover.Data, cover.ContentType)
			if err != nil {
				log.Printf("[blog] UploadCover error: %v", err)
				writeError(w, http.StatusInternalServerError, "failed to store cover image")
				return
			}
			blog.CoverImageKey = key
		} else {
			blog.CoverImage = cover
		}
	}

	if err := h.store.CreateBlog(r.Context(), blog); err != nil {
		log.Printf("[blog] CreateBlog error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create blog")
		return
	}

	// 封面图只有随博客一起落库成功才计数
	if cover != nil && h.metrics != nil {
		h.metrics.RecordCoverUpload()
	}

	blog.Author = user.Summary()
	log.Printf("[blog] Blog created: %s by %s", blog.ID, user.Username)
	writeJSON(w, http.StatusCreated, blog)
}

// Update 编辑博客（作者本人或管理员）
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAuthUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "access token required")
		return
	}

	id := r.PathValue("id")
	blog, err := h.store.GetBlog(r.Context(), id)
	if err != nil {
		log.Printf("[blog] GetBlog error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if blog == nil {
		writeError(w, http.StatusNotFound, "blog not found")
		return
	}
	if blog.AuthorID != user.ID && !user.IsAdmin() {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	var update model.BlogUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if update.Empty() {
		writeError(w, http.StatusBadRequest, "no fields to update")
		return
	}

	if err := h.store.UpdateBlog(r.Context(), id, &update); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "blog not found")
			return
		}
		log.Printf("[blog] UpdateBlog error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update blog")
		return
	}

	updated, err := h.store.GetBlog(r.Context(), id)
	if err != nil || updated == nil {
		writeError(w, http.StatusInternalServerError, "failed to load updated blog")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete 删除博客（作者本人或管理员）
// 配置了对象存储时尽力清理封面图，清理失败不阻塞删除
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAuthUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "access token required")
		return
	}

	id := r.PathValue("id")
	blog, err := h.store.GetBlog(r.Context(), id)
	if err != nil {
		log.Printf("[blog] GetBlog error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if blog == nil {
		writeError(w, http.StatusNotFound, "blog not found")
		return
	}
	if blog.AuthorID != user.ID && !user.IsAdmin() {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	h.deleteBlog(w, r, blog)
}

func (h *Handler) deleteBlog(w http.ResponseWriter, r *http.Request, blog *model.Blog) {
	if err := h.store.DeleteBlog(r.Context(), blog.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "blog not found")
			return
		}
		log.Printf("[blog] DeleteBlog error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to delete blog")
		return
	}

	if blog.CoverImageKey != "" && h.covers != nil {
		if err := h.covers.DeleteCover(r.Context(), blog.CoverImageKey); err != nil {
			log.Printf("[blog] DeleteCover %s error: %v", blog.CoverImageKey, err)
		}
	}

	log.Printf("[blog] Blog deleted: %s", blog.ID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "blog deleted"})
}

// ListMine 列出当前用户的全部博客（含 pending/rejected）
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAuthUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "access token required")
		return
	}

	blogs, err := h.store.ListBlogsByAuthor(r.Context(), user.ID)
	if err != nil {
		log.Printf("[blog] ListBlogsByAuthor error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list blogs")
		return
	}
	writeJSON(w, http.StatusOK, blogs)
}

// ============================================================================
// 工具函数
// ============================================================================

// readCoverFile 从 multipart 表单中读取封面图（字段名 image，可选）
// 仅接受 image/* 类型，大小上限 MaxCoverSize
func readCoverFile(r *http.Request) (*model.CoverImage, error) {
	file, header, err := r.FormFile("image")
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("invalid cover file")
	}
	defer file.Close()

	if header.Size > MaxCoverSize {
		return nil, fmt.Errorf("cover image exceeds 8 MiB limit")
	}

	data, err := io.ReadAll(io.LimitReader(file, MaxCoverSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read cover file")
	}
	if len(data) > MaxCoverSize {
		return nil, fmt.Errorf("cover image exceeds 8 MiB limit")
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("cover must be an image")
	}

	return &model.CoverImage{Data: data, ContentType: contentType}, nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// generateID 生成随机 ID，如 blog-a1b2c3d4e5f6
func generateID(prefix string) string {
	b := make([]byte, 6)
	rand.Read(b)
	return fmt.Sprintf("%s-%s", prefix, hex.EncodeToString(b))
}
