package blog

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"campus-blog/internal/apiserver/auth"
	"campus-blog/internal/shared/model"
	"campus-blog/internal/shared/storage"
)

// ============================================================================
// 管理员审核接口
// ============================================================================

type rejectRequest struct {
	Reason string `json:"reason"`
}

// AdminList 列出全部博客，支持 ?status= 过滤（管理员）
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !model.ValidBlogStatus(status) {
		writeError(w, http.StatusBadRequest, "invalid status filter")
		return
	}

	blogs, err := h.store.ListBlogs(r.Context(), model.BlogStatus(status))
	if err != nil {
		log.Printf("[blog.admin] ListBlogs error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list blogs")
		return
	}
	writeJSON(w, http.StatusOK, blogs)
}

// AdminListPending 列出待审核博客（管理员）
func (h *Handler) AdminListPending(w http.ResponseWriter, r *http.Request) {
	blogs, err := h.store.ListBlogs(r.Context(), model.BlogStatusPending)
	if err != nil {
		log.Printf("[blog.admin] ListBlogs error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list blogs")
		return
	}
	writeJSON(w, http.StatusOK, blogs)
}

// Approve 审核通过（管理员）
//
// 只允许从 pending 状态出发，并发审核只有一个能成功；
// 通过时清除历史拒绝理由，记录审核人和审核时间。
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	reviewer := auth.GetAuthUser(r.Context())
	id := r.PathValue("id")

	err := h.store.ApproveBlog(r.Context(), id, reviewer.ID, time.Now())
	if err != nil {
		h.writeReviewError(w, id, err)
		return
	}

	blog, err := h.store.GetBlog(r.Context(), id)
	if err != nil || blog == nil {
		writeError(w, http.StatusInternalServerError, "failed to load reviewed blog")
		return
	}

	if h.metrics != nil {
		h.metrics.RecordReview(string(model.BlogStatusApproved))
	}
	log.Printf("[blog.admin] Blog approved: %s by %s", id, reviewer.Username)
	writeJSON(w, http.StatusOK, blog)
}

// Reject 审核拒绝（管理员）
// 请求体可带 {"reason": "..."}，缺省时使用默认理由
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	reviewer := auth.GetAuthUser(r.Context())
	id := r.PathValue("id")

	// 请求体可选：空请求体按未提供理由处理，但给了就必须是合法 JSON
	var req rejectRequest
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	reason := req.Reason
	if reason == "" {
		reason = model.DefaultRejectionReason
	}

	if err := h.store.RejectBlog(r.Context(), id, reviewer.ID, reason, time.Now()); err != nil {
		h.writeReviewError(w, id, err)
		return
	}

	blog, err := h.store.GetBlog(r.Context(), id)
	if err != nil || blog == nil {
		writeError(w, http.StatusInternalServerError, "failed to load reviewed blog")
		return
	}

	if h.metrics != nil {
		h.metrics.RecordReview(string(model.BlogStatusRejected))
	}
	log.Printf("[blog.admin] Blog rejected: %s by %s (%s)", id, reviewer.Username, reason)
	writeJSON(w, http.StatusOK, blog)
}

// AdminDelete 删除任意博客（管理员）
func (h *Handler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	blog, err := h.store.GetBlog(r.Context(), id)
	if err != nil {
		log.Printf("[blog.admin] GetBlog error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if blog == nil {
		writeError(w, http.StatusNotFound, "blog not found")
		return
	}
	h.deleteBlog(w, r, blog)
}

// writeReviewError 将审核条件写的存储层错误映射到 HTTP 响应
func (h *Handler) writeReviewError(w http.ResponseWriter, id string, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "blog not found")
	case errors.Is(err, storage.ErrConflict):
		writeError(w, http.StatusConflict, "blog has already been reviewed")
	default:
		log.Printf("[blog.admin] review %s error: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to review blog")
	}
}
