package server

import (
	"net/http"

	"campus-blog/internal/apiserver/auth"
	"campus-blog/internal/apiserver/blog"
)

// Router 返回配置好的 HTTP 路由
//
// 路由规则：
//
// 健康检查:
//   - GET /health - 服务健康检查
//
// 认证与用户 (Auth):
//   - POST /api/v1/auth/register       - 用户注册
//   - POST /api/v1/auth/login          - 用户登录
//   - GET  /api/v1/auth/profile        - 当前用户信息
//   - PUT  /api/v1/auth/password       - 修改当前用户密码
//   - GET  /api/v1/auth/users          - 列出用户（管理员）
//   - GET  /api/v1/auth/users/{id}     - 获取用户（管理员或本人）
//   - PUT  /api/v1/auth/users/{id}/role - 更新角色（管理员）
//
// 博客 (Blog):
//   - GET    /api/v1/blogs             - 列出已发布博客（公开）
//   - GET    /api/v1/blogs/{id}        - 获取已发布博客（公开）
//   - GET    /api/v1/blogs/{id}/cover  - 获取封面图（公开）
//   - POST   /api/v1/blogs             - 创建博客（登录用户）
//   - PUT    /api/v1/blogs/{id}        - 编辑博客（作者或管理员）
//   - DELETE /api/v1/blogs/{id}        - 删除博客（作者或管理员）
//   - GET    /api/v1/user/blogs        - 当前用户的全部博客
//
// 审核 (Admin):
//   - GET    /api/v1/admin/blogs               - 列出全部博客，支持 ?status=
//   - GET    /api/v1/admin/blogs/pending       - 列出待审核博客
//   - PUT    /api/v1/admin/blogs/{id}/approve  - 审核通过
//   - PUT    /api/v1/admin/blogs/{id}/reject   - 审核拒绝
//   - DELETE /api/v1/admin/blogs/{id}          - 删除任意博客
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// 健康检查
	mux.HandleFunc("GET /health", h.Health)

	// Prometheus 指标端点
	mux.Handle("GET /metrics", MetricsHandler())

	// Auth 路由
	authHandler := auth.NewHandler(h.store, h.authConfig)
	authHandler.RegisterRoutes(mux)

	// Blog 路由（含管理员审核接口）
	blogHandler := blog.NewHandler(h.store, h.covers)
	blogHandler.SetMetrics(h.metrics)
	blogHandler.RegisterRoutes(mux)

	// 应用指标中间件
	apiHandler := h.metrics.MetricsMiddleware(mux)

	// 应用认证中间件（公开路由在中间件内白名单放行）
	authedHandler := auth.Middleware(h.authConfig, h.store)(apiHandler)

	// 应用 CORS 中间件
	return corsMiddleware(authedHandler)
}

// corsMiddleware 添加 CORS 头支持跨域请求
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
