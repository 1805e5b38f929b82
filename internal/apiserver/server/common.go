// Package server 路由配置与核心基础设施
//
// 本包是所有 HTTP API 的入口，负责：
//   - 组装各领域包的路由（auth、blog）
//   - 管理存储层和对象存储连接
//   - Prometheus 指标与中间件
//
// 文件组织：
//   - common.go: Handler 定义和通用工具函数
//   - handler.go: 路由配置
//   - metrics.go: Prometheus 指标
package server

import (
	"encoding/json"
	"net/http"

	"campus-blog/internal/apiserver/auth"
	"campus-blog/internal/shared/objstore"
	"campus-blog/internal/shared/storage"
)

// Handler API 处理器
//
// 依赖说明：
//   - store: 持久化存储（MongoDB 或 SQLite，启动时注入）
//   - covers: 封面图对象存储客户端，未配置时为 nil（封面图内嵌存储）
type Handler struct {
	store  storage.PersistentStore
	covers *objstore.Client

	authConfig auth.Config
	metrics    *Metrics
}

// NewHandler 创建 Handler 实例
func NewHandler(store storage.PersistentStore, covers *objstore.Client, authCfg auth.Config) *Handler {
	return &Handler{
		store:      store,
		covers:     covers,
		authConfig: authCfg,
		metrics:    NewMetrics("api"),
	}
}

// GetMetrics 返回指标实例
func (h *Handler) GetMetrics() *Metrics {
	return h.metrics
}

// writeJSON 将数据以 JSON 格式写入 HTTP 响应
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Health 健康检查接口
//
// 路由: GET /health
//
// 用于负载均衡器和监控系统检查服务状态。
// 返回 {"status": "ok"} 表示服务正常运行。
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
