package auth

import (
	"log"
	"net/http"
	"strings"

	"campus-blog/internal/shared/model"
)

// 免认证路由白名单（前缀匹配）
var publicPrefixes = []string{
	"/api/v1/auth/register",
	"/api/v1/auth/login",
	"/health",
	"/metrics",
}

func isPublicRoute(method, path string) bool {
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	// 公开读：已发布博客的列表/详情/封面图（GET /api/v1/blogs...）
	// 同一路径的 POST/PUT/DELETE 仍需认证
	if method == http.MethodGet && (path == "/api/v1/blogs" || strings.HasPrefix(path, "/api/v1/blogs/")) {
		return true
	}
	return false
}

// Middleware 创建 JWT 认证中间件
//
// 认证流程：提取 Bearer Token → 验证签名/有效期 → 按 Subject
// 从存储解析完整用户记录并注入 context。角色判断一律基于
// 解析出的存储记录，而非令牌内容。
func Middleware(cfg Config, users UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 公开路由：直接放行
			if isPublicRoute(r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			// 提取 Bearer Token
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "access token required")
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				writeError(w, http.StatusUnauthorized, "access token required")
				return
			}

			// 解析 JWT
			claims, err := ParseToken(cfg, parts[1])
			if err != nil {
				log.Printf("[auth] token parse error: %v", err)
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			// 解析完整用户记录（用户可能已不存在）
			user, err := users.GetUserByID(r.Context(), claims.Subject)
			if err != nil {
				log.Printf("[auth] GetUserByID error: %v", err)
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if user == nil {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAuthUser(r.Context(), user)))
		})
	}
}

// AdminOnly 管理员专属路由装饰器
// 必须在 Middleware 之后生效（认证先于角色检查）
func AdminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := GetAuthUser(r.Context())
		if user == nil || user.Role != model.UserRoleAdmin {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		next(w, r)
	}
}

// AdminOrSelf 管理员或本人专属路由装饰器
// param 为路径参数名（如 "id"），与认证用户 ID 比对
func AdminOrSelf(param string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := GetAuthUser(r.Context())
		if user == nil {
			writeError(w, http.StatusForbidden, "access denied")
			return
		}
		if user.Role != model.UserRoleAdmin && user.ID != r.PathValue(param) {
			writeError(w, http.StatusForbidden, "access denied")
			return
		}
		next(w, r)
	}
}
