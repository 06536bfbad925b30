/*
 * @module api/middleware/apikey_auth
 * @description API Key鉴权中间件，校验请求头中的API Key
 * @architecture 中间件模式 - HTTP请求拦截和验证
 * @documentReference dev_docs/assessment_design.md
 * @stateFlow Key提取 -> bcrypt比对 -> 下一个处理器
 * @rules 未配置API_KEY_HASH时鉴权关闭；白名单路径不鉴权
 * @dependencies golang.org/x/crypto/bcrypt, github.com/go-chi/render
 * @refs api/routes.go
 */

package middleware

import (
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/render"
	"golang.org/x/crypto/bcrypt"
)

// APIKeyHeader 携带API Key的请求头
const APIKeyHeader = "X-API-Key"

// APIKeyAuthMiddleware API Key鉴权中间件
type APIKeyAuthMiddleware struct {
	// keyHash bcrypt哈希后的API Key，空时鉴权关闭
	keyHash        string
	whitelistPaths []string
}

// NewAPIKeyAuthMiddleware 创建API Key鉴权中间件实例
// API Key哈希从API_KEY_HASH环境变量读取
func NewAPIKeyAuthMiddleware() *APIKeyAuthMiddleware {
	return &APIKeyAuthMiddleware{
		keyHash: os.Getenv("API_KEY_HASH"),
		whitelistPaths: []string{
			"/health",
			"/ready",
			"/metrics",
			"/swagger",
		},
	}
}

// Handler 中间件处理函数
func (m *APIKeyAuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.keyHash == "" || m.isWhitelisted(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get(APIKeyHeader)
		if key == "" {
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, map[string]interface{}{
				"status": http.StatusUnauthorized,
				"msg":    "缺少API Key",
			})
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(m.keyHash), []byte(key)); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, map[string]interface{}{
				"status": http.StatusUnauthorized,
				"msg":    "API Key无效",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// isWhitelisted 判断路径是否在白名单中
func (m *APIKeyAuthMiddleware) isWhitelisted(path string) bool {
	for _, prefix := range m.whitelistPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
