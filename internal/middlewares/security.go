package middlewares

import (
	"github.com/gin-gonic/gin"

	"github.com/SpraxDev/NAS-Web/internal/config"
)

// hstsValue 对外发布 HTTPS 地址时使用的 Strict-Transport-Security 值（一年）。
const hstsValue = "max-age=31536000; includeSubDomains"

// SecurityHeaders 设置通用的安全相关响应头（受配置控制）。
func SecurityHeaders(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "no-referrer")
		// 对外地址为 HTTPS（直连或反代）时才设置 HSTS。
		if cfg.Web.URLPrefix.HTTPS && (c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https") {
			c.Header("Strict-Transport-Security", hstsValue)
		}
		c.Next()
	}
}
