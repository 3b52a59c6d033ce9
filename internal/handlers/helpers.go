package handlers

import "github.com/gin-gonic/gin"

// requestHost 优先使用反向代理头 X-Forwarded-Host 推导请求主机名。
func requestHost(c *gin.Context) string {
	if host := c.GetHeader("X-Forwarded-Host"); host != "" {
		return host
	}
	return c.Request.Host
}
