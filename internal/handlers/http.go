package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/SpraxDev/NAS-Web/internal/config"
	"github.com/SpraxDev/NAS-Web/internal/metrics"
	"github.com/SpraxDev/NAS-Web/internal/middlewares"
	"github.com/SpraxDev/NAS-Web/internal/storage"
)

// Handler 聚合路由所需的依赖（配置、可选数据库）。
type Handler struct {
	cfg config.Config
	db  *gorm.DB
}

// New 构造 Handler；db 为 nil 表示未启用数据库。
func New(cfg config.Config, db *gorm.DB) *Handler {
	return &Handler{cfg: cfg, db: db}
}

// RegisterRoutes 挂载运维端点与 API。
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/healthz", h.healthz)
	r.GET("/metrics", h.metrics)
	r.GET("/api/urls", h.urls)
}

func (h *Handler) metrics(c *gin.Context) { metrics.Exposer()(c) }

// healthz 报告进程与数据库状态；数据库探测计为单独的 Server-Timing 分段。
func (h *Handler) healthz(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "disabled"})
		return
	}
	tm := middlewares.Timings(c)
	tm.StartNext("db", "ping")
	err := storage.Ping(c.Request.Context(), h.db)
	tm.StartNext("respond", "")
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "ok"})
}

// urls 返回按配置推导出的动态/静态内容地址前缀。
func (h *Handler) urls(c *gin.Context) {
	host := requestHost(c)
	p := h.cfg.Web.URLPrefix
	c.JSON(http.StatusOK, gin.H{
		"dynamic": p.DynamicPrefix(host),
		"static":  p.StaticPrefix(host),
	})
}
