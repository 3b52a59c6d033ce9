package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/SpraxDev/NAS-Web/internal/config"
	"github.com/SpraxDev/NAS-Web/internal/handlers"
	"github.com/SpraxDev/NAS-Web/internal/metrics"
	"github.com/SpraxDev/NAS-Web/internal/middlewares"
)

// ShutdownTimeout 为优雅退出时等待进行中请求的最长时间。
const ShutdownTimeout = 10 * time.Second

// NewRouter 构建路由。timings 决定 Server-Timing 中间件是否生效。
func NewRouter(cfg config.Config, db *gorm.DB, timings bool) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	// 计时中间件尽量靠前，使 init 分段覆盖其余中间件
	router.Use(middlewares.ServerTiming(timings, metrics.ObservePhases))
	router.Use(middlewares.RequestID())
	router.Use(middlewares.RequestLogger())
	router.Use(middlewares.SecurityHeaders(cfg))
	router.Use(metrics.Handler())

	handlers.New(cfg, db).RegisterRoutes(router)

	if cfg.Web.ServeStatic {
		if dir := config.FirstExisting("web/static", "resources/web/static"); dir != "" {
			router.Static("/static", dir)
		} else {
			log.Warn("web.serveStatic enabled but no static directory found")
		}
	}
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	})
	return router
}

// Listen 按配置监听。unix socket 模式会创建父目录并移除残留的旧 socket 文件。
func Listen(cfg config.ListenConfig) (net.Listener, error) {
	network, addr := cfg.Network()
	if network == "unix" {
		if err := os.MkdirAll(filepath.Dir(addr), 0o755); err != nil {
			return nil, fmt.Errorf("create socket dir: %w", err)
		}
		if err := os.Remove(addr); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale socket: %w", err)
		}
	}
	ln, err := net.Listen(network, addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s %s: %w", network, addr, err)
	}
	return ln, nil
}

// Serve 在 ln 上提供服务，直到 ctx 结束后优雅退出。
func Serve(ctx context.Context, ln net.Listener, handler http.Handler) error {
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", ln.Addr().String()).Info("starting http server")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
