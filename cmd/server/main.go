package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/SpraxDev/NAS-Web/internal/config"
	"github.com/SpraxDev/NAS-Web/internal/server"
	"github.com/SpraxDev/NAS-Web/internal/storage"
)

var (
	cfgPath  string
	logLevel string
	timings  bool
)

var rootCmd = &cobra.Command{
	Use:           "nas-web",
	Short:         "NAS-Web HTTP server",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 配置结构化日志格式
		log.SetFormatter(&log.JSONFormatter{TimestampFormat: time.RFC3339Nano})
		log.SetOutput(os.Stdout)
		lvl, err := log.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}
		log.SetLevel(lvl)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load configuration and start the HTTP server",
	RunE:  runServe,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration with secrets masked",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(cfg.Masked())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultPath, "path of the JSON/YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	serveCmd.Flags().BoolVar(&timings, "timings", false, "emit Server-Timing response headers")
	rootCmd.AddCommand(serveCmd, configCmd)
}

// runServe 为服务入口：加载配置、初始化存储、注册路由并启动 HTTP 服务。
func runServe(cmd *cobra.Command, args []string) error {
	// 配置必须在处理任何请求之前完整加载
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	network, addr := cfg.Web.Listen.Network()
	log.WithFields(log.Fields{
		"config":       cfgPath,
		"listen":       network + ":" + addr,
		"serve_static": cfg.Web.ServeStatic,
		"postgresql":   cfg.PostgreSQL.Enabled,
		"postgres_dsn": cfg.PostgreSQL.DSNMasked(),
		"timings":      timings,
	}).Info("configuration loaded")

	db, err := storage.InitPostgres(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to connect postgresql")
	}
	defer storage.ClosePostgres(db)

	if log.GetLevel() < log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	router := server.NewRouter(cfg, db, timings)

	ln, err := server.Listen(cfg.Web.Listen)
	if err != nil {
		log.WithError(err).Fatal("listen")
	}

	// 优雅退出
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return server.Serve(ctx, ln, router)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Error("command failed")
		os.Exit(1)
	}
}
