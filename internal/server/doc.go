// Package server 组装 Gin 路由与中间件链，并负责监听（TCP 或 unix socket）与优雅退出。
package server
