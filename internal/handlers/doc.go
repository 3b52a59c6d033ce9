// Package handlers 暴露 HTTP 层接口，负责路由注册与输入/输出转换。
package handlers
