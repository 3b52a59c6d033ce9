// Package storage 提供可选的 PostgreSQL 连接（基于 GORM），仅在配置 postgreSQL.enabled=true 时建立。
package storage
