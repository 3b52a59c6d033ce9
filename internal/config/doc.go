// Package config 负责加载进程配置：以内置默认值为底，合并 JSON/YAML 配置文件，并把合并结果写回文件。
// Config 只包含值类型字段，按值传递即不可变；该层不依赖 HTTP 等其它组件。
package config
