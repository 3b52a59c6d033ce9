// Package timing 提供单请求级别的分段计时器，并将结果渲染为标准的 Server-Timing 响应头。
// Recorder 仅被处理该请求的单一流程访问，不加锁、不做 I/O。
package timing
