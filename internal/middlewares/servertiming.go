package middlewares

// 本中间件为每个请求创建 timing.Recorder，并在响应体首次发送前写入 Server-Timing 响应头。

import (
	"github.com/gin-gonic/gin"

	"github.com/SpraxDev/NAS-Web/internal/timing"
)

// TimingsKey 为 Recorder 在 Gin Context 中的键。
const TimingsKey = "timings"

// ServerTiming 返回计时中间件。enabled=false 时为纯透传，不创建 Recorder。
// observers 在响应头写入后收到最终分段。
func ServerTiming(enabled bool, observers ...timing.Observer) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		rec := timing.New()
		c.Set(TimingsKey, rec)
		c.Request = c.Request.WithContext(timing.NewContext(c.Request.Context(), rec))

		w := &timingWriter{ResponseWriter: c.Writer, rec: rec, observers: observers}
		w.restore = func() {
			// 仅当没有其它中间件再次包装时才还原
			if c.Writer == w {
				c.Writer = w.ResponseWriter
			}
		}
		c.Writer = w
		c.Next()

		// 处理器未写出任何内容（如 204）时，响应头由引擎在链路结束后提交
		if !w.ResponseWriter.Written() {
			w.finalize()
		}
		w.restore()
	}
}

// Timings 返回当前请求的 Recorder；计时未开启时返回 nil，其方法可安全调用。
func Timings(c *gin.Context) *timing.Recorder {
	v, ok := c.Get(TimingsKey)
	if !ok {
		return nil
	}
	rec, _ := v.(*timing.Recorder)
	return rec
}

// timingWriter 在第一次发送时写入响应头，随后还原为原始 writer 并委托。
// fired 保证即便处理器持有本包装器的引用，响应头也只写一次。
type timingWriter struct {
	gin.ResponseWriter
	rec       *timing.Recorder
	observers []timing.Observer
	restore   func()
	fired     bool
}

func (w *timingWriter) finalize() {
	if w.fired {
		return
	}
	w.fired = true
	w.ResponseWriter.Header().Set(timing.HeaderName, w.rec.Render())
	w.restore()
	if len(w.observers) > 0 {
		segs := w.rec.Segments()
		for _, o := range w.observers {
			o(segs)
		}
	}
}

func (w *timingWriter) Write(b []byte) (int, error) {
	w.finalize()
	return w.ResponseWriter.Write(b)
}

func (w *timingWriter) WriteString(s string) (int, error) {
	w.finalize()
	return w.ResponseWriter.WriteString(s)
}

func (w *timingWriter) WriteHeaderNow() {
	w.finalize()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *timingWriter) Flush() {
	w.finalize()
	w.ResponseWriter.Flush()
}
