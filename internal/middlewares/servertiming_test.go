package middlewares

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/SpraxDev/NAS-Web/internal/timing"
)

// splittingWriter 把多字节写入拆成单字节，并递归调用自身完成写出。
type splittingWriter struct {
	gin.ResponseWriter
	deliveries int
}

func (w *splittingWriter) Write(b []byte) (int, error) {
	if len(b) > 1 {
		n1, err := w.Write(b[:1])
		if err != nil {
			return n1, err
		}
		n2, err := w.Write(b[1:])
		return n1 + n2, err
	}
	w.deliveries++
	return w.ResponseWriter.Write(b)
}

type failingWriter struct {
	gin.ResponseWriter
}

var errSend = errors.New("send failed")

func (w *failingWriter) Write([]byte) (int, error) { return 0, errSend }

func newEngine(mws ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mws...)
	return r
}

func serve(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestServerTimingSetsHeader(t *testing.T) {
	r := newEngine(ServerTiming(true))
	r.GET("/", func(c *gin.Context) {
		Timings(c).StartNext("work", `x "y"`)
		c.String(http.StatusOK, "hello")
	})
	w := serve(r, "/")
	require.Equal(t, "hello", w.Body.String())

	values := w.Header().Values(timing.HeaderName)
	require.Len(t, values, 1)
	require.True(t, strings.HasPrefix(values[0], "init;dur="), values[0])
	require.Contains(t, values[0], `, work;desc="x \"y\"";dur=`)
}

func TestServerTimingFiresOnce(t *testing.T) {
	var calls int
	var observed []timing.Segment
	observer := func(segs []timing.Segment) {
		calls++
		observed = segs
	}
	r := newEngine(ServerTiming(true, observer))
	r.GET("/", func(c *gin.Context) {
		held := c.Writer
		_, _ = held.Write([]byte("a"))
		Timings(c).StartNext("late", "")
		_, _ = held.WriteString("b")
		_, _ = c.Writer.Write([]byte("c"))
	})
	w := serve(r, "/")
	require.Equal(t, "abc", w.Body.String())
	require.Equal(t, 1, calls)
	require.Len(t, observed, 1)
	require.Equal(t, "init", observed[0].Name)
	require.Len(t, w.Header().Values(timing.HeaderName), 1)
	require.NotContains(t, w.Header().Get(timing.HeaderName), "late")
}

func TestServerTimingRecursiveSend(t *testing.T) {
	sw := &splittingWriter{}
	var calls int
	r := newEngine(
		func(c *gin.Context) {
			sw.ResponseWriter = c.Writer
			c.Writer = sw
			c.Next()
		},
		ServerTiming(true, func([]timing.Segment) { calls++ }),
	)
	r.GET("/", func(c *gin.Context) {
		n, err := c.Writer.Write([]byte("abcd"))
		require.NoError(t, err)
		require.Equal(t, 4, n)
		// 首次发送后已还原为原始 writer
		require.Same(t, sw, c.Writer)
	})
	w := serve(r, "/")
	require.Equal(t, "abcd", w.Body.String())
	require.Equal(t, 4, sw.deliveries)
	require.Equal(t, 1, calls)
	require.Len(t, w.Header().Values(timing.HeaderName), 1)
}

func TestServerTimingWithoutBody(t *testing.T) {
	r := newEngine(ServerTiming(true))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	w := serve(r, "/")
	require.Equal(t, http.StatusNoContent, w.Code)
	require.True(t, strings.HasPrefix(w.Header().Get(timing.HeaderName), "init;dur="))
}

func TestServerTimingPropagatesSendError(t *testing.T) {
	var gotErr error
	r := newEngine(
		func(c *gin.Context) {
			c.Writer = &failingWriter{ResponseWriter: c.Writer}
			c.Next()
		},
		ServerTiming(true),
	)
	r.GET("/", func(c *gin.Context) {
		_, gotErr = c.Writer.Write([]byte("x"))
	})
	serve(r, "/")
	require.ErrorIs(t, gotErr, errSend)
}

func TestServerTimingContext(t *testing.T) {
	r := newEngine(ServerTiming(true))
	r.GET("/", func(c *gin.Context) {
		rec := Timings(c)
		require.NotNil(t, rec)
		require.Same(t, rec, timing.FromContext(c.Request.Context()))
		c.Status(http.StatusOK)
	})
	serve(r, "/")
}

func TestServerTimingDisabled(t *testing.T) {
	r := newEngine(ServerTiming(false))
	r.GET("/", func(c *gin.Context) {
		require.Nil(t, Timings(c))
		require.Nil(t, timing.FromContext(c.Request.Context()))
		// 关闭时调用 Recorder 方法仍然安全
		Timings(c).StartNext("noop", "")
		c.String(http.StatusOK, "ok")
	})
	w := serve(r, "/")
	require.Equal(t, "ok", w.Body.String())
	require.Empty(t, w.Header().Values(timing.HeaderName))
}

func TestRequestID(t *testing.T) {
	r := newEngine(RequestID())
	r.GET("/", func(c *gin.Context) {
		require.NotEmpty(t, c.GetString(RequestIDKey))
		c.Status(http.StatusOK)
	})
	w := serve(r, "/")
	require.NotEmpty(t, w.Header().Get("X-Request-Id"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "fixed-id")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, "fixed-id", w.Header().Get("X-Request-Id"))
}
