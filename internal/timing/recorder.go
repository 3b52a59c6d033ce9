package timing

import (
	"strconv"
	"strings"
	"time"
)

// HeaderName 为渲染结果对应的 HTTP 响应头名称。
const HeaderName = "Server-Timing"

// DefaultInitialPhase 是构造 Recorder 时自动开启的首个分段名称。
const DefaultInitialPhase = "init"

// Segment 表示一个已结束的计时分段。
type Segment struct {
	Name        string
	Description string
	Duration    time.Duration
}

// openSegment 为进行中的分段：只记录开始时间，不记录耗时。
type openSegment struct {
	name        string
	description string
	start       time.Time
}

// Recorder 记录互不重叠的命名分段。零值不可用，请使用 New 构造。
// 所有方法在 nil 接收者上均为空操作，便于计时关闭时直接调用。
type Recorder struct {
	now     func() time.Time
	closed  []Segment
	current *openSegment
}

// Option 定制 Recorder。
type Option func(*Recorder)

// WithInitialPhase 设置首个分段的名称（默认 "init"）。
func WithInitialPhase(name string) Option {
	return func(r *Recorder) {
		if r.current != nil {
			r.current.name = name
		}
	}
}

// WithClock 替换时间源（测试用）。time.Now 返回的时间携带单调时钟读数，差值不受系统时间调整影响。
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
			r.current.start = now()
		}
	}
}

// New 创建 Recorder，并立即开启首个分段。
func New(opts ...Option) *Recorder {
	r := &Recorder{now: time.Now}
	r.current = &openSegment{name: DefaultInitialPhase, start: r.now()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// StartNext 结束当前分段（若有），并以给定名称/描述开启新的分段。description 为空表示无描述。
func (r *Recorder) StartNext(name, description string) {
	if r == nil {
		return
	}
	r.StopCurrent()
	r.current = &openSegment{name: name, description: description, start: r.now()}
}

// StopCurrent 结束当前分段；无进行中的分段时为空操作。
func (r *Recorder) StopCurrent() {
	if r == nil || r.current == nil {
		return
	}
	elapsed := r.now().Sub(r.current.start)
	if elapsed < 0 {
		elapsed = 0
	}
	r.closed = append(r.closed, Segment{
		Name:        r.current.name,
		Description: r.current.description,
		Duration:    elapsed,
	})
	r.current = nil
}

// Segments 返回已结束分段的副本（按结束顺序）。
func (r *Recorder) Segments() []Segment {
	if r == nil {
		return nil
	}
	out := make([]Segment, len(r.closed))
	copy(out, r.closed)
	return out
}

// Render 先结束当前分段，再将全部已结束分段渲染为 Server-Timing 头的值。
// 重复调用返回相同结果。
func (r *Recorder) Render() string {
	if r == nil {
		return ""
	}
	r.StopCurrent()
	var b strings.Builder
	for i, s := range r.closed {
		if i > 0 {
			b.WriteString(", ")
		}
		s.appendTo(&b)
	}
	return b.String()
}

// String 等同于 Render。
func (r *Recorder) String() string { return r.Render() }

func (s Segment) appendTo(b *strings.Builder) {
	b.WriteString(s.Name)
	b.WriteByte(';')
	if s.Description != "" {
		b.WriteString(`desc="`)
		b.WriteString(strings.ReplaceAll(s.Description, `"`, `\"`))
		b.WriteString(`";`)
	}
	b.WriteString("dur=")
	b.WriteString(FormatMillis(s.Duration))
}

// FormatMillis 将时长格式化为毫秒数，保留小数精度且不补零（500µs -> "0.5"）。
func FormatMillis(d time.Duration) string {
	return strconv.FormatFloat(float64(d.Nanoseconds())/1e6, 'f', -1, 64)
}

// Observer 接收渲染完成后的分段列表（例如导出为指标）。
type Observer func(segments []Segment)
