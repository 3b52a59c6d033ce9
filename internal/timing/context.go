package timing

import "context"

type ctxKey struct{}

// NewContext 返回携带 Recorder 的 context。
func NewContext(ctx context.Context, r *Recorder) context.Context {
	return context.WithValue(ctx, ctxKey{}, r)
}

// FromContext 取出 context 中的 Recorder；未开启计时时返回 nil（其方法可安全调用）。
func FromContext(ctx context.Context) *Recorder {
	if ctx == nil {
		return nil
	}
	r, _ := ctx.Value(ctxKey{}).(*Recorder)
	return r
}
