package common

import "context"

type requestIDKey struct{}

// CtxKeyCompression gin.Context 中壓縮結果（ImageMeta）的鍵，供請求日誌使用
const CtxKeyCompression = "compression"

// WithRequestID 將請求 ID 放入 context，讓隊列等下游元件記錄
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext 取出請求 ID，沒有時返回空字串
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
