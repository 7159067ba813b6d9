package reqctx

import "context"

type key int

const (
	keyRequestID key = iota
	keyUserID
	keySessionID
)

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRequestID, id)
}

func GetRequestID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyRequestID).(string)
	return v, ok
}

func WithUserID(ctx context.Context, id int) context.Context {
	return context.WithValue(ctx, keyUserID, id)
}

func GetUserID(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(keyUserID).(int)
	return v, ok
}

// Session id кладётся в контекст гардом сессии, чтобы logout знал, какую строку гасить.
func WithSessionID(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, keySessionID, sid)
}

func GetSessionID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keySessionID).(string)
	return v, ok
}
