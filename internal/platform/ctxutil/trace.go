package ctxutil

import "context"

type traceDataKey struct{}

// TraceData identifies one request. PlayerID is the caller's self-reported
// player id and is empty for anonymous calls.
type TraceData struct {
	TraceID   string
	RequestID string
	PlayerID  string
}

// PlayerID returns the player id carried by ctx, if any.
func PlayerID(ctx context.Context) string {
	if td := GetTraceData(ctx); td != nil {
		return td.PlayerID
	}
	return ""
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if ctx == nil {
		return nil
	}
	if td, ok := ctx.Value(traceDataKey{}).(*TraceData); ok {
		return td
	}
	return nil
}

// Default returns context.Background() when ctx is nil.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
