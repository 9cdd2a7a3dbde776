package mfagate

import "context"

type contextKey uint8

const clientIPKey contextKey = iota

// WithClientIP attaches the caller's network address to the context so
// audit events can record it. Transports should set it once per request.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

func clientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey).(string)
	return ip
}
