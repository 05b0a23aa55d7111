package instrument

import "context"

type correlationKey struct{}

// SetCorrelationID stores the request correlation id in ctx.
func SetCorrelationID(ctx context.Context, cid string) context.Context {
	return context.WithValue(ctx, correlationKey{}, cid)
}

// GetCorrelationID returns the correlation id stored in ctx, empty when absent.
func GetCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	cid, _ := ctx.Value(correlationKey{}).(string)
	return cid
}
