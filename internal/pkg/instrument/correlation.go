package instrument

import "context"

type ctxKeyCorrelationID struct{}

// SetCorrelationID stores the correlation ID on the context.
func SetCorrelationID(ctx context.Context, cID string) context.Context {
	return context.WithValue(ctx, ctxKeyCorrelationID{}, cID)
}

// GetCorrelationID returns the correlation ID carried by ctx, or an empty string.
func GetCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	cID, _ := ctx.Value(ctxKeyCorrelationID{}).(string)
	return cID
}
