package goToken

import "context"

type exchangeContextKey struct{}

// WithExchange attaches the protocol exchange a token belongs to (an OAuth
// authorization request, a refresh grant, ...). Deserialize copies it into
// Metadata.Exchange and into any TokenError it returns. It is never
// serialized.
func WithExchange(ctx context.Context, exchange any) context.Context {
	return context.WithValue(ctx, exchangeContextKey{}, exchange)
}

func exchangeFromContext(ctx context.Context) any {
	if ctx == nil {
		return nil
	}
	return ctx.Value(exchangeContextKey{})
}
