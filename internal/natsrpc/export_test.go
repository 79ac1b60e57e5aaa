package natsrpc

import "context"

func DialContext[C any](ctx context.Context, dial func() (C, error), discard func(C)) (C, error) {
	return dialContext(ctx, dial, discard)
}
