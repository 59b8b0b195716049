// Package auditctx carries the network client behind a request down to the audit writer.
package auditctx

import "context"

// Client identifies the caller of an HTTP request.
type Client struct {
	IPAddress string
	UserAgent string
}

type clientKey struct{}

// With returns a context carrying client.
func With(ctx context.Context, client Client) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, clientKey{}, client)
}

// From returns the client stored on ctx, if any.
func From(ctx context.Context) (Client, bool) {
	if ctx == nil {
		return Client{}, false
	}
	client, ok := ctx.Value(clientKey{}).(Client)
	return client, ok
}

// Attribute fills empty ip and userAgent from the client on ctx. Values the
// caller already set are kept.
func Attribute(ctx context.Context, ip, userAgent *string) {
	client, ok := From(ctx)
	if !ok {
		return
	}
	if *ip == "" {
		*ip = client.IPAddress
	}
	if *userAgent == "" {
		*userAgent = client.UserAgent
	}
}
