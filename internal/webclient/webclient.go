package webclient

import "context"

// WebClient performs a single HTTP exchange per Do call. Implementations must
// not retry: callers rely on one call meaning one request on the wire.
type WebClient interface {
	Do(ctx context.Context, req *Request) (*Response, error)

	// Get is a convenience method for simple GET requests
	Get(ctx context.Context, url string) (*Response, error)

	Close() error
}
