package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/glabrego/infopanel/internal/feed"
)

// Fetcher serves canned responses by URL. Maps must be filled before the first
// Fetch call.
type Fetcher struct {
	Responses map[string][]byte
	Errors    map[string]error
	// Gates holds back the response for a URL until the channel is closed or
	// the request context ends.
	Gates map[string]chan struct{}

	mu    sync.Mutex
	calls []string
}

func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	if gate, ok := f.Gates[url]; ok {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", feed.ErrFetch, ctx.Err())
		}
	}
	if err, ok := f.Errors[url]; ok {
		return nil, err
	}
	data, ok := f.Responses[url]
	if !ok {
		return nil, fmt.Errorf("%w: no response for %s", feed.ErrFetch, url)
	}
	return data, nil
}

// Calls returns the URLs requested so far, in call order.
func (f *Fetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}
