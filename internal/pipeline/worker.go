package pipeline

import (
	"context"
	"errors"

	"github.com/glabrego/infopanel/internal/feed"
	"github.com/glabrego/infopanel/internal/thumbnail"
)

// enrich resolves the thumbnail for one entry and always reports exactly one
// result for its position. No retries: any failure leaves the placeholder.
func (c *Coordinator) enrich(ctx context.Context, gen uint64, position int, entry feed.RawEntry) {
	img, err := c.thumbnail(ctx, entry)
	if err != nil {
		img = nil
		if errors.Is(err, feed.ErrNotFound) {
			c.logger.DebugContext(ctx, "entry has no image")
		} else {
			c.logger.DebugContext(ctx, "thumbnail unavailable", "error", err)
		}
	}
	res := EnrichmentResult{Generation: gen, Position: position, Image: img}
	if !res.NoImage() {
		w, h := img.Size()
		c.logger.DebugContext(ctx, "thumbnail decoded", "format", img.Format(), "width", w, "height", h)
	}
	c.results.Send(res)
}

func (c *Coordinator) thumbnail(ctx context.Context, entry feed.RawEntry) (*thumbnail.Bitmap, error) {
	imageURL, err := feed.ImageURLFor(entry)
	if err != nil {
		return nil, err
	}

	if c.sem != nil {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer c.sem.Release(1)
	}

	data, err := c.fetcher.Fetch(ctx, imageURL)
	if err != nil {
		return nil, err
	}
	return c.decode(data)
}
