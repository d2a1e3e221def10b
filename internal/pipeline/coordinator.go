package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/glabrego/infopanel/internal/feed"
	"github.com/glabrego/infopanel/internal/logging"
	"github.com/glabrego/infopanel/internal/thumbnail"
)

type Options struct {
	// MaxWorkers caps concurrent image fetches. Zero means one goroutine per entry with no cap.
	MaxWorkers int
	// Decode turns image bytes into a bitmap. Defaults to thumbnail.Decode.
	Decode func([]byte) (*thumbnail.Bitmap, error)
	Logger *slog.Logger
}

// Coordinator runs refresh cycles. It owns the send side of both queues; the
// queues live as long as the Coordinator and every message is tagged with the
// generation of the session that produced it.
type Coordinator struct {
	fetcher feed.Fetcher
	parser  feed.Parser
	decode  func([]byte) (*thumbnail.Bitmap, error)
	logger  *slog.Logger
	sem     *semaphore.Weighted

	entries *Queue[EntryEvent]
	results *Queue[EnrichmentResult]

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

func NewCoordinator(fetcher feed.Fetcher, parser feed.Parser, opts Options) *Coordinator {
	c := &Coordinator{
		fetcher: fetcher,
		parser:  parser,
		decode:  opts.Decode,
		logger:  opts.Logger,
		entries: NewQueue[EntryEvent](),
		results: NewQueue[EnrichmentResult](),
	}
	if c.decode == nil {
		c.decode = thumbnail.Decode
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if opts.MaxWorkers > 0 {
		c.sem = semaphore.NewWeighted(int64(opts.MaxWorkers))
	}
	return c
}

// StartRefresh begins a new session for feedURL and returns immediately. The
// previous session, if any, is abandoned: its context is cancelled and its late
// messages carry a stale generation.
func (c *Coordinator) StartRefresh(ctx context.Context, feedURL string) (Session, error) {
	feedURL = strings.TrimSpace(feedURL)
	if feedURL == "" {
		return Session{}, ErrEmptyFeedURL
	}

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.generation++
	gen := c.generation
	sessionCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	session := Session{
		ID:         uuid.NewString(),
		Generation: gen,
		FeedURL:    feedURL,
		Entries:    c.entries,
		Results:    c.results,
	}
	sessionCtx = logging.Ctx(sessionCtx,
		slog.String("session", session.ID),
		slog.Uint64("generation", gen),
	)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run(sessionCtx, gen, feedURL)
	}()
	return session, nil
}

// currentGeneration returns the generation of the most recent session.
func (c *Coordinator) currentGeneration() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// wait blocks until every goroutine spawned so far has finished.
func (c *Coordinator) wait() {
	c.wg.Wait()
}

// Close cancels the current session and waits for its goroutines.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()
	c.wait()
}

func (c *Coordinator) run(ctx context.Context, gen uint64, feedURL string) {
	start := time.Now()
	raw, err := c.listEntries(ctx, feedURL)
	if err != nil {
		c.logger.WarnContext(ctx, "feed refresh failed", "url", feedURL, "error", err)
		c.entries.Send(EntryEvent{Generation: gen, Done: true, Total: 0})
		return
	}

	for i, r := range raw {
		c.entries.Send(EntryEvent{
			Generation: gen,
			Entry: Entry{
				Position:    i,
				Title:       r.Title,
				Link:        r.Link,
				Description: r.Description,
				Thumbnail:   thumbnail.Placeholder(),
			},
		})

		c.wg.Add(1)
		go func(position int, r feed.RawEntry) {
			defer c.wg.Done()
			c.enrich(logging.Ctx(ctx, slog.Int("position", position)), gen, position, r)
		}(i, r)
	}
	c.entries.Send(EntryEvent{Generation: gen, Done: true, Total: len(raw)})
	c.logger.InfoContext(ctx, "feed listed", "url", feedURL, "entries", len(raw), "duration", time.Since(start))
}

func (c *Coordinator) listEntries(ctx context.Context, feedURL string) ([]feed.RawEntry, error) {
	data, err := c.fetcher.Fetch(ctx, feedURL)
	if err != nil {
		return nil, err
	}
	return c.parser.Parse(data)
}
