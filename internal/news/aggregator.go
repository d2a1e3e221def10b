package news

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/glabrego/infopanel/internal/pipeline"
)

// State is the lifecycle of one refresh session.
type State int

const (
	StateIdle State = iota
	StateFetching
	StateListing
	StateSettled
)

func (s State) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateListing:
		return "listing"
	case StateSettled:
		return "settled"
	default:
		return "idle"
	}
}

// Starter launches a refresh session.
type Starter interface {
	StartRefresh(ctx context.Context, feedURL string) (pipeline.Session, error)
}

// Progress is a snapshot of the current session counters.
type Progress struct {
	State      State
	Entries    int
	Total      int
	TotalKnown bool
	Completed  int
}

// Aggregator is the consumer side of the pipeline. It is not safe for
// concurrent use: it is owned by the UI loop and only ever polls its queues.
type Aggregator struct {
	starter Starter
	logger  *slog.Logger

	session    pipeline.Session
	entries    []pipeline.Entry
	total      int
	totalKnown bool
	completed  int
	state      State
}

func NewAggregator(starter Starter, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{starter: starter, logger: logger}
}

// Refresh abandons the current session and starts a new one. A blank URL is
// rejected and leaves the current session untouched.
func (a *Aggregator) Refresh(ctx context.Context, feedURL string) error {
	feedURL = strings.TrimSpace(feedURL)
	if feedURL == "" {
		return pipeline.ErrEmptyFeedURL
	}

	session, err := a.starter.StartRefresh(ctx, feedURL)
	if err != nil {
		return err
	}

	a.session = session
	a.entries = nil
	a.total = 0
	a.totalKnown = false
	a.completed = 0
	a.state = StateFetching
	a.logger.Info("refresh started", "session", session.ID, "generation", session.Generation, "url", feedURL)
	return nil
}

// Tick is called once per UI frame. It drains at most one entry event and at
// most one enrichment result of the current session, without blocking. Stale
// messages from abandoned sessions are dropped and do not count.
func (a *Aggregator) Tick() {
	if !a.InProgress() {
		return
	}

	if ev, ok := a.nextEntryEvent(); ok {
		a.applyEntryEvent(ev)
	}
	if res, ok := a.nextResult(); ok {
		a.applyResult(res)
	}
	a.settleIfDone()
}

func (a *Aggregator) nextEntryEvent() (pipeline.EntryEvent, bool) {
	for {
		ev, ok := a.session.Entries.TryRecv()
		if !ok {
			return pipeline.EntryEvent{}, false
		}
		if ev.Generation == a.session.Generation {
			return ev, true
		}
		a.logger.Debug("dropped stale entry", "generation", ev.Generation, "position", ev.Entry.Position)
	}
}

func (a *Aggregator) nextResult() (pipeline.EnrichmentResult, bool) {
	for {
		res, ok := a.session.Results.TryRecv()
		if !ok {
			return pipeline.EnrichmentResult{}, false
		}
		if res.Generation == a.session.Generation {
			return res, true
		}
		a.logger.Debug("dropped stale result", "generation", res.Generation, "position", res.Position)
	}
}

func (a *Aggregator) applyEntryEvent(ev pipeline.EntryEvent) {
	if ev.Done {
		a.total = ev.Total
		a.totalKnown = true
		return
	}
	if a.insert(ev.Entry) && a.state == StateFetching {
		a.state = StateListing
	}
}

// insert places e by position. A position already present is left alone.
func (a *Aggregator) insert(e pipeline.Entry) bool {
	i, found := a.find(e.Position)
	if found {
		return false
	}
	a.entries = slices.Insert(a.entries, i, e)
	return true
}

func (a *Aggregator) find(position int) (int, bool) {
	return slices.BinarySearchFunc(a.entries, position, func(e pipeline.Entry, p int) int {
		return cmp.Compare(e.Position, p)
	})
}

func (a *Aggregator) applyResult(res pipeline.EnrichmentResult) {
	i, found := a.find(res.Position)
	if !found {
		// The entry has not been drained yet; retry on a later tick.
		a.session.Results.Send(res)
		return
	}
	entry := &a.entries[i]
	if entry.ThumbnailReady {
		return
	}
	if !res.NoImage() {
		entry.Thumbnail = res.Image
	}
	entry.ThumbnailReady = true
	a.completed++
}

func (a *Aggregator) settleIfDone() {
	if !a.totalKnown || a.completed != a.total {
		return
	}
	a.state = StateSettled
	// Whatever is still queued belongs to abandoned sessions.
	a.logger.Info("refresh settled", "session", a.session.ID, "entries", a.total,
		"stale_entries", a.session.Entries.Len(), "stale_results", a.session.Results.Len())
}

func (a *Aggregator) InProgress() bool {
	return a.state == StateFetching || a.state == StateListing
}

func (a *Aggregator) State() State {
	return a.state
}

// Entries returns a copy of the ordered list.
func (a *Aggregator) Entries() []pipeline.Entry {
	return slices.Clone(a.entries)
}

func (a *Aggregator) Progress() Progress {
	return Progress{
		State:      a.state,
		Entries:    len(a.entries),
		Total:      a.total,
		TotalKnown: a.totalKnown,
		Completed:  a.completed,
	}
}

// SessionID identifies the current session in logs. Empty before the first refresh.
func (a *Aggregator) SessionID() string {
	return a.session.ID
}
