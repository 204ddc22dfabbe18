// Package feed turns a cursor-paginated list endpoint into a
// continuously growing in-memory sequence. Loads are single-flight:
// overlapping triggers collapse to one request, and completions from a
// superseded refresh generation are discarded.
package feed

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/scribehq/scribe-client/pkg/envelope"
)

// Gateway is the request surface the paginator needs. *client.Client
// satisfies it.
type Gateway interface {
	Get(ctx context.Context, endpoint string) envelope.Envelope
}

// Config holds paginator configuration.
type Config struct {
	// Threshold is the visibility ratio at which a bound trigger fires
	// (default 0.5).
	Threshold float64
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		Threshold: 0.5,
	}
}

// Paginator walks a cursor-paginated endpoint, accumulating items in
// server order. Items only grow between refreshes; a refresh restarts
// from the initial endpoint and discards everything loaded so far.
type Paginator[T any] struct {
	gw       Gateway
	endpoint string
	config   Config
	logger   zerolog.Logger

	mu          sync.Mutex
	items       []T
	next        string
	loading     bool
	loadingMore bool
	lastError   string
	generation  uint64
	closed      bool
	trigger     *Trigger
}

// New creates a paginator for an initial list endpoint.
func New[T any](gw Gateway, endpoint string, cfg Config) *Paginator[T] {
	if cfg.Threshold <= 0 || cfg.Threshold > 1 {
		cfg.Threshold = 0.5
	}
	return &Paginator[T]{
		gw:       gw,
		endpoint: endpoint,
		config:   cfg,
		logger: log.With().
			Str("component", "feed").
			Str("endpoint", endpoint).
			Logger(),
	}
}

// Items returns a copy of the accumulated items in server order.
func (p *Paginator[T]) Items() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]T, len(p.items))
	copy(out, p.items)
	return out
}

// HasMore reports whether a next cursor is known.
func (p *Paginator[T]) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.next != ""
}

// IsLoading reports whether a refresh is in flight.
func (p *Paginator[T]) IsLoading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// IsLoadingMore reports whether a page load is in flight.
func (p *Paginator[T]) IsLoadingMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loadingMore
}

// Err returns the last load error as display text, or "".
func (p *Paginator[T]) Err() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastError
}

// Refresh discards accumulated items and restarts from the initial
// endpoint. Starting a refresh advances the generation, so any page
// load still in flight is discarded when it lands.
func (p *Paginator[T]) Refresh(ctx context.Context) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.generation++
	gen := p.generation
	p.loading = true
	p.mu.Unlock()

	env := p.gw.Get(ctx, p.endpoint)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		p.loading = false
		return
	}
	if gen != p.generation {
		// A newer refresh owns the loading flag now.
		p.logger.Debug().Uint64("generation", gen).Msg("Discarding stale refresh result")
		return
	}
	p.loading = false

	if !env.OK() {
		p.items = nil
		p.next = ""
		p.lastError = env.Failure.Message
		p.logger.Warn().Str("error", p.lastError).Msg("Refresh failed")
		return
	}

	items, err := decodeItems[T](env.Success.Data)
	if err != nil {
		p.items = nil
		p.next = ""
		p.lastError = err.Error()
		p.logger.Error().Err(err).Msg("Unusable page payload")
		return
	}

	p.items = items
	p.next = nextCursor(env.Success.Pagination)
	p.lastError = ""
	p.logger.Debug().
		Int("items", len(items)).
		Bool("has_more", p.next != "").
		Msg("Refreshed")
}

// LoadMore fetches the next page and appends it. It returns false
// without issuing a request when no cursor is known, a load is already
// in flight, or the paginator is closed. This guard is what collapses
// overlapping viewport triggers into a single request.
func (p *Paginator[T]) LoadMore(ctx context.Context) bool {
	p.mu.Lock()
	if p.closed || p.loadingMore || p.next == "" {
		p.mu.Unlock()
		return false
	}
	p.loadingMore = true
	gen := p.generation
	cursor := p.next
	p.mu.Unlock()

	env := p.gw.Get(ctx, cursor)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.loadingMore = false

	if p.closed || gen != p.generation {
		p.logger.Debug().Uint64("generation", gen).Msg("Discarding stale page result")
		return false
	}

	if !env.OK() {
		// Keep items and cursor so the next trigger can retry.
		p.lastError = env.Failure.Message
		p.logger.Warn().Str("error", p.lastError).Msg("Page load failed")
		return true
	}

	items, err := decodeItems[T](env.Success.Data)
	if err != nil {
		p.lastError = err.Error()
		p.logger.Error().Err(err).Msg("Unusable page payload")
		return true
	}

	p.items = append(p.items, items...)
	p.next = nextCursor(env.Success.Pagination)
	p.lastError = ""
	p.logger.Debug().
		Int("appended", len(items)).
		Bool("has_more", p.next != "").
		Msg("Page loaded")
	return true
}

// Close tears the paginator down: the bound trigger is released and any
// in-flight completion is dropped instead of applied.
func (p *Paginator[T]) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	if p.trigger != nil {
		p.trigger.released.Store(true)
		p.trigger = nil
	}
}

// decodeItems unpacks a page body into typed items.
func decodeItems[T any](data json.RawMessage) ([]T, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func nextCursor(p *envelope.Pagination) string {
	if p == nil {
		return ""
	}
	return p.Next
}
