package listquery

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/portal-compras-gateway/internal/metrics"
)

// Fetcher loads one page for a query.
type Fetcher[T any] func(ctx context.Context, q Query) (Page[T], error)

// Result is delivered once per accepted response.  Query is the screen
// state after the response was processed.
type Result[T any] struct {
	Seq   uint64
	Query Query
	Page  Page[T]
	Err   error
}

// Screen drives one list screen.  Page, size and sort changes are issued at
// once.  Filter typing is debounced; any new request cancels a debounced one
// that has not fired yet.  Requests are numbered and a response that is not
// the latest issued one is dropped, so a slow earlier response never
// overwrites a later one.
type Screen[T any] struct {
	ctx      context.Context
	cfg      ScreenConfig
	fetch    Fetcher[T]
	onResult func(Result[T])

	// OnDiscard is called for every stale response.  It counts them by
	// default.
	OnDiscard func(q Query)

	mu      sync.Mutex
	query   Query
	seq     uint64
	pending *time.Timer
	gen     uint64 // generation of the pending timer
	closed  bool
}

func NewScreen[T any](ctx context.Context, cfg ScreenConfig, fetch Fetcher[T], onResult func(Result[T])) *Screen[T] {
	return &Screen[T]{
		ctx:       ctx,
		cfg:       cfg,
		fetch:     fetch,
		onResult:  onResult,
		query:     cfg.Default(),
		OnDiscard: func(Query) { metrics.StaleResponse(cfg.Name) },
	}
}

// Query returns the current state of the screen.
func (s *Screen[T]) Query() Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Refresh reissues the current query.
func (s *Screen[T]) Refresh() { s.update(func(q *Query) {}) }

// SetPage moves to a zero-based page.
func (s *Screen[T]) SetPage(page int) {
	s.update(func(q *Query) { q.CurrentPage = page })
}

// SetPerPage changes the page size and goes back to the first page.
func (s *Screen[T]) SetPerPage(perPage int) {
	s.update(func(q *Query) {
		q.PerPage = perPage
		q.CurrentPage = 0
	})
}

// SetSort changes the ordering.
func (s *Screen[T]) SetSort(field string, dir Direction) {
	s.update(func(q *Query) {
		q.OrderField = field
		q.OrderDirection = dir
	})
}

// SetFilterField picks the filtered column and its precision.  It only
// issues a request when a filter value is already typed.
func (s *Screen[T]) SetFilterField(field string, precision Precision) {
	s.mu.Lock()
	s.query.FilterField = field
	s.query.FilterPrecision = precision
	issue := s.query.FilterValue != ""
	s.mu.Unlock()
	if issue {
		s.update(func(q *Query) { q.CurrentPage = 0 })
	}
}

// SetFilterText records typed filter text and schedules a request after the
// debounce delay.  Each keystroke restarts the delay.
func (s *Screen[T]) SetFilterText(value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.query.FilterValue = value
	s.query.CurrentPage = 0
	s.cancelPendingLocked()
	gen := s.gen
	s.pending = time.AfterFunc(s.cfg.debounce(), func() { s.fire(gen) })
}

// Close drops a pending debounced request.  In-flight requests still finish
// but their results are discarded.
func (s *Screen[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.cancelPendingLocked()
	s.seq++
}

func (s *Screen[T]) fire(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.pending = nil
	seq, q := s.issueLocked()
	s.mu.Unlock()
	s.run(seq, q)
}

func (s *Screen[T]) update(mut func(q *Query)) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	mut(&s.query)
	s.cancelPendingLocked()
	seq, q := s.issueLocked()
	s.mu.Unlock()
	go s.run(seq, q)
}

func (s *Screen[T]) cancelPendingLocked() {
	s.gen++
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
}

func (s *Screen[T]) issueLocked() (uint64, Query) {
	s.seq++
	return s.seq, s.query.Normalize(s.cfg)
}

func (s *Screen[T]) run(seq uint64, q Query) {
	page, err := s.fetch(s.ctx, q)

	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		if s.OnDiscard != nil {
			s.OnDiscard(q)
		}
		return
	}
	if err == nil {
		s.query = AfterResponse(s.query, page.TotalRows, s.cfg)
	}
	res := Result[T]{Seq: seq, Query: s.query, Page: page, Err: err}
	s.mu.Unlock()

	if s.onResult != nil {
		s.onResult(res)
	}
}
