package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"saldo/internal/api"
	"saldo/internal/cache"
	"saldo/internal/core"
	applog "saldo/internal/log"
)

// sliceGuard orders responses for one dashboard slice. Each fetch takes
// the next sequence number; a response is applied only when nothing
// later-issued has been applied already, so the latest user intent wins
// even when responses resolve out of order.
type sliceGuard struct {
	issued  uint64
	applied uint64
}

func (g *sliceGuard) next() uint64 {
	g.issued++
	return g.issued
}

func (g *sliceGuard) apply(seq uint64) bool {
	if seq <= g.applied {
		return false
	}
	g.applied = seq
	return true
}

// Dashboard merges the three independently fetched summary slices
// (cards, trends per timeframe, categories) into one stats snapshot.
// The slices share a single loading flag and error string; a failed
// fetch keeps the previous snapshot intact.
type Dashboard struct {
	api    *api.Client
	trends *cache.LRU[[]core.TrendPoint]

	mu         sync.Mutex
	stats      core.DashboardStats
	cards      sliceGuard
	categories sliceGuard
	trendSeqs  map[core.Timeframe]*sliceGuard
	inflight   int
	err        string
}

func NewDashboard(client *api.Client, cacheSize int, cacheTTL time.Duration) *Dashboard {
	return &Dashboard{
		api:    client,
		trends: cache.NewLRU[[]core.TrendPoint](cacheSize, cacheTTL),
		stats: core.DashboardStats{
			Trends: make(map[core.Timeframe][]core.TrendPoint),
		},
		trendSeqs: make(map[core.Timeframe]*sliceGuard),
	}
}

// FetchCards refreshes the balance/income/expense cards slice.
func (s *Dashboard) FetchCards(ctx context.Context) bool {
	s.mu.Lock()
	seq := s.cards.next()
	s.beginLocked()
	s.mu.Unlock()
	defer s.end()

	var cards core.Cards
	if err := s.api.Get(ctx, api.PathSummaryCards, &cards); err != nil {
		s.fail(ctx, "cards", err, "Failed to fetch dashboard cards")
		return false
	}

	s.mu.Lock()
	if s.cards.apply(seq) {
		s.stats.Cards = cards
		s.err = ""
	}
	s.mu.Unlock()
	return true
}

// FetchTrends refreshes the trend series for one timeframe. A cached
// series for that timeframe is merged immediately so switching back to
// a previously loaded timeframe shows data at once; the server is then
// asked for a fresh series regardless.
func (s *Dashboard) FetchTrends(ctx context.Context, timeframe core.Timeframe) bool {
	if cached, ok := s.trends.Get(string(timeframe)); ok {
		s.mu.Lock()
		s.stats.Trends[timeframe] = cached
		s.mu.Unlock()
	}

	s.mu.Lock()
	guard := s.trendSeqs[timeframe]
	if guard == nil {
		guard = &sliceGuard{}
		s.trendSeqs[timeframe] = guard
	}
	seq := guard.next()
	s.beginLocked()
	s.mu.Unlock()
	defer s.end()

	var points []core.TrendPoint
	if err := s.api.Get(ctx, api.PathTrends(string(timeframe)), &points); err != nil {
		s.fail(ctx, "trends", err, "Failed to fetch trends data")
		return false
	}

	s.mu.Lock()
	applied := guard.apply(seq)
	if applied {
		s.stats.Trends[timeframe] = points
		s.err = ""
	}
	s.mu.Unlock()

	if applied {
		s.trends.Set(string(timeframe), points)
		slog.DebugContext(ctx, "Trends refreshed",
			applog.FieldComponent, applog.ComponentDashboard,
			applog.FieldTimeframe, string(timeframe))
	}
	return true
}

// FetchCategories refreshes the server-computed percentage breakdown.
func (s *Dashboard) FetchCategories(ctx context.Context) bool {
	s.mu.Lock()
	seq := s.categories.next()
	s.beginLocked()
	s.mu.Unlock()
	defer s.end()

	var breakdown core.CategoryBreakdown
	if err := s.api.Get(ctx, api.PathSummaryCategories, &breakdown); err != nil {
		s.fail(ctx, "categories", err, "Failed to fetch category data")
		return false
	}

	s.mu.Lock()
	if s.categories.apply(seq) {
		s.stats.Categories = breakdown
		s.err = ""
	}
	s.mu.Unlock()
	return true
}

// Stats returns a deep copy of the merged snapshot.
func (s *Dashboard) Stats() core.DashboardStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats.Clone()
}

// Loading reports whether any slice fetch is in flight. The flag is
// shared by all three slices.
func (s *Dashboard) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight > 0
}

func (s *Dashboard) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Dashboard) ClearError() {
	s.mu.Lock()
	s.err = ""
	s.mu.Unlock()
}

func (s *Dashboard) beginLocked() {
	s.inflight++
}

func (s *Dashboard) end() {
	s.mu.Lock()
	s.inflight--
	s.mu.Unlock()
}

// fail records the shared error string; the previous snapshot stays in
// place, stale data being preferable to an empty dashboard.
func (s *Dashboard) fail(ctx context.Context, slice string, err error, fallback string) {
	s.mu.Lock()
	s.err = humanMessage(err, fallback)
	s.mu.Unlock()
	slog.WarnContext(ctx, "Dashboard slice fetch failed",
		applog.FieldComponent, applog.ComponentDashboard,
		applog.FieldSlice, slice,
		applog.FieldError, err.Error())
}
