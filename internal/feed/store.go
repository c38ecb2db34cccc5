package feed

import (
	"context"
	"sync"
	"time"

	appLog "daygrid/internal/log"
	"daygrid/internal/model"
)

// Store holds the expanded items for the current window so web handlers
// read from memory while the cron schedule refreshes in the background.
type Store struct {
	fetcher      *Fetcher
	sources      []Source
	loc          *time.Location
	horizonDays  int
	backfillDays int

	mu        sync.RWMutex
	items     []model.Item
	updatedAt time.Time
}

// NewStore builds a store over the given sources. horizonDays bounds how
// far ahead occurrences are materialized; one day of backfill keeps
// yesterday's midnight spillover visible.
func NewStore(fetcher *Fetcher, sources []Source, loc *time.Location, horizonDays int) *Store {
	if loc == nil {
		loc = time.Local
	}
	if horizonDays <= 0 {
		horizonDays = 7
	}
	return &Store{
		fetcher:      fetcher,
		sources:      sources,
		loc:          loc,
		horizonDays:  horizonDays,
		backfillDays: 1,
	}
}

// Refresh fetches, parses and expands every source, then swaps in the new
// item set. Sources that fail but have a cached body still contribute; the
// error is non-nil only when nothing could be fetched at all.
func (s *Store) Refresh(ctx context.Context) error {
	if len(s.sources) == 0 {
		s.swap(nil)
		return nil
	}

	results, fetchErr := s.fetcher.FetchAll(ctx, s.sources)
	if fetchErr != nil {
		appLog.Error("feed refresh: some sources failed", fetchErr, "ok", len(results), "total", len(s.sources))
	}
	if len(results) == 0 && fetchErr != nil {
		// Nothing fetched at all; keep the previous window instead of
		// swapping in an empty one.
		return fetchErr
	}

	var events []Event
	for _, res := range results {
		evs, err := Parse(res.Source, res.Body)
		if err != nil {
			continue // already logged by Parse
		}
		events = append(events, evs...)
	}

	today := model.DateOf(time.Now().In(s.loc))
	items, err := Expand(events, Window{
		Start: today.AddDays(-s.backfillDays).Time(s.loc),
		End:   today.AddDays(s.horizonDays).Time(s.loc),
		Loc:   s.loc,
	})
	if err != nil {
		return err
	}

	s.swap(items)
	appLog.Info("feed refresh complete",
		"sources", len(s.sources), "events", len(events), "items", len(items))
	return nil
}

func (s *Store) swap(items []model.Item) {
	s.mu.Lock()
	s.items = items
	s.updatedAt = time.Now()
	s.mu.Unlock()
}

// Items returns a copy of every materialized item.
func (s *Store) Items() []model.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Item(nil), s.items...)
}

// ItemsOn returns the items that fall on one day.
func (s *Store) ItemsOn(date model.Date) []model.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Item
	for _, it := range s.items {
		if it.Date.Equal(date) {
			out = append(out, it)
		}
	}
	return out
}

// UpdatedAt reports when the store last swapped its items. Web caches use
// it to notice refreshes.
func (s *Store) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}
