// Package links resolves suggested songs to canonical streaming track links.
package links

import (
	"context"
	"sync"
)

// DefaultConcurrency is the number of lookups run at once.
const DefaultConcurrency = 3

// Item is a song whose link should be checked.
type Item struct {
	Title  string
	Artist string
	URL    string
}

// Result holds the link chosen for an item.
type Result struct {
	URL      string // Canonical link, or the original URL when unresolved
	Resolved bool   // True when URL came from the resolver
	Error    error  // Non-nil if the lookup failed
}

// Resolver looks up the canonical track link for a song.
type Resolver interface {
	ResolveURL(ctx context.Context, title, artist string) (string, error)
}

// Service resolves links for batches of items.
type Service struct {
	resolver    Resolver
	concurrency int
}

// Option configures a Service.
type Option func(*Service)

// WithConcurrency sets the number of concurrent lookups.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewService creates a new link service.
func NewService(resolver Resolver, opts ...Option) *Service {
	s := &Service{
		resolver:    resolver,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResolveLinks looks up every item concurrently.
// Results are returned in the same order as items.
// Individual lookup errors are captured in Result.Error and keep the original URL.
func (s *Service) ResolveLinks(ctx context.Context, items []Item) ([]Result, error) {
	if len(items) == 0 {
		return []Result{}, nil
	}

	results := make([]Result, len(items))

	type workItem struct {
		index int
		item  Item
	}
	workCh := make(chan workItem, len(items))

	for i, it := range items {
		workCh <- workItem{index: i, item: it}
	}
	close(workCh)

	var wg sync.WaitGroup
	for i := 0; i < min(s.concurrency, len(items)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for work := range workCh {
				select {
				case <-ctx.Done():
					results[work.index] = Result{URL: work.item.URL, Error: ctx.Err()}
					continue
				default:
				}

				u, err := s.resolver.ResolveURL(ctx, work.item.Title, work.item.Artist)
				if err != nil || u == "" {
					results[work.index] = Result{URL: work.item.URL, Error: err}
					continue
				}
				results[work.index] = Result{URL: u, Resolved: true}
			}
		}()
	}

	wg.Wait()

	if ctx.Err() != nil {
		return results, ctx.Err()
	}

	return results, nil
}
