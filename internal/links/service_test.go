package links

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// mockResolver implements Resolver for testing.
type mockResolver struct {
	// urls maps "artist:title" to canonical links
	urls map[string]string
	// errors maps "artist:title" to errors
	errors map[string]error
	// callCount tracks number of ResolveURL calls
	callCount atomic.Int32
	// inFlight and peak track concurrent calls
	inFlight atomic.Int32
	peak     atomic.Int32
	// delay simulates network latency
	delay time.Duration
}

func newMockResolver() *mockResolver {
	return &mockResolver{
		urls:   make(map[string]string),
		errors: make(map[string]error),
	}
}

func (m *mockResolver) ResolveURL(ctx context.Context, title, artist string) (string, error) {
	m.callCount.Add(1)

	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	key := artist + ":" + title
	if err, ok := m.errors[key]; ok {
		return "", err
	}
	return m.urls[key], nil
}

func TestResolveLinks_Empty(t *testing.T) {
	svc := NewService(newMockResolver())

	results, err := svc.ResolveLinks(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("expected empty non-nil results, got %v", results)
	}
}

func TestResolveLinks_MixedOutcomes(t *testing.T) {
	resolver := newMockResolver()
	resolver.urls["Pharrell Williams:Happy"] = "https://open.spotify.com/track/60nZcImufyMA1MKQY3dcCH"
	resolver.errors["Adele:Someone Like You"] = errors.New("search failed")

	svc := NewService(resolver)
	items := []Item{
		{Title: "Happy", Artist: "Pharrell Williams", URL: "https://open.spotify.com/track/fake1"},
		{Title: "Someone Like You", Artist: "Adele", URL: "https://open.spotify.com/track/fake2"},
		{Title: "Nope", Artist: "Nobody", URL: "https://example.com/nope"},
	}

	results, err := svc.ResolveLinks(context.Background(), items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	if !results[0].Resolved || results[0].URL != "https://open.spotify.com/track/60nZcImufyMA1MKQY3dcCH" {
		t.Errorf("result[0] = %+v, want resolved canonical link", results[0])
	}
	if results[1].Resolved || results[1].Error == nil || results[1].URL != items[1].URL {
		t.Errorf("result[1] = %+v, want error keeping original URL", results[1])
	}
	if results[2].Resolved || results[2].Error != nil || results[2].URL != items[2].URL {
		t.Errorf("result[2] = %+v, want unresolved original URL", results[2])
	}
}

func TestResolveLinks_BoundedConcurrency(t *testing.T) {
	resolver := newMockResolver()
	resolver.delay = 20 * time.Millisecond

	svc := NewService(resolver, WithConcurrency(2))
	items := make([]Item, 6)
	for i := range items {
		items[i] = Item{Title: "t", Artist: "a", URL: "https://example.com"}
	}

	if _, err := svc.ResolveLinks(context.Background(), items); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := resolver.callCount.Load(); got != 6 {
		t.Errorf("expected 6 calls, got %d", got)
	}
	if got := resolver.peak.Load(); got > 2 {
		t.Errorf("expected at most 2 concurrent calls, got %d", got)
	}
}

func TestResolveLinks_ContextCancelled(t *testing.T) {
	resolver := newMockResolver()
	resolver.delay = time.Second

	svc := NewService(resolver, WithConcurrency(1))
	items := []Item{
		{Title: "a", Artist: "x", URL: "https://example.com/a"},
		{Title: "b", Artist: "y", URL: "https://example.com/b"},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	results, err := svc.ResolveLinks(ctx, items)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	for i, r := range results {
		if r.URL != items[i].URL {
			t.Errorf("result[%d].URL = %q, want original %q", i, r.URL, items[i].URL)
		}
	}
}

func TestWithConcurrency_IgnoresNonPositive(t *testing.T) {
	svc := NewService(newMockResolver(), WithConcurrency(0))
	if svc.concurrency != DefaultConcurrency {
		t.Errorf("concurrency = %d, want %d", svc.concurrency, DefaultConcurrency)
	}
}
