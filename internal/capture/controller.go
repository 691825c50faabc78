package capture

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bep/debounce"
	"golang.org/x/sync/semaphore"

	domainerrors "github.com/justestif/go-mood-music/internal/errors"
	"github.com/justestif/go-mood-music/internal/mood"
	"github.com/justestif/go-mood-music/internal/suggest"
)

// DefaultDebounce is how long a label must stay dominant before it triggers a lookup.
const DefaultDebounce = 1500 * time.Millisecond

// ErrBusy is returned by Submit while another lookup is in flight.
var ErrBusy = errors.New("a suggestion request is already in flight")

// Suggester is the gateway the controller calls.
type Suggester interface {
	GetSuggestions(ctx context.Context, moodText string) (*suggest.Result, error)
}

// Outcome is the result of one triggered lookup.
type Outcome struct {
	Query  mood.Query
	Result *suggest.Result
	Err    error
}

// Controller turns readings and manual text into gateway calls with at most
// one call in flight. Triggers arriving while a call is outstanding are dropped.
type Controller struct {
	ctx       context.Context
	suggester Suggester
	logger    *slog.Logger
	onResult  func(Outcome)
	window    time.Duration

	inflight  *semaphore.Weighted
	debounced func(f func())
	dropped   atomic.Int64

	mu        sync.Mutex
	lastLabel mood.Expression
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithDebounce sets the stability window for detected labels.
func WithDebounce(d time.Duration) ControllerOption {
	return func(c *Controller) {
		if d > 0 {
			c.window = d
		}
	}
}

// WithControllerLogger sets the controller logger.
func WithControllerLogger(l *slog.Logger) ControllerOption {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithOnResult registers a callback for every completed lookup.
func WithOnResult(fn func(Outcome)) ControllerOption {
	return func(c *Controller) {
		c.onResult = fn
	}
}

// NewController creates a controller. Debounced lookups run under ctx.
func NewController(ctx context.Context, s Suggester, opts ...ControllerOption) *Controller {
	c := &Controller{
		ctx:       ctx,
		suggester: s,
		logger:    slog.Default(),
		window:    DefaultDebounce,
		inflight:  semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.debounced = debounce.New(c.window)
	return c
}

// HandleReading feeds one capture tick. A change of dominant label re-arms
// the debounce window; losing the face cancels a pending trigger.
func (c *Controller) HandleReading(r mood.Reading) {
	label, ok := mood.Dominant(r)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !ok {
		if c.lastLabel != "" {
			c.lastLabel = ""
			c.debounced(func() {})
		}
		return
	}

	if label == c.lastLabel {
		return
	}
	c.lastLabel = label

	q := mood.Query(label)
	c.debounced(func() {
		c.run(c.ctx, q)
	})
}

// Submit runs a lookup for manually entered text, bypassing the debounce.
// Empty text fails with InvalidInput without calling the gateway.
func (c *Controller) Submit(ctx context.Context, text string) (*suggest.Result, error) {
	q, ok := mood.ParseQuery(text)
	if !ok {
		return nil, domainerrors.InvalidInput("No emotion data provided")
	}

	out, ok := c.run(ctx, q)
	if !ok {
		return nil, ErrBusy
	}
	return out.Result, out.Err
}

// Drain blocks until no lookup is in flight or ctx is done.
func (c *Controller) Drain(ctx context.Context) error {
	if err := c.inflight.Acquire(ctx, 1); err != nil {
		return err
	}
	c.inflight.Release(1)
	return nil
}

// Window returns the debounce window in effect.
func (c *Controller) Window() time.Duration {
	return c.window
}

// Dropped returns how many triggers were dropped because a call was in flight.
func (c *Controller) Dropped() int64 {
	return c.dropped.Load()
}

// run performs one lookup if none is in flight. Returns false if dropped.
func (c *Controller) run(ctx context.Context, q mood.Query) (Outcome, bool) {
	if !c.inflight.TryAcquire(1) {
		n := c.dropped.Add(1)
		c.logger.Debug("dropping trigger, request in flight", "mood", q.String(), "dropped", n)
		return Outcome{}, false
	}
	defer c.inflight.Release(1)

	result, err := c.suggester.GetSuggestions(ctx, q.String())
	out := Outcome{Query: q, Result: result, Err: err}

	if err != nil {
		c.logger.Warn("suggestion lookup failed", "mood", q.String(), "code", domainerrors.CodeOf(err), "error", err)
	} else {
		c.logger.Info("suggestions ready", "mood", q.String(), "count", len(result.Songs))
	}

	if c.onResult != nil {
		c.onResult(out)
	}
	return out, true
}
