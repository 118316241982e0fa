package stream

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/sectornet/remote"
)

// oldestAnchor is the sentinel anchor used by Poll before any item has
// been loaded; the remote service treats it as "everything".
const oldestAnchor = "0"

// Source is the transport behind a Cursor. FetchLatest and FetchBefore
// return pages newest first; FetchAfter returns items oldest first.
type Source interface {
	FetchLatest(ctx context.Context, n int) ([]remote.Item, error)
	FetchBefore(ctx context.Context, beforeID string, n int) ([]remote.Item, error)
	FetchAfter(ctx context.Context, afterID string) ([]remote.Item, error)
}

// Cursor maintains a paginated window over one remote stream. All
// methods are safe for interleaved use from multiple goroutines; the
// gap-free invariant is preserved by serializing each operation kind
// with its own in-flight flag.
type Cursor struct {
	source   Source
	pageSize int

	mu             sync.Mutex
	items          []remote.Item
	hasOlder       bool
	loadingInitial bool
	loadingOlder   bool
	polling        bool
	closed         bool
}

// NewCursor creates a cursor over source with a fixed page size.
func NewCursor(source Source, pageSize int) *Cursor {
	return &Cursor{
		source:   source,
		pageSize: pageSize,
		hasOlder: true,
	}
}

// LoadInitial fetches the newest page and replaces the window with it.
// Callers must let LoadInitial finish before other operations on the
// cursor begin. A call while another LoadInitial is in flight is a
// no-op.
func (c *Cursor) LoadInitial(ctx context.Context) error {
	c.mu.Lock()
	if c.closed || c.loadingInitial {
		c.mu.Unlock()
		return nil
	}
	c.loadingInitial = true
	c.mu.Unlock()

	page, err := c.source.FetchLatest(ctx, c.pageSize)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadingInitial = false
	if err != nil {
		return err
	}
	if c.closed {
		return nil
	}

	reverse(page)
	c.items = page
	c.hasOlder = len(page) == c.pageSize
	return nil
}

// LoadOlder fetches the page preceding the oldest loaded item and
// prepends it. It is a no-op while another LoadOlder is in flight, when
// the stream has no older items, or when the window is empty (there is
// nothing to anchor the query to). The fetch is idempotent relative to
// its anchor: repeating it without an intervening LoadInitial yields
// the same page.
func (c *Cursor) LoadOlder(ctx context.Context) error {
	c.mu.Lock()
	if c.closed || c.loadingOlder || !c.hasOlder || len(c.items) == 0 {
		c.mu.Unlock()
		return nil
	}
	c.loadingOlder = true
	anchor := c.items[0].ID
	c.mu.Unlock()

	page, err := c.source.FetchBefore(ctx, anchor, c.pageSize)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadingOlder = false
	if err != nil {
		return err
	}
	if c.closed {
		return nil
	}

	if len(page) < c.pageSize {
		c.hasOlder = false
	}
	reverse(page)
	c.items = append(page, c.items...)
	return nil
}

// Poll fetches items newer than the newest loaded item and appends
// them in arrival order. Concurrent polls are skipped so the same page
// is never appended twice; Poll never changes hasOlder. Poll may run
// while LoadOlder is in flight: one prepends, the other appends, and
// neither touches the other's anchor.
func (c *Cursor) Poll(ctx context.Context) error {
	c.mu.Lock()
	if c.closed || c.polling || c.loadingInitial {
		c.mu.Unlock()
		return nil
	}
	c.polling = true
	anchor := oldestAnchor
	if n := len(c.items); n > 0 {
		anchor = c.items[n-1].ID
	}
	c.mu.Unlock()

	fresh, err := c.source.FetchAfter(ctx, anchor)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.polling = false
	if err != nil {
		// Polling failures are routine (the next tick retries); log at
		// debug and surface the error to the caller.
		logrus.WithError(err).Debug("stream poll failed")
		return err
	}
	if c.closed || len(fresh) == 0 {
		return nil
	}

	c.items = append(c.items, fresh...)
	return nil
}

// Items returns a copy of the loaded window, oldest to newest.
func (c *Cursor) Items() []remote.Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]remote.Item, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of loaded items.
func (c *Cursor) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// HasOlder reports whether older items may remain on the server.
func (c *Cursor) HasOlder() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasOlder
}

// Close marks the cursor inactive. Results of fetches still in flight
// are discarded instead of being applied.
func (c *Cursor) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func reverse(items []remote.Item) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}
