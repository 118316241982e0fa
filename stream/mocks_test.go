package stream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/opd-ai/sectornet/remote"
)

// fakeSource serves a fixed oldest-to-newest backing slice the way the
// remote service would: newest-first pages for latest/before queries,
// oldest-first for after queries.
type fakeSource struct {
	mu    sync.Mutex
	items []remote.Item

	latestCalls   int
	beforeCalls   int
	afterCalls    int
	beforeAnchors []string

	err error

	// blockAfter, when non-nil, makes FetchAfter wait until the channel
	// is closed before returning.
	blockAfter chan struct{}
}

// makeItems builds n items with zero-padded sortable IDs and strictly
// increasing timestamps.
func makeItems(n int) []remote.Item {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	items := make([]remote.Item, n)
	for i := range items {
		items[i] = remote.Item{
			ID:        fmt.Sprintf("%05d", i+1),
			Author:    "member-a",
			Payload:   []byte(fmt.Sprintf("item %d", i+1)),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
	}
	return items
}

func (f *fakeSource) FetchLatest(ctx context.Context, n int) ([]remote.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latestCalls++
	if f.err != nil {
		return nil, f.err
	}

	start := len(f.items) - n
	if start < 0 {
		start = 0
	}
	return reversedCopy(f.items[start:]), nil
}

func (f *fakeSource) FetchBefore(ctx context.Context, beforeID string, n int) ([]remote.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.beforeCalls++
	f.beforeAnchors = append(f.beforeAnchors, beforeID)
	if f.err != nil {
		return nil, f.err
	}

	end := 0
	for i, item := range f.items {
		if item.ID < beforeID {
			end = i + 1
		}
	}
	start := end - n
	if start < 0 {
		start = 0
	}
	return reversedCopy(f.items[start:end]), nil
}

func (f *fakeSource) FetchAfter(ctx context.Context, afterID string) ([]remote.Item, error) {
	f.mu.Lock()
	block := f.blockAfter
	f.afterCalls++
	err := f.err
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	var out []remote.Item
	for _, item := range f.items {
		if item.ID > afterID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeSource) append(items ...remote.Item) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, items...)
}

func reversedCopy(items []remote.Item) []remote.Item {
	out := make([]remote.Item, len(items))
	for i, item := range items {
		out[len(items)-1-i] = item
	}
	return out
}
