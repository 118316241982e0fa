package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/opd-ai/sectornet/remote"
)

// fakeFeedService implements both remote.SectorService and
// remote.GlobalFeedService over one in-memory item list.
type fakeFeedService struct {
	mu    sync.Mutex
	items []remote.Item // oldest..newest
}

func newFakeFeedService() *fakeFeedService {
	return &fakeFeedService{}
}

func (f *fakeFeedService) seed(n int, epoch uint64, payload func(i int) []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		f.items = append(f.items, remote.Item{
			ID:        fmt.Sprintf("%05d", len(f.items)+1),
			Author:    "member-a",
			Payload:   payload(i),
			KeyEpoch:  epoch,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
	}
}

func (f *fakeFeedService) page(pageSize int, beforeID string) []remote.Item {
	f.mu.Lock()
	defer f.mu.Unlock()

	end := len(f.items)
	if beforeID != "" {
		end = 0
		for i, item := range f.items {
			if item.ID < beforeID {
				end = i + 1
			}
		}
	}
	start := end - pageSize
	if start < 0 {
		start = 0
	}

	page := make([]remote.Item, 0, end-start)
	for i := end - 1; i >= start; i-- {
		page = append(page, f.items[i])
	}
	return page
}

func (f *fakeFeedService) after(afterID string) []remote.Item {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []remote.Item
	for _, item := range f.items {
		if item.ID > afterID {
			out = append(out, item)
		}
	}
	return out
}

func (f *fakeFeedService) GetFeed(ctx context.Context, pageSize int, beforeID string) ([]remote.Item, error) {
	return f.page(pageSize, beforeID), nil
}

func (f *fakeFeedService) GetNewFeedItems(ctx context.Context, afterID string) ([]remote.Item, error) {
	return f.after(afterID), nil
}

func (f *fakeFeedService) GetGlobalFeed(ctx context.Context, pageSize int, beforeID string) ([]remote.Item, error) {
	return f.page(pageSize, beforeID), nil
}

func (f *fakeFeedService) GetNewGlobalItems(ctx context.Context, afterID string) ([]remote.Item, error) {
	return f.after(afterID), nil
}

func (f *fakeFeedService) GetMembers(ctx context.Context) ([]remote.Principal, error) {
	return nil, nil
}

func (f *fakeFeedService) GetCryptoState(ctx context.Context) (remote.CryptoState, error) {
	return remote.CryptoState{CurrentKeyEpoch: 1}, nil
}

func (f *fakeFeedService) SubmitKeyRotation(ctx context.Context, batch []remote.WrappedKey) error {
	return nil
}

func (f *fakeFeedService) SendMessage(ctx context.Context, channel string, payload []byte, epoch uint64) error {
	return nil
}

func (f *fakeFeedService) GetMessages(ctx context.Context, channel string, pageSize int, beforeID string) ([]remote.Item, error) {
	return nil, nil
}

func (f *fakeFeedService) GetNewMessages(ctx context.Context, channel string, afterID string) ([]remote.Item, error) {
	return nil, nil
}
