package channel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/opd-ai/sectornet/remote"
)

// fakeSectorService implements remote.SectorService over in-memory
// message storage.
type fakeSectorService struct {
	mu       sync.Mutex
	messages map[string][]remote.Item // channel -> oldest..newest
	state    remote.CryptoState

	stateCalls int
	sendCalls  int
	sent       []sentMessage
	sendErr    error
}

type sentMessage struct {
	channel string
	payload []byte
	epoch   uint64
}

func newFakeSectorService() *fakeSectorService {
	return &fakeSectorService{
		messages: make(map[string][]remote.Item),
		state:    remote.CryptoState{CurrentKeyEpoch: 1},
	}
}

func (f *fakeSectorService) seed(channel string, n int, epoch uint64, payload func(i int) []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		f.messages[channel] = append(f.messages[channel], remote.Item{
			ID:        fmt.Sprintf("%05d", len(f.messages[channel])+1),
			Author:    "member-a",
			Payload:   payload(i),
			KeyEpoch:  epoch,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
	}
}

func (f *fakeSectorService) GetMembers(ctx context.Context) ([]remote.Principal, error) {
	return nil, nil
}

func (f *fakeSectorService) GetCryptoState(ctx context.Context) (remote.CryptoState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stateCalls++
	return f.state, nil
}

func (f *fakeSectorService) SubmitKeyRotation(ctx context.Context, batch []remote.WrappedKey) error {
	return nil
}

func (f *fakeSectorService) SendMessage(ctx context.Context, channel string, payload []byte, epoch uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendCalls++
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentMessage{channel: channel, payload: payload, epoch: epoch})
	f.messages[channel] = append(f.messages[channel], remote.Item{
		ID:        fmt.Sprintf("%05d", len(f.messages[channel])+1),
		Author:    "self",
		Payload:   payload,
		KeyEpoch:  epoch,
		CreatedAt: time.Now(),
	})
	return nil
}

func (f *fakeSectorService) GetMessages(ctx context.Context, channel string, pageSize int, beforeID string) ([]remote.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := f.messages[channel]

	end := len(items)
	if beforeID != "" {
		end = 0
		for i, item := range items {
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
		page = append(page, items[i])
	}
	return page, nil
}

func (f *fakeSectorService) GetNewMessages(ctx context.Context, channel string, afterID string) ([]remote.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []remote.Item
	for _, item := range f.messages[channel] {
		if item.ID > afterID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeSectorService) GetFeed(ctx context.Context, pageSize int, beforeID string) ([]remote.Item, error) {
	return f.GetMessages(ctx, "feed", pageSize, beforeID)
}

func (f *fakeSectorService) GetNewFeedItems(ctx context.Context, afterID string) ([]remote.Item, error) {
	return f.GetNewMessages(ctx, "feed", afterID)
}

func (f *fakeSectorService) setState(state remote.CryptoState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = state
}

func (f *fakeSectorService) sendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sendCalls
}
