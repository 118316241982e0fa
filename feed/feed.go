package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/sectornet/crypto"
	"github.com/opd-ai/sectornet/keystore"
	"github.com/opd-ai/sectornet/remote"
	"github.com/opd-ai/sectornet/stream"
)

// PostStatus describes the decryption outcome for one post.
type PostStatus uint8

const (
	// PostOK means the post body is readable.
	PostOK PostStatus = iota
	// PostKeyUnavailable means the post's epoch key has not been
	// distributed to this user.
	PostKeyUnavailable
	// PostUndecryptable means authenticated decryption failed.
	PostUndecryptable
)

// Post is the decrypted view of one feed item.
type Post struct {
	ID        string
	Author    remote.Principal
	Body      string
	KeyEpoch  uint64
	CreatedAt time.Time
	Status    PostStatus
}

// Config holds a feed's page size and polling cadence.
type Config struct {
	PageSize     int
	PollInterval time.Duration
}

// DefaultConfig returns the standard feed page size and cadence.
func DefaultConfig() Config {
	return Config{
		PageSize:     20,
		PollInterval: 3 * time.Second,
	}
}

// Feed is one active feed view over a stream cursor. The zero value is
// not usable; construct with NewSectorFeed or NewGlobalFeed.
type Feed struct {
	name     string
	sectorID string
	model    remote.SecurityModel
	keys     *keystore.Keystore

	cursor *stream.Cursor
	poller *stream.Poller

	mu       sync.Mutex
	active   bool
	onUpdate func()
}

// NewSectorFeed creates a feed over one sector's content stream. For
// end-to-end encrypted sectors, keys must be the session keystore.
func NewSectorFeed(sectorID string, model remote.SecurityModel, svc remote.SectorService, keys *keystore.Keystore, cfg Config) *Feed {
	f := newFeed("sector:"+sectorID, sectorID, model, keys, cfg)
	f.cursor = stream.NewCursor(&sectorFeedSource{svc: svc}, f.pageSize(cfg))
	return f
}

// NewGlobalFeed creates a feed over the public cross-sector stream.
// Global content is never encrypted.
func NewGlobalFeed(svc remote.GlobalFeedService, cfg Config) *Feed {
	f := newFeed("global", "", remote.SecurityStandard, nil, cfg)
	f.cursor = stream.NewCursor(&globalFeedSource{svc: svc}, f.pageSize(cfg))
	return f
}

func newFeed(name, sectorID string, model remote.SecurityModel, keys *keystore.Keystore, cfg Config) *Feed {
	f := &Feed{
		name:     name,
		sectorID: sectorID,
		model:    model,
		keys:     keys,
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = DefaultConfig().PollInterval
	}
	f.poller = stream.NewPoller(interval, f.pollTick)
	return f
}

func (f *Feed) pageSize(cfg Config) int {
	if cfg.PageSize > 0 {
		return cfg.PageSize
	}
	return DefaultConfig().PageSize
}

type sectorFeedSource struct {
	svc remote.SectorService
}

func (s *sectorFeedSource) FetchLatest(ctx context.Context, n int) ([]remote.Item, error) {
	return s.svc.GetFeed(ctx, n, "")
}

func (s *sectorFeedSource) FetchBefore(ctx context.Context, beforeID string, n int) ([]remote.Item, error) {
	return s.svc.GetFeed(ctx, n, beforeID)
}

func (s *sectorFeedSource) FetchAfter(ctx context.Context, afterID string) ([]remote.Item, error) {
	return s.svc.GetNewFeedItems(ctx, afterID)
}

type globalFeedSource struct {
	svc remote.GlobalFeedService
}

func (g *globalFeedSource) FetchLatest(ctx context.Context, n int) ([]remote.Item, error) {
	return g.svc.GetGlobalFeed(ctx, n, "")
}

func (g *globalFeedSource) FetchBefore(ctx context.Context, beforeID string, n int) ([]remote.Item, error) {
	return g.svc.GetGlobalFeed(ctx, n, beforeID)
}

func (g *globalFeedSource) FetchAfter(ctx context.Context, afterID string) ([]remote.Item, error) {
	return g.svc.GetNewGlobalItems(ctx, afterID)
}

// Open loads the newest page and starts polling.
func (f *Feed) Open(ctx context.Context) error {
	f.mu.Lock()
	if f.active {
		f.mu.Unlock()
		return nil
	}
	f.active = true
	f.mu.Unlock()

	if err := f.cursor.LoadInitial(ctx); err != nil {
		return fmt.Errorf("open feed %s: %w", f.name, err)
	}
	f.poller.Start(ctx)
	return nil
}

// Close stops polling synchronously and discards in-flight results.
func (f *Feed) Close() {
	f.mu.Lock()
	if !f.active {
		f.mu.Unlock()
		return
	}
	f.active = false
	f.mu.Unlock()

	f.poller.Stop()
	f.cursor.Close()
}

// OnUpdate registers a callback invoked after new posts arrive.
func (f *Feed) OnUpdate(callback func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onUpdate = callback
}

func (f *Feed) pollTick(ctx context.Context) {
	before := f.cursor.Len()
	if err := f.cursor.Poll(ctx); err != nil {
		logrus.WithError(err).WithField("feed", f.name).Debug("feed poll failed")
		return
	}
	if f.cursor.Len() == before {
		return
	}

	f.mu.Lock()
	callback := f.onUpdate
	active := f.active
	f.mu.Unlock()
	if active && callback != nil {
		callback()
	}
}

// LoadOlder extends the window backwards.
func (f *Feed) LoadOlder(ctx context.Context) error {
	return f.cursor.LoadOlder(ctx)
}

// HasOlder reports whether more history may remain on the server.
func (f *Feed) HasOlder() bool {
	return f.cursor.HasOlder()
}

// Posts returns the decrypted view of the loaded window, oldest to
// newest.
func (f *Feed) Posts() []Post {
	items := f.cursor.Items()
	posts := make([]Post, 0, len(items))
	for _, item := range items {
		posts = append(posts, f.render(item))
	}
	return posts
}

func (f *Feed) render(item remote.Item) Post {
	post := Post{
		ID:        item.ID,
		Author:    item.Author,
		KeyEpoch:  item.KeyEpoch,
		CreatedAt: item.CreatedAt,
		Status:    PostOK,
	}

	if f.model == remote.SecurityStandard {
		post.Body = crypto.DecodeStandard(item.Payload)
		return post
	}

	key, ok := f.keys.Get(f.sectorID, item.KeyEpoch)
	if !ok {
		post.Status = PostKeyUnavailable
		return post
	}

	plaintext, err := crypto.DecryptMessage(item.Payload, key)
	if err != nil {
		post.Status = PostUndecryptable
		return post
	}
	post.Body = string(plaintext)
	return post
}
