// Package sectornet is the client-side engine for the sector network:
// end-to-end encryption, durable key management, and live state sync
// for channels and feeds, behind one session facade.
//
// A Session is created at sign-in and closed at sign-out. All key
// material lives in the session's keystore; nothing cryptographic is
// shared between sessions.
package sectornet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/sectornet/channel"
	"github.com/opd-ai/sectornet/config"
	"github.com/opd-ai/sectornet/crypto"
	"github.com/opd-ai/sectornet/feed"
	"github.com/opd-ai/sectornet/keystore"
	"github.com/opd-ai/sectornet/remote"
	"github.com/opd-ai/sectornet/rotation"
)

var (
	// ErrNoIdentity means the session has no identity keypair yet;
	// CreateIdentity must run first.
	ErrNoIdentity = errors.New("no identity in session")

	// ErrIdentityExists means CreateIdentity was called on a session
	// that already holds an identity.
	ErrIdentityExists = errors.New("session already has an identity")

	// ErrSessionClosed means the session has been closed.
	ErrSessionClosed = errors.New("session closed")
)

// Options configures a session. Use NewOptions for defaults.
type Options struct {
	// Config holds the engine tunables; usually from config.Load.
	Config config.Config

	// MasterPassword protects the durable keystore at rest.
	MasterPassword []byte

	// Store overrides the configured blob store. Mostly for tests.
	Store keystore.BlobStore
}

// NewOptions returns Options with the default configuration.
func NewOptions() *Options {
	return &Options{Config: config.Default()}
}

// Session is one signed-in engine instance. All methods are safe for
// concurrent use.
type Session struct {
	cfg       config.Config
	connector remote.Connector
	directory remote.ProfileDirectory
	keys      *keystore.Keystore
	store     keystore.BlobStore

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	coordinators map[string]*rotation.Coordinator
	closed       bool
}

// New opens a session: it sets up the durable blob store, restores any
// persisted keystore, and is then ready to open channels and feeds.
// The connector and directory address the hosting network.
func New(options *Options, connector remote.Connector, directory remote.ProfileDirectory) (*Session, error) {
	if options == nil {
		options = NewOptions()
	}
	if err := options.Config.Validate(); err != nil {
		return nil, err
	}

	store := options.Store
	if store == nil {
		var err error
		switch options.Config.StorageBackend {
		case config.BackendBadger:
			store, err = keystore.NewBadgerStore(options.Config.StoragePath, options.MasterPassword)
		default:
			store, err = keystore.NewFileStore(options.Config.StoragePath, options.MasterPassword)
		}
		if err != nil {
			return nil, fmt.Errorf("open keystore storage: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Session{
		cfg:          options.Config,
		connector:    connector,
		directory:    directory,
		keys:         keystore.New(store),
		store:        store,
		ctx:          ctx,
		cancel:       cancel,
		coordinators: make(map[string]*rotation.Coordinator),
	}

	restored, err := s.keys.Restore(ctx)
	if err != nil {
		cancel()
		store.Close()
		return nil, fmt.Errorf("restore keystore: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"backend":  options.Config.StorageBackend,
		"restored": restored,
	}).Debug("session opened")
	return s, nil
}

// HasIdentity reports whether the session holds an identity keypair.
func (s *Session) HasIdentity() bool {
	return s.keys.HasIdentity()
}

// CreateIdentity generates a fresh identity keypair, registers the
// username and public key on the profile directory, and persists the
// keystore. The private key never leaves the session.
func (s *Session) CreateIdentity(ctx context.Context, username string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if strings.TrimSpace(username) == "" {
		return errors.New("username cannot be empty")
	}
	if s.keys.HasIdentity() {
		return ErrIdentityExists
	}

	pair, err := crypto.GenerateIdentityKeyPair()
	if err != nil {
		return err
	}

	if err := s.directory.RegisterProfile(ctx, username, crypto.ExportPublicKey(pair.Public)); err != nil {
		crypto.WipeIdentityKeyPair(pair)
		return fmt.Errorf("register profile: %w", err)
	}

	s.keys.SetIdentity(pair)
	if err := s.keys.Persist(ctx); err != nil {
		return err
	}

	logrus.WithField("username", username).Info("identity created")
	return nil
}

// AdoptSectorKey unwraps a sector key delivered for this user, records
// it under (sectorID, epoch), and persists the keystore. Adopting the
// same key twice is a no-op.
func (s *Session) AdoptSectorKey(ctx context.Context, sectorID string, epoch uint64, wrapped []byte) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	pair := s.keys.Identity()
	if pair == nil {
		return ErrNoIdentity
	}

	key, err := crypto.UnwrapSectorKey(wrapped, pair)
	if err != nil {
		return fmt.Errorf("adopt key for %s epoch %d: %w", sectorID, epoch, err)
	}

	if err := s.keys.Put(sectorID, epoch, key); err != nil {
		return err
	}
	return s.keys.Persist(ctx)
}

// OpenChannel opens a live session on one channel of a sector. The
// caller owns the returned session and must Close it.
func (s *Session) OpenChannel(ctx context.Context, sectorID, channelName string, model remote.SecurityModel) (*channel.Session, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	cs := channel.NewSession(sectorID, channelName, model, s.connector.Sector(sectorID), s.keys, channel.Config{
		PageSize:          s.cfg.PageSizeMessages,
		PollInterval:      s.cfg.MessagePollInterval,
		StatePollInterval: s.cfg.CryptoPollInterval,
	})
	if err := cs.Open(ctx); err != nil {
		return nil, err
	}
	return cs, nil
}

// OpenSectorFeed opens a live view of one sector's content feed.
func (s *Session) OpenSectorFeed(ctx context.Context, sectorID string, model remote.SecurityModel) (*feed.Feed, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	f := feed.NewSectorFeed(sectorID, model, s.connector.Sector(sectorID), s.keys, feed.Config{
		PageSize:     s.cfg.PageSizeFeed,
		PollInterval: s.cfg.MessagePollInterval,
	})
	if err := f.Open(ctx); err != nil {
		return nil, err
	}
	return f, nil
}

// OpenGlobalFeed opens a live view of the public cross-sector feed.
func (s *Session) OpenGlobalFeed(ctx context.Context, svc remote.GlobalFeedService) (*feed.Feed, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	f := feed.NewGlobalFeed(svc, feed.Config{
		PageSize:     s.cfg.PageSizeFeed,
		PollInterval: s.cfg.MessagePollInterval,
	})
	if err := f.Open(ctx); err != nil {
		return nil, err
	}
	return f, nil
}

// Rotate performs a key rotation for one sector. Sequential rotations
// for the same sector reuse one coordinator, so overlapping calls are
// refused rather than raced.
func (s *Session) Rotate(ctx context.Context, sectorID string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if !s.keys.HasIdentity() {
		return ErrNoIdentity
	}
	return s.coordinator(sectorID).Rotate(ctx)
}

// RotationState returns the rotation phase for one sector, for
// progress display.
func (s *Session) RotationState(sectorID string) rotation.State {
	return s.coordinator(sectorID).State()
}

func (s *Session) coordinator(sectorID string) *rotation.Coordinator {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.coordinators[sectorID]
	if !ok {
		c = rotation.NewCoordinator(sectorID, s.connector.Sector(sectorID), s.directory, s.keys)
		s.coordinators[sectorID] = c
	}
	return c
}

// Logout deletes the durable keystore blob and drops all key material,
// then closes the session. Irreversible: historical encrypted content
// becomes unreadable until keys are redelivered by a future rotation.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.keys.Clear(ctx); err != nil {
		return err
	}
	return s.Close()
}

// Close releases the session without touching the durable blob. The
// next session restores the keystore from it.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	return s.store.Close()
}

func (s *Session) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	return nil
}
