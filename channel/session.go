package channel

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/sectornet/crypto"
	"github.com/opd-ai/sectornet/keystore"
	"github.com/opd-ai/sectornet/remote"
	"github.com/opd-ai/sectornet/stream"
)

// Config holds the session's tunables.
type Config struct {
	PageSize          int
	PollInterval      time.Duration
	StatePollInterval time.Duration
}

// DefaultConfig returns the standard page size and polling cadence.
func DefaultConfig() Config {
	return Config{
		PageSize:          30,
		PollInterval:      3 * time.Second,
		StatePollInterval: 5 * time.Second,
	}
}

// UpdateCallback is invoked after the loaded message window changes.
type UpdateCallback func()

// Session is one active channel view: a stream cursor plus the
// decryption pipeline and send path for that channel.
type Session struct {
	sectorID    string
	channelName string
	model       remote.SecurityModel
	svc         remote.SectorService
	keys        *keystore.Keystore
	cfg         Config

	cursor      *stream.Cursor
	msgPoller   *stream.Poller
	statePoller *stream.Poller

	mu         sync.Mutex
	state      remote.CryptoState
	stateKnown bool
	active     bool
	sending    bool
	onUpdate   UpdateCallback
}

// NewSession creates a session for one channel. The session does
// nothing until Open is called.
func NewSession(sectorID, channelName string, model remote.SecurityModel, svc remote.SectorService, keys *keystore.Keystore, cfg Config) *Session {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultConfig().PageSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	if cfg.StatePollInterval <= 0 {
		cfg.StatePollInterval = DefaultConfig().StatePollInterval
	}

	s := &Session{
		sectorID:    sectorID,
		channelName: channelName,
		model:       model,
		svc:         svc,
		keys:        keys,
		cfg:         cfg,
	}
	s.cursor = stream.NewCursor(&messageSource{svc: svc, channel: channelName}, cfg.PageSize)
	s.msgPoller = stream.NewPoller(cfg.PollInterval, s.pollTick)
	s.statePoller = stream.NewPoller(cfg.StatePollInterval, s.statePollTick)
	return s
}

// messageSource adapts the sector service's channel message calls to
// the generic stream source.
type messageSource struct {
	svc     remote.SectorService
	channel string
}

func (m *messageSource) FetchLatest(ctx context.Context, n int) ([]remote.Item, error) {
	return m.svc.GetMessages(ctx, m.channel, n, "")
}

func (m *messageSource) FetchBefore(ctx context.Context, beforeID string, n int) ([]remote.Item, error) {
	return m.svc.GetMessages(ctx, m.channel, n, beforeID)
}

func (m *messageSource) FetchAfter(ctx context.Context, afterID string) ([]remote.Item, error) {
	return m.svc.GetNewMessages(ctx, m.channel, afterID)
}

// Open loads the newest page and starts the polling loops. E2EE
// sessions also refresh the sector's crypto state immediately so the
// send guard has a current view.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return nil
	}
	s.active = true
	s.mu.Unlock()

	if err := s.cursor.LoadInitial(ctx); err != nil {
		return fmt.Errorf("open channel %s: %w", s.channelName, err)
	}

	if s.model == remote.SecurityE2EE {
		s.refreshCryptoState(ctx)
		s.statePoller.Start(ctx)
	}
	s.msgPoller.Start(ctx)

	logrus.WithFields(logrus.Fields{
		"sector":  s.sectorID,
		"channel": s.channelName,
		"loaded":  s.cursor.Len(),
	}).Debug("channel session opened")
	return nil
}

// Close stops the polling loops synchronously. No poll fires after
// Close returns, and results of fetches still in flight are discarded.
func (s *Session) Close() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	s.mu.Unlock()

	s.msgPoller.Stop()
	s.statePoller.Stop()
	s.cursor.Close()
}

// OnUpdate registers a callback invoked after new messages arrive.
func (s *Session) OnUpdate(callback UpdateCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onUpdate = callback
}

func (s *Session) pollTick(ctx context.Context) {
	before := s.cursor.Len()
	if err := s.cursor.Poll(ctx); err != nil {
		// Intermittent polling failures are expected; the next tick
		// retries.
		logrus.WithError(err).WithField("channel", s.channelName).Debug("message poll failed")
		return
	}
	if s.cursor.Len() == before {
		return
	}

	s.mu.Lock()
	callback := s.onUpdate
	active := s.active
	s.mu.Unlock()
	if active && callback != nil {
		callback()
	}
}

func (s *Session) statePollTick(ctx context.Context) {
	s.refreshCryptoState(ctx)
}

func (s *Session) refreshCryptoState(ctx context.Context) {
	state, err := s.svc.GetCryptoState(ctx)
	if err != nil {
		logrus.WithError(err).WithField("sector", s.sectorID).Debug("crypto state poll failed")
		return
	}

	s.mu.Lock()
	s.state = state
	s.stateKnown = true
	s.mu.Unlock()
}

// LoadOlder extends the window backwards; intended to be driven by the
// user scrolling into history.
func (s *Session) LoadOlder(ctx context.Context) error {
	return s.cursor.LoadOlder(ctx)
}

// HasOlder reports whether more history may remain on the server.
func (s *Session) HasOlder() bool {
	return s.cursor.HasOlder()
}

// Messages returns the decrypted view of the loaded window, oldest to
// newest. A message whose epoch key is missing is reported with the
// key-unavailable marker; a message that fails authenticated
// decryption is reported undecryptable. Neither blocks the rest of the
// page.
func (s *Session) Messages() []Message {
	items := s.cursor.Items()
	messages := make([]Message, 0, len(items))
	for _, item := range items {
		messages = append(messages, s.render(item))
	}
	return messages
}

func (s *Session) render(item remote.Item) Message {
	msg := Message{
		ID:        item.ID,
		Author:    item.Author,
		KeyEpoch:  item.KeyEpoch,
		CreatedAt: item.CreatedAt,
		Status:    MessageOK,
	}

	if s.model == remote.SecurityStandard {
		msg.Text = crypto.DecodeStandard(item.Payload)
		return msg
	}

	key, ok := s.keys.Get(s.sectorID, item.KeyEpoch)
	if !ok {
		msg.Status = MessageKeyUnavailable
		return msg
	}

	plaintext, err := crypto.DecryptMessage(item.Payload, key)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"sector":  s.sectorID,
			"channel": s.channelName,
			"message": item.ID,
			"epoch":   item.KeyEpoch,
		}).Warn("message failed authenticated decryption")
		msg.Status = MessageUndecryptable
		return msg
	}

	msg.Text = string(plaintext)
	return msg
}

// Send encrypts text under the sector's current epoch key and submits
// it. While the sector reports rekeyRequired the send is refused
// locally with ErrRekeyRequired and no network call is made: the
// current epoch is about to be considered compromised and nothing new
// should be encrypted under it. Blank text and overlapping sends are
// no-ops.
func (s *Session) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.sending {
		s.mu.Unlock()
		return nil
	}
	s.sending = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.sending = false
		s.mu.Unlock()
	}()

	payload, epoch, err := s.prepareOutbound(ctx, text)
	if err != nil {
		return err
	}

	if err := s.svc.SendMessage(ctx, s.channelName, payload, epoch); err != nil {
		return fmt.Errorf("send to %s: %w", s.channelName, err)
	}
	return nil
}

func (s *Session) prepareOutbound(ctx context.Context, text string) ([]byte, uint64, error) {
	if s.model == remote.SecurityStandard {
		return crypto.EncodeStandard(text), 0, nil
	}

	state, err := s.cryptoState(ctx)
	if err != nil {
		return nil, 0, err
	}
	if state.RekeyRequired {
		return nil, 0, ErrRekeyRequired
	}

	key, ok := s.keys.Get(s.sectorID, state.CurrentKeyEpoch)
	if !ok {
		return nil, 0, fmt.Errorf("%w: sector %s epoch %d", ErrKeyUnavailable, s.sectorID, state.CurrentKeyEpoch)
	}

	payload, err := crypto.EncryptMessage([]byte(text), key)
	if err != nil {
		return nil, 0, err
	}
	return payload, state.CurrentKeyEpoch, nil
}

// cryptoState returns the polled state, fetching synchronously only
// when no poll has completed yet.
func (s *Session) cryptoState(ctx context.Context) (remote.CryptoState, error) {
	s.mu.Lock()
	if s.stateKnown {
		state := s.state
		s.mu.Unlock()
		return state, nil
	}
	s.mu.Unlock()

	state, err := s.svc.GetCryptoState(ctx)
	if err != nil {
		return remote.CryptoState{}, fmt.Errorf("crypto state for %s: %w", s.sectorID, err)
	}

	s.mu.Lock()
	s.state = state
	s.stateKnown = true
	s.mu.Unlock()
	return state, nil
}
