package rotation

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/sectornet/crypto"
	"github.com/opd-ai/sectornet/keystore"
	"github.com/opd-ai/sectornet/remote"
)

// State names the coordinator's current phase, for UI progress display.
type State uint8

const (
	StateIdle State = iota
	StateCollectingMembers
	StateGeneratingKey
	StateWrappingPerMember
	StateSubmitting
	StatePersisting
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCollectingMembers:
		return "collecting members"
	case StateGeneratingKey:
		return "generating key"
	case StateWrappingPerMember:
		return "wrapping per member"
	case StateSubmitting:
		return "submitting"
	case StatePersisting:
		return "persisting"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Coordinator performs key rotations for one sector. It is safe for
// concurrent use; at most one rotation runs at a time.
type Coordinator struct {
	sectorID  string
	svc       remote.SectorService
	directory remote.ProfileDirectory
	keys      *keystore.Keystore

	mu      sync.Mutex
	state   State
	running bool
}

// NewCoordinator creates a rotation coordinator for one sector.
func NewCoordinator(sectorID string, svc remote.SectorService, directory remote.ProfileDirectory, keys *keystore.Keystore) *Coordinator {
	return &Coordinator{
		sectorID:  sectorID,
		svc:       svc,
		directory: directory,
		keys:      keys,
	}
}

// State returns the coordinator's current phase.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Coordinator) setState(state State) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

// Rotate generates a fresh sector key for the next epoch, wraps it for
// every current member, submits the batch, and on acceptance records
// the key locally and persists the keystore. On any error the local
// key ring is left exactly as it was.
func (c *Coordinator) Rotate(ctx context.Context) (err error) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return ErrRotationInProgress
	}
	c.running = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		if err != nil {
			c.state = StateFailed
		} else {
			c.state = StateIdle
		}
		c.mu.Unlock()
	}()

	c.setState(StateCollectingMembers)
	members, err := c.svc.GetMembers(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMembershipUnavailable, err)
	}
	if len(members) == 0 {
		return fmt.Errorf("%w: sector %s reported no members", ErrMembershipUnavailable, c.sectorID)
	}

	state, err := c.svc.GetCryptoState(ctx)
	if err != nil {
		return fmt.Errorf("crypto state for %s: %w", c.sectorID, err)
	}
	newEpoch := state.CurrentKeyEpoch + 1

	c.setState(StateGeneratingKey)
	key, err := crypto.GenerateSectorKey()
	if err != nil {
		return err
	}
	defer crypto.WipeSectorKey(&key)

	c.setState(StateWrappingPerMember)
	batch, err := c.wrapForMembers(ctx, key, members)
	if err != nil {
		return err
	}

	c.setState(StateSubmitting)
	if err := c.svc.SubmitKeyRotation(ctx, batch); err != nil {
		if remote.IsRejected(err) {
			return fmt.Errorf("%w: %v", ErrRotationRejected, err)
		}
		return fmt.Errorf("submit rotation for %s: %w", c.sectorID, err)
	}

	// The service has accepted epoch newEpoch; only now does the key
	// enter the local ring.
	c.setState(StatePersisting)
	if err := c.keys.Put(c.sectorID, newEpoch, key); err != nil {
		return fmt.Errorf("record epoch %d for %s: %w", newEpoch, c.sectorID, err)
	}
	if err := c.keys.Persist(ctx); err != nil {
		return fmt.Errorf("persist keystore after rotation: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"sector":  c.sectorID,
		"epoch":   newEpoch,
		"members": len(members),
	}).Info("sector key rotated")
	return nil
}

// wrapForMembers builds the complete wrapped-key batch. A single
// unresolvable member aborts the whole rotation; a partial batch would
// lock that member out of the new epoch.
func (c *Coordinator) wrapForMembers(ctx context.Context, key crypto.SectorKey, members []remote.Principal) ([]remote.WrappedKey, error) {
	batch := make([]remote.WrappedKey, 0, len(members))
	for _, member := range members {
		serialized, err := c.directory.GetPublicKey(ctx, member)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMemberKeyUnavailable, member, err)
		}
		publicKey, err := crypto.ImportPublicKey(serialized)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMemberKeyUnavailable, member, err)
		}
		wrapped, err := crypto.WrapSectorKey(key, publicKey)
		if err != nil {
			return nil, fmt.Errorf("wrap for %s: %w", member, err)
		}
		batch = append(batch, remote.WrappedKey{Member: member, Key: wrapped})
	}
	return batch, nil
}
