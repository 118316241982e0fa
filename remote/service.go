package remote

import "context"

// SectorService is the per-sector surface of the remote service.
//
// Page-returning calls (GetMessages, GetFeed) return items newest
// first; beforeID is an exclusive upper bound, and an empty beforeID
// requests the newest page. After-returning calls (GetNewMessages,
// GetNewFeedItems) return items oldest first, strictly newer than
// afterID; "0" means everything.
type SectorService interface {
	// GetMembers returns the sector's current member list.
	GetMembers(ctx context.Context) ([]Principal, error)

	// GetCryptoState returns the sector's authoritative crypto state.
	GetCryptoState(ctx context.Context) (CryptoState, error)

	// SubmitKeyRotation submits a complete wrapped-key batch covering
	// every current member. The service is the sole arbiter of whether
	// the new epoch becomes current; rejection leaves the epoch
	// unchanged.
	SubmitKeyRotation(ctx context.Context, batch []WrappedKey) error

	// SendMessage posts a content blob to a channel under a key epoch.
	SendMessage(ctx context.Context, channel string, payload []byte, epoch uint64) error

	// GetMessages returns up to pageSize channel messages older than
	// beforeID, newest first.
	GetMessages(ctx context.Context, channel string, pageSize int, beforeID string) ([]Item, error)

	// GetNewMessages returns channel messages newer than afterID,
	// oldest first.
	GetNewMessages(ctx context.Context, channel string, afterID string) ([]Item, error)

	// GetFeed returns up to pageSize sector feed posts older than
	// beforeID, newest first.
	GetFeed(ctx context.Context, pageSize int, beforeID string) ([]Item, error)

	// GetNewFeedItems returns sector feed posts newer than afterID,
	// oldest first.
	GetNewFeedItems(ctx context.Context, afterID string) ([]Item, error)
}

// GlobalFeedService is the cross-sector public feed surface. Global
// feed content is never encrypted.
type GlobalFeedService interface {
	GetGlobalFeed(ctx context.Context, pageSize int, beforeID string) ([]Item, error)
	GetNewGlobalItems(ctx context.Context, afterID string) ([]Item, error)
}

// ProfileDirectory resolves principals to registered public identity
// keys and registers new profiles.
type ProfileDirectory interface {
	// GetPublicKey returns the serialized public identity key registered
	// for a principal, or ErrProfileNotFound.
	GetPublicKey(ctx context.Context, principal Principal) ([]byte, error)

	// RegisterProfile registers a username and public identity key for
	// the calling principal. The registered key is immutable for that
	// identity.
	RegisterProfile(ctx context.Context, username string, publicKey []byte) error
}

// Connector hands out a SectorService bound to one sector, the way the
// hosting network addresses each community space as its own endpoint.
type Connector interface {
	Sector(id string) SectorService
}
