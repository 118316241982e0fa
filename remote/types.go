package remote

import "time"

// Principal identifies a user on the network.
type Principal string

// SecurityModel is a sector's declared content protection model. The
// model is sector configuration owned by the remote service; it is
// never inferred from the shape of a payload.
type SecurityModel uint8

const (
	// SecurityStandard means content is stored as plain encoded text and
	// access control is enforced by the remote service alone.
	SecurityStandard SecurityModel = iota
	// SecurityE2EE means content is encrypted under per-epoch sector
	// keys before it leaves the client.
	SecurityE2EE
)

// CryptoState is the remote-owned encryption state of one sector. Any
// epoch value it reports is authoritative, even if the local keystore
// has never seen it; an unknown epoch is a missing-key condition, not
// an error.
type CryptoState struct {
	CurrentKeyEpoch uint64
	RekeyRequired   bool
}

// Item is one element of a remote message or post stream. Payload is
// an opaque content blob; for end-to-end encrypted sectors it is a
// nonce-framed ciphertext under the (sector, KeyEpoch) key, for
// standard sectors it is encoded plain text and KeyEpoch is zero.
type Item struct {
	ID        string
	Author    Principal
	Payload   []byte
	KeyEpoch  uint64
	CreatedAt time.Time
}

// WrappedKey pairs a member with a sector key wrapped under that
// member's public identity key.
type WrappedKey struct {
	Member Principal
	Key    []byte
}
