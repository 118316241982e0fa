package crypto

import (
	"crypto/rand"

	"golang.org/x/crypto/nacl/box"
)

// WrapSectorKey seals a sector key's raw material under a recipient's
// public identity key. An ephemeral sender key is generated internally,
// so there is no nonce to manage and the recipient needs nothing beyond
// their own private key to unwrap. Output size is bounded by the raw
// key length plus the sealed-box overhead.
func WrapSectorKey(key SectorKey, recipientPublic [32]byte) ([]byte, error) {
	return box.SealAnonymous(nil, key[:], &recipientPublic, rand.Reader)
}

// UnwrapSectorKey recovers a sector key wrapped for the holder of pair.
// Any structural or authentication mismatch yields the single opaque
// ErrUnwrapFailed.
func UnwrapSectorKey(wrapped []byte, pair *IdentityKeyPair) (SectorKey, error) {
	raw, ok := box.OpenAnonymous(nil, wrapped, &pair.Public, &pair.Private)
	if !ok {
		return SectorKey{}, ErrUnwrapFailed
	}

	key, err := ImportSectorKey(raw)
	if err != nil {
		return SectorKey{}, ErrUnwrapFailed
	}
	ZeroBytes(raw)
	return key, nil
}
