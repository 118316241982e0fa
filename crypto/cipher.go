package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"io"
)

// SectorKey is a per-sector, per-epoch AES-256-GCM key.
type SectorKey [32]byte

// NonceSize is the length of the random nonce prepended to every
// encrypted blob. Standard GCM nonce length.
const NonceSize = 12

// MaxMessageSize limits plaintext size (1MB) to prevent excessive
// memory usage.
const MaxMessageSize = 1024 * 1024

// GenerateSectorKey creates a new random sector key. Failure is a
// platform-level crypto failure.
func GenerateSectorKey() (SectorKey, error) {
	var key SectorKey
	if _, err := rand.Read(key[:]); err != nil {
		return SectorKey{}, err
	}
	return key, nil
}

// ImportSectorKey reconstructs a sector key from its raw 32-byte
// material. Any other length yields ErrMalformedKey.
func ImportSectorKey(raw []byte) (SectorKey, error) {
	var key SectorKey
	if len(raw) != len(key) || isZeroSlice(raw) {
		return SectorKey{}, ErrMalformedKey
	}
	copy(key[:], raw)
	return key, nil
}

// EncryptMessage encrypts and authenticates plaintext under a sector
// key. A fresh random nonce is generated per call; the nonce must never
// repeat for a given key, so it is never supplied by the caller. The
// returned blob is nonce||ciphertext and is self-describing.
func EncryptMessage(plaintext []byte, key SectorKey) ([]byte, error) {
	if len(plaintext) > MaxMessageSize {
		return nil, ErrMessageTooLarge
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	// Seal appends to the nonce slice, producing nonce||ciphertext.
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// DecryptMessage splits the nonce from a blob produced by
// EncryptMessage and attempts authenticated decryption. Every failure
// shape (wrong key, tampered ciphertext, truncated blob) is reported
// uniformly as ErrDecryptionFailed.
func DecryptMessage(blob []byte, key SectorKey) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	if len(blob) < NonceSize+gcm.Overhead() {
		return nil, ErrDecryptionFailed
	}

	plaintext, err := gcm.Open(nil, blob[:NonceSize], blob[NonceSize:], nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

// EncodeStandard encodes content for spaces not configured for
// encryption. Callers select this codec from the sector's declared
// security model, never from the shape of a blob.
func EncodeStandard(text string) []byte {
	return []byte(text)
}

// DecodeStandard decodes content from an unencrypted space.
func DecodeStandard(payload []byte) string {
	return string(payload)
}

func newGCM(key SectorKey) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
