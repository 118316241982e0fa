package crypto

import (
	"crypto/subtle"
	"errors"
	"runtime"
)

// SecureWipe attempts to securely erase the contents of a byte slice
// containing sensitive data. It returns an error if the byte slice is nil.
func SecureWipe(data []byte) error {
	if data == nil {
		return errors.New("cannot wipe nil data")
	}

	// Overwrite the data with zeros
	// Using subtle.ConstantTimeCompare's byteXor operation to avoid
	// potential compiler optimizations that might remove the overwrite
	zeros := make([]byte, len(data))
	subtle.ConstantTimeCompare(data, zeros)
	copy(data, zeros)

	// Attempt to prevent the compiler from optimizing out the zeroing
	runtime.KeepAlive(data)
	runtime.KeepAlive(zeros)

	return nil
}

// ZeroBytes erases the contents of a byte slice containing sensitive data.
// This is a convenience function that ignores the error from SecureWipe.
func ZeroBytes(data []byte) {
	_ = SecureWipe(data)
}

// WipeIdentityKeyPair securely erases the private half of an identity
// keypair. This should be called when the pair is no longer needed.
func WipeIdentityKeyPair(pair *IdentityKeyPair) error {
	if pair == nil {
		return errors.New("cannot wipe nil IdentityKeyPair")
	}
	return SecureWipe(pair.Private[:])
}

// WipeSectorKey securely erases a sector key's material.
func WipeSectorKey(key *SectorKey) error {
	if key == nil {
		return errors.New("cannot wipe nil SectorKey")
	}
	return SecureWipe(key[:])
}
