package crypto

import "errors"

var (
	// ErrMalformedKey is returned when imported key material is corrupt
	// or does not match the expected role.
	ErrMalformedKey = errors.New("malformed key material")

	// ErrDecryptionFailed is returned for any content decryption failure.
	// Wrong key, tampered ciphertext, and truncated blobs are reported
	// identically so callers cannot be used as a decryption oracle.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrUnwrapFailed is returned for any sector key unwrap failure.
	ErrUnwrapFailed = errors.New("key unwrap failed")

	// ErrMessageTooLarge is returned when plaintext exceeds MaxMessageSize.
	ErrMessageTooLarge = errors.New("message too large")
)
