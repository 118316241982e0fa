package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"

	"golang.org/x/crypto/nacl/box"
)

// KeyRole restricts what an imported key half may be used for.
type KeyRole string

const (
	// RoleWrap marks a public key used to wrap sector keys for a recipient.
	RoleWrap KeyRole = "wrap"
	// RoleUnwrap marks a private key used to unwrap received sector keys.
	RoleUnwrap KeyRole = "unwrap"
)

// IdentityKeyPair represents a user's long-lived Curve25519 keypair.
//
// The pair is created once, when the user's profile is created, and is
// never rotated. It exists solely to wrap and unwrap sector keys.
type IdentityKeyPair struct {
	Public  [32]byte
	Private [32]byte
}

// GenerateIdentityKeyPair creates a new random identity keypair.
// Failure here is a platform-level crypto failure and is fatal to the
// caller's operation.
func GenerateIdentityKeyPair() (*IdentityKeyPair, error) {
	publicKey, privateKey, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}

	return &IdentityKeyPair{
		Public:  *publicKey,
		Private: *privateKey,
	}, nil
}

// serializedKey is the portable on-disk / on-directory form of a key
// half. The format round-trips exactly through the import functions.
type serializedKey struct {
	Kty string  `json:"kty"`
	Use KeyRole `json:"use"`
	K   string  `json:"k"`
}

const identityKeyType = "X25519"

// ExportPublicKey serializes a public identity key for storage or for
// registration with the profile directory.
func ExportPublicKey(publicKey [32]byte) []byte {
	data, _ := json.Marshal(serializedKey{
		Kty: identityKeyType,
		Use: RoleWrap,
		K:   base64.StdEncoding.EncodeToString(publicKey[:]),
	})
	return data
}

// ExportPrivateKey serializes a private identity key for local storage.
// The result must never leave the local durable keystore.
func ExportPrivateKey(privateKey [32]byte) []byte {
	data, _ := json.Marshal(serializedKey{
		Kty: identityKeyType,
		Use: RoleUnwrap,
		K:   base64.StdEncoding.EncodeToString(privateKey[:]),
	})
	return data
}

// ImportPublicKey reconstructs a wrap-only public key from its
// serialized form. Corrupt input yields ErrMalformedKey.
func ImportPublicKey(data []byte) ([32]byte, error) {
	return importKeyHalf(data, RoleWrap)
}

// ImportPrivateKey reconstructs an unwrap-only private key from its
// serialized form. Corrupt input yields ErrMalformedKey.
func ImportPrivateKey(data []byte) ([32]byte, error) {
	return importKeyHalf(data, RoleUnwrap)
}

func importKeyHalf(data []byte, role KeyRole) ([32]byte, error) {
	var key [32]byte

	var sk serializedKey
	if err := json.Unmarshal(data, &sk); err != nil {
		return key, ErrMalformedKey
	}
	if sk.Kty != identityKeyType || sk.Use != role {
		return key, ErrMalformedKey
	}

	raw, err := base64.StdEncoding.DecodeString(sk.K)
	if err != nil || len(raw) != 32 {
		return key, ErrMalformedKey
	}
	if isZeroSlice(raw) {
		return key, ErrMalformedKey
	}

	copy(key[:], raw)
	return key, nil
}

func isZeroSlice(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
