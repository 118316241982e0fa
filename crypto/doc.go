// Package crypto implements the cryptographic primitives for the
// SectorNet client engine.
//
// This package handles identity key generation, sector key generation,
// authenticated message encryption, and the wrapping of sector keys for
// distribution to other members, using NaCl and AES-GCM through Go's
// x/crypto and standard library packages.
//
// Three primitives are provided:
//
//   - [IdentityKeyPair]: a long-lived Curve25519 keypair representing a
//     durable user identity. It is used exclusively to wrap and unwrap
//     sector keys, never to encrypt content directly.
//   - [SectorKey]: a per-sector, per-epoch AES-256-GCM key protecting
//     message and post content.
//   - Key wrapping: [WrapSectorKey] seals a sector key's raw material
//     under a recipient's public identity key so that only the holder of
//     the matching private key can recover it.
//
// Example:
//
//	pair, err := crypto.GenerateIdentityKeyPair()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	key, _ := crypto.GenerateSectorKey()
//	wrapped, _ := crypto.WrapSectorKey(key, pair.Public)
//	recovered, _ := crypto.UnwrapSectorKey(wrapped, pair)
package crypto
