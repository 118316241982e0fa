// Package keystore holds the session's cryptographic state: the user's
// identity keypair and every sector key the user has received, indexed
// by (sector, epoch).
//
// The in-memory state is backed by a durable blob written through a
// BlobStore under a single well-known storage key. Two stores are
// provided: an encrypted flat-file store and a Badger-backed store for
// hosts that keep all local state in one key-value database. The blob
// is all-or-nothing: any corruption on restore is treated as absence,
// never as partially trusted state.
package keystore
