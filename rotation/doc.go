// Package rotation drives sector key rotation: generating a fresh
// sector key, wrapping it once per current member with that member's
// public identity key, and submitting the complete batch to the sector
// service.
//
// Rotation is all-or-nothing. A failure at any step — membership
// lookup, a single member's key, wrapping, or submission — leaves the
// sector's epoch and the local key ring untouched. The local keystore
// only learns the new key after the service has accepted the batch.
package rotation
