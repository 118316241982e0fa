// Package channel binds one active channel of one sector to the
// engine's cryptographic state and the generic stream cursor.
//
// A Session owns the channel's polling loop and scroll-driven backfill,
// decrypts every loaded item with the key located by the item's
// (sector, epoch) coordinates, and guards outbound sends against the
// sector's live crypto state. A missing epoch key degrades only the
// affected message, never the page: the message is surfaced with an
// explicit key-unavailable marker instead of blank content.
package channel
