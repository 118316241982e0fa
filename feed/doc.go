// Package feed implements the sector content feed and the cross-sector
// global feed, the two non-channel consumers of the stream cursor.
//
// A sector feed obeys the same decryption rules as channel messages:
// posts in an end-to-end encrypted sector are decrypted with the key
// located by the post's epoch, and a missing key degrades only that
// post. The global feed is public and always plain text.
package feed
