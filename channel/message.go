package channel

import (
	"time"

	"github.com/opd-ai/sectornet/remote"
)

// MessageStatus describes the decryption outcome for one message.
type MessageStatus uint8

const (
	// MessageOK means the message content is readable.
	MessageOK MessageStatus = iota
	// MessageKeyUnavailable means the key for the message's epoch has
	// not been distributed to this user. Expected and non-fatal.
	MessageKeyUnavailable
	// MessageUndecryptable means the key was present but authenticated
	// decryption failed.
	MessageUndecryptable
)

// Message is the decrypted view of one channel item.
type Message struct {
	ID        string
	Author    remote.Principal
	Text      string
	KeyEpoch  uint64
	CreatedAt time.Time
	Status    MessageStatus
}
