package channel

import "errors"

var (
	// ErrRekeyRequired is the client-side send guard: while the sector
	// reports rekeyRequired, nothing may be encrypted under the current
	// epoch key, so outbound sends are refused locally without any
	// network call.
	ErrRekeyRequired = errors.New("sector requires a key rotation before sending")

	// ErrKeyUnavailable means the current epoch's key has not been
	// distributed to this user.
	ErrKeyUnavailable = errors.New("no key available for the current epoch")

	// ErrSessionClosed is returned by operations on a closed session.
	ErrSessionClosed = errors.New("channel session closed")
)
