package rotation

import "errors"

var (
	// ErrMembershipUnavailable means the member list could not be
	// obtained or was empty, so no complete wrapped-key batch can be
	// built.
	ErrMembershipUnavailable = errors.New("sector membership unavailable")

	// ErrMemberKeyUnavailable means at least one current member has no
	// resolvable public identity key. Rotation refuses to proceed with a
	// partial batch.
	ErrMemberKeyUnavailable = errors.New("member public key unavailable")

	// ErrRotationRejected means the service refused the submitted batch.
	// The sector's current epoch is unchanged.
	ErrRotationRejected = errors.New("key rotation rejected by service")

	// ErrRotationInProgress means another rotation for the same sector
	// is already running.
	ErrRotationInProgress = errors.New("key rotation already in progress")
)
