package nsdux

import "errors"

// Sentinel errors for component operations.
var (
	ErrNoStore           = errors.New("nsdux: no store resolved")
	ErrDuplicateMount    = errors.New("nsdux: location already mounted")
	ErrAlreadyMounted    = errors.New("nsdux: component already mounted")
	ErrMountCycle        = errors.New("nsdux: mount would create a cycle")
	ErrNotMounted        = errors.New("nsdux: component not mounted")
	ErrNotInvokable      = errors.New("nsdux: component is not an action")
	ErrIncompatibleState = errors.New("nsdux: incompatible state value")
	ErrNameCollision     = errors.New("nsdux: action name collision")
	ErrDecryptFailed     = errors.New("nsdux: snapshot decryption failed")
	ErrSignatureInvalid  = errors.New("nsdux: snapshot signature verification failed")
	ErrInvalidFormat     = errors.New("nsdux: invalid snapshot format")
)

// IsConfigError checks if err reports a component that could not resolve a
// store.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrNoStore)
}

// IsMountError checks if err was returned because a mount was rejected.
func IsMountError(err error) bool {
	return errors.Is(err, ErrDuplicateMount) ||
		errors.Is(err, ErrAlreadyMounted) ||
		errors.Is(err, ErrMountCycle) ||
		errors.Is(err, ErrIncompatibleState)
}

// IsSnapshotError checks if err is a snapshot decoding or verification error.
func IsSnapshotError(err error) bool {
	return errors.Is(err, ErrDecryptFailed) ||
		errors.Is(err, ErrSignatureInvalid) ||
		errors.Is(err, ErrInvalidFormat)
}
