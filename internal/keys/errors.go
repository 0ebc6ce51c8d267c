package keys

import "errors"

var (
	// ErrInvalidLength is returned when key material does not decode to the
	// expected byte length.
	ErrInvalidLength = errors.New("invalid key length")

	// ErrSeedTooLong is returned when a derivation seed exceeds MaxSeedLength.
	ErrSeedTooLong = errors.New("max seed length exceeded")

	// ErrOnCurve is returned when a derived candidate address lands on the
	// ed25519 curve and therefore cannot be a program address.
	ErrOnCurve = errors.New("candidate address is on the ed25519 curve")

	// ErrNoViableAddress is returned when no nonce in 255..1 produces an
	// off-curve program address.
	ErrNoViableAddress = errors.New("unable to find a viable program address nonce")

	// ErrInvalidKey is returned when secret key material is malformed.
	ErrInvalidKey = errors.New("invalid secret key")
)
