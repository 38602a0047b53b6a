package domain

import "errors"

// Error taxonomy shared by the engine and its adapters.
var (
	// ErrInsufficientData marks an empty or too-short series. Metrics never
	// return it; adapters use it to report an empty history.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrDataIntegrity marks inputs that contradict each other, such as an
	// outflow larger than the open lot balance. Always surfaced to the caller.
	ErrDataIntegrity = errors.New("data integrity violation")

	// ErrUpstream wraps failures of an external collaborator (RPC, price API).
	ErrUpstream = errors.New("upstream failure")

	// ErrInvalidConfig is returned when configuration fails validation.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnknownKind is returned when a transaction carries an unrecognized kind tag.
	ErrUnknownKind = errors.New("unknown transaction kind")
)
