package browse

import "errors"

// Domain errors for the browsing layer. Driver errors are propagated
// unchanged; these cover only this layer's own taxonomy.
var (
	// ErrInvalidCursor is returned when a driver reports exhaustion with a
	// non-initial cursor position. Fatal to that enumeration.
	ErrInvalidCursor = errors.New("driver returned invalid scan cursor")

	// ErrConnectionNotFound is returned when a connection ID is unknown.
	ErrConnectionNotFound = errors.New("connection not found")

	// ErrUnsupportedType is returned when an operation does not apply to
	// the key's store-level type.
	ErrUnsupportedType = errors.New("unsupported key type")

	// ErrFetchInFlight is returned when a page fetch is requested for a
	// browsing session that already has one pending. Callers gate "load
	// more" on the prior fetch's completion.
	ErrFetchInFlight = errors.New("page fetch already in flight")
)
