package domain

import "errors"

var (
	// ErrRateNotFound is a normal outcome of a rate lookup, not a failure:
	// neither the exact date nor the fallback window had a cached value.
	ErrRateNotFound = errors.New("rate not found")

	// ErrFeedUnavailable covers network and timeout failures of the CBR feed.
	ErrFeedUnavailable = errors.New("rate feed unavailable")

	// ErrFeedMalformed means the feed responded but the payload did not
	// parse into well-formed rate records.
	ErrFeedMalformed = errors.New("rate feed response malformed")

	// ErrStoreUnavailable means the storage backend rejected a write that
	// must not be lost silently.
	ErrStoreUnavailable = errors.New("store unavailable")

	ErrCurrencyUnsupported = errors.New("currency not supported")
)
