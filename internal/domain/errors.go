package domain

import "errors"

// Fetch failures are classified with these sentinels so the collector can
// report a reason without depending on any venue package. Adapters wrap them
// with fmt.Errorf("...: %w", ...) and callers match with errors.Is.
var (
	// ErrNotFound is returned by caches and stores when a key has no entry.
	ErrNotFound = errors.New("not found")

	// ErrTransport covers connection failures, timeouts, and non-2xx
	// responses from an upstream.
	ErrTransport = errors.New("transport failure")

	// ErrDecode covers response bodies that cannot be parsed.
	ErrDecode = errors.New("malformed response")

	// ErrMissingField covers well-formed responses that lack a field the
	// adapter requires.
	ErrMissingField = errors.New("missing required field")

	// ErrUnknownInstrument means no adapter is registered for a
	// (venue, symbol) pair. This is a configuration error and is raised
	// before any network activity.
	ErrUnknownInstrument = errors.New("unknown venue/symbol pair")
)
