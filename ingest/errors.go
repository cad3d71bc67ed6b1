package ingest

import "errors"

// Off-thread construction errors. Build reports these to the caller (the
// editor, in the host/editor adapter's terms); none of them ever reach the
// audio thread — see §7's error taxonomy.
var (
	ErrDecodeFailed         = errors.New("ingest: failed to decode impulse response")
	ErrEmptyImpulseResponse = errors.New("ingest: decoded impulse response has no samples")
	ErrUnsupportedFormat    = errors.New("ingest: unsupported audio container")
)
