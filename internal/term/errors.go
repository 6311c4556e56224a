package term

import "errors"

// Sentinel errors surfaced by the bridge. All of them leave the bridge in
// the disconnected state, safe to retry on the next call; none are retried
// internally.
var (
	// ErrConnectTimeout means the socket reported neither open nor error
	// within the connect deadline.
	ErrConnectTimeout = errors.New("terminal connect timed out")

	// ErrConnectError means the transport failed while dialing.
	ErrConnectError = errors.New("terminal connect failed")

	// ErrWriteFailure means the socket was not writable when an input frame
	// was sent.
	ErrWriteFailure = errors.New("terminal write failed")
)
