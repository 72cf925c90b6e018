package adapter

import "errors"

// Sentinel errors mapped from transport-level failures. The sync engine
// distinguishes recoverable failures ([ErrNetwork], [ErrServer]) from
// non-recoverable ones ([ErrValidation]) and from the payload ceiling
// ([ErrPayloadTooLarge]), which triggers payload optimization instead of a
// plain retry.
var (
	// ErrNetwork marks a transport failure: connection refused, DNS error,
	// or an elapsed request timeout. The remote operation may or may not
	// have executed; because operations are idempotent, retrying is safe.
	ErrNetwork = errors.New("network failure")

	// ErrServer marks a remote-side failure (HTTP 5xx). Recoverable.
	ErrServer = errors.New("server failure")

	// ErrPayloadTooLarge marks a remote rejection for payload size
	// (HTTP 413). Retrying unchanged cannot succeed; the payload must be
	// reduced first.
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrValidation marks a remote rejection of the payload content
	// (HTTP 400/422). Retrying unchanged cannot succeed.
	ErrValidation = errors.New("payload rejected")

	// ErrNotFound marks a remote 404. Exposed for callers that need to
	// distinguish it; DeleteItem already folds it into success.
	ErrNotFound = errors.New("not found")
)
