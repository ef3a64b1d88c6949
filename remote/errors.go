package remote

import "errors"

var (
	// ErrDisposed reports an operation on a closed Renderer. Pending
	// requests outstanding at Close are rejected with it.
	ErrDisposed = errors.New("remote: renderer disposed")

	// ErrChannelClosed reports that the transport failed or closed
	// underneath the session. Channel-fatal: every pending request is
	// rejected with it and the Renderer is usable only for Close.
	ErrChannelClosed = errors.New("remote: channel closed")

	// ErrContextLost reports a request made while the rendering context
	// is lost. The request fails locally without touching the channel.
	ErrContextLost = errors.New("remote: rendering context lost")

	// ErrProtocolVersion reports an envelope from an incompatible
	// protocol version. Channel-fatal.
	ErrProtocolVersion = errors.New("remote: protocol version mismatch")

	// ErrInitFailed wraps the reason reported by a failed Init. Fatal
	// to the session; the dispatcher does not retry.
	ErrInitFailed = errors.New("remote: device init failed")

	// ErrRenderFailed wraps the reason reported by a failed render
	// request. Scoped to that one request.
	ErrRenderFailed = errors.New("remote: render failed")
)
