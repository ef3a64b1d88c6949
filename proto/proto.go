// Package proto defines the message protocol between a remote.Renderer
// proxy and the remote.Dispatcher that owns the device.
//
// Messages form a tagged union: every message implements Message and
// reports its Kind. Messages that expect exactly one response also
// implement Correlated and carry a request id. Directives such as
// Resize or SyncState carry no id and produce no response.
//
// # Flow
//
// Directives and requests travel caller→execution; responses and
// notifications travel execution→caller. Both directions run through
// one FIFO channel each, so a request always arrives after the state
// delta that precedes it.
//
//	caller                          execution
//	  │  Init / SyncState / Render…   │
//	  ├────────────────────────────►  │
//	  │   Ready / InitResult /        │
//	  │   RenderDone / PixelData /    │
//	  │   ContextLost…                │
//	  ◄────────────────────────────┤
//
// Envelope wraps every message with the protocol version and a session
// id. A receiver that sees a foreign version must treat the channel as
// dead; there is no negotiation.
package proto

import "github.com/google/uuid"

// Version is the protocol version stamped on every envelope. Both sides
// reject envelopes carrying any other value.
const Version uint16 = 1

// Kind identifies the type of a protocol message.
type Kind uint8

const (
	// Directives and requests, caller → execution.
	KindInit           Kind = iota // initialize the device (correlated)
	KindResize                     // resize the output surface
	KindClear                      // clear the output to a color
	KindSyncState                  // apply a batched state delta
	KindRenderFrame                // render a frame (correlated)
	KindRenderHDRFrame             // render an HDR frame (correlated)
	KindReadPixel                  // read back a pixel region (correlated)
	KindDispose                    // tear down the execution side

	// Responses and notifications, execution → caller.
	KindReady           // dispatcher is consuming messages
	KindInitResult      // response to Init
	KindRenderDone      // render request succeeded
	KindRenderError     // render request failed
	KindPixelData       // response to ReadPixel
	KindContextLost     // rendering context lost
	KindContextRestored // rendering context restored
)

// kindNames maps Kind values to their string representation.
var kindNames = [...]string{
	KindInit:            "Init",
	KindResize:          "Resize",
	KindClear:           "Clear",
	KindSyncState:       "SyncState",
	KindRenderFrame:     "RenderFrame",
	KindRenderHDRFrame:  "RenderHDRFrame",
	KindReadPixel:       "ReadPixel",
	KindDispose:         "Dispose",
	KindReady:           "Ready",
	KindInitResult:      "InitResult",
	KindRenderDone:      "RenderDone",
	KindRenderError:     "RenderError",
	KindPixelData:       "PixelData",
	KindContextLost:     "ContextLost",
	KindContextRestored: "ContextRestored",
}

// String returns the string representation of a Kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Message is the interface implemented by all protocol messages.
type Message interface {
	// Kind returns the Kind for this message.
	Kind() Kind
}

// Correlated is implemented by messages that carry a request id. Each
// id identifies one pending request; the execution side echoes it in
// exactly one response.
type Correlated interface {
	Message

	// RequestID returns the id correlating this message to a pending
	// request.
	RequestID() uint64
}

// Envelope wraps one message for transport.
type Envelope struct {
	// Version is the protocol version; see Version.
	Version uint16
	// Session identifies the proxy/dispatcher pairing. Both sides log
	// it; the dispatcher adopts the first session it sees.
	Session uuid.UUID
	// Msg is the wrapped message.
	Msg Message
}

// Seal wraps msg in an envelope stamped with the current protocol
// version and the given session id.
func Seal(session uuid.UUID, msg Message) Envelope {
	return Envelope{Version: Version, Session: session, Msg: msg}
}
