// Package livewire wraps the bidirectional message channel to the realtime
// generative endpoint. A Channel carries framed audio out and yields inbound
// session events (open, audio, interruption, close, error) strictly in
// arrival order.
//
// The package includes a WebSocket-backed implementation speaking the Gemini
// Live bidi protocol and an in-memory pipe implementation for tests and the
// local echo mode.
package livewire

import "iter"

// EventKind identifies an inbound channel event.
type EventKind int

const (
	// EventOpen signals the channel handshake completed; the session may
	// start sending realtime input.
	EventOpen EventKind = iota
	// EventAudio carries one decoded audio segment from the model.
	EventAudio
	// EventInterrupted signals the model detected the user speaking and
	// abandoned its in-flight audio.
	EventInterrupted
	// EventClosed signals the remote endpoint closed the channel normally.
	EventClosed
)

// String returns the string representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventOpen:
		return "open"
	case EventAudio:
		return "audio"
	case EventInterrupted:
		return "interrupted"
	case EventClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Event is one inbound channel event.
type Event struct {
	Kind EventKind

	// Audio holds the decoded PCM bytes for EventAudio, nil otherwise.
	Audio []byte
}

// Media is the audio payload of a realtime input message.
type Media struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// RealtimeInput is the outbound realtime audio message body.
type RealtimeInput struct {
	Media *Media `json:"media,omitempty"`
}

// ClientMessage is an outbound message. Exactly one field is set.
type ClientMessage struct {
	Setup         *Setup         `json:"setup,omitempty"`
	RealtimeInput *RealtimeInput `json:"realtimeInput,omitempty"`
}

// Setup is the session handshake message body.
type Setup struct {
	Model            string `json:"model"`
	GenerationConfig *struct {
		ResponseModalities []string `json:"responseModalities,omitempty"`
	} `json:"generationConfig,omitempty"`
}

// serverMessage mirrors the inbound wire shape. Only the fields the session
// consumes are mapped.
type serverMessage struct {
	SetupComplete *struct{} `json:"setupComplete,omitempty"`
	ServerContent *struct {
		Interrupted bool `json:"interrupted,omitempty"`
		ModelTurn   *struct {
			Parts []struct {
				InlineData *struct {
					MIMEType string `json:"mimeType,omitempty"`
					Data     []byte `json:"data,omitempty"`
				} `json:"inlineData,omitempty"`
			} `json:"parts,omitempty"`
		} `json:"modelTurn,omitempty"`
	} `json:"serverContent,omitempty"`
}

// Channel is one bidirectional session channel. Sends are asynchronous and
// unacknowledged; inbound events are yielded in arrival order. A Channel is
// single-use: after EventClosed or an error it never yields again.
type Channel interface {
	// Send forwards one outbound message. It must not block on the remote
	// endpoint; errors indicate a dead channel, not backpressure.
	Send(msg *ClientMessage) error

	// Events returns an iterator over inbound events. Iteration ends after
	// EventClosed or after yielding a terminal error.
	Events() iter.Seq2[*Event, error]

	// Close tears the channel down. Safe to call more than once.
	Close() error
}

// NewRealtimeInput builds the outbound message for one framed audio payload.
func NewRealtimeInput(mimeType, data string) *ClientMessage {
	return &ClientMessage{
		RealtimeInput: &RealtimeInput{
			Media: &Media{MIMEType: mimeType, Data: data},
		},
	}
}
