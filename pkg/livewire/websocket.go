package livewire

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	bidiEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

	// DefaultModel is the realtime model used when the config leaves it empty.
	DefaultModel = "gemini-2.0-flash-exp"
)

// ConnectConfig configures a WebSocket channel.
type ConnectConfig struct {
	// APIKey authenticates against the realtime endpoint. Required.
	APIKey string

	// Model is the realtime model name, without the "models/" prefix.
	Model string

	// Endpoint overrides the bidi endpoint URL. For tests.
	Endpoint string

	// HandshakeTimeout bounds the WebSocket dial. Defaults to 10s.
	HandshakeTimeout time.Duration
}

// WebsocketChannel is a Channel over a Gemini Live WebSocket connection.
type WebsocketChannel struct {
	conn *websocket.Conn

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeCh   chan struct{}
	eventsCh  chan eventOrError
}

type eventOrError struct {
	event *Event
	err   error
}

// Dial connects to the realtime endpoint and performs the session setup
// handshake message. The open event is emitted once the endpoint confirms
// setup; audio sent before that is the caller's responsibility to withhold.
func Dial(ctx context.Context, config *ConnectConfig) (*WebsocketChannel, error) {
	if config == nil || config.APIKey == "" {
		return nil, &Error{Code: CodeAuth, Message: "missing API key"}
	}
	endpoint := config.Endpoint
	if endpoint == "" {
		endpoint = bidiEndpoint
	}
	model := config.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := config.HandshakeTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, resp, err := dialer.DialContext(ctx, endpoint+"?key="+url.QueryEscape(config.APIKey), nil)
	if err != nil {
		return nil, handshakeError(resp, err)
	}

	ch := &WebsocketChannel{
		conn:     conn,
		closeCh:  make(chan struct{}),
		eventsCh: make(chan eventOrError, 64),
	}

	setup := &ClientMessage{Setup: &Setup{Model: "models/" + model}}
	if err := ch.Send(setup); err != nil {
		conn.Close()
		return nil, err
	}

	go ch.readLoop()
	return ch, nil
}

// Send forwards one outbound message as JSON.
func (ch *WebsocketChannel) Send(msg *ClientMessage) error {
	ch.writeMu.Lock()
	defer ch.writeMu.Unlock()

	select {
	case <-ch.closeCh:
		return &Error{Code: CodeUnavailable, Message: "channel is closed"}
	default:
	}

	if err := ch.conn.WriteJSON(msg); err != nil {
		return &Error{Code: CodeUnavailable, Message: fmt.Sprintf("send failed: %v", err), cause: err}
	}
	return nil
}

// Events returns the inbound event iterator.
func (ch *WebsocketChannel) Events() iter.Seq2[*Event, error] {
	return func(yield func(*Event, error) bool) {
		for {
			select {
			case <-ch.closeCh:
				return
			case item, ok := <-ch.eventsCh:
				if !ok {
					return
				}
				if !yield(item.event, item.err) {
					return
				}
				if item.err != nil || (item.event != nil && item.event.Kind == EventClosed) {
					return
				}
			}
		}
	}
}

// Close closes the channel connection.
func (ch *WebsocketChannel) Close() error {
	var err error
	ch.closeOnce.Do(func() {
		close(ch.closeCh)
		err = ch.conn.Close()
	})
	return err
}

// readLoop reads frames from the connection, decodes them, and forwards
// events in arrival order. It exits on close or the first read error.
func (ch *WebsocketChannel) readLoop() {
	defer close(ch.eventsCh)

	for {
		select {
		case <-ch.closeCh:
			return
		default:
		}

		_, raw, err := ch.conn.ReadMessage()
		if err != nil {
			item := eventOrError{err: readError(err)}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				item = eventOrError{event: &Event{Kind: EventClosed}}
			}
			select {
			case <-ch.closeCh:
			case ch.eventsCh <- item:
			}
			return
		}

		if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
			s := string(raw)
			if len(s) > 500 {
				s = s[:500] + "..."
			}
			slog.Debug("livewire: received", "len", len(raw), "content", s)
		}

		events, err := decodeServerMessage(raw)
		if err != nil {
			// A frame the client cannot parse is dropped; the session
			// continues on the next frame.
			slog.Warn("livewire: dropping undecodable frame", "error", err)
			continue
		}

		for _, ev := range events {
			select {
			case <-ch.closeCh:
				return
			case ch.eventsCh <- eventOrError{event: ev}:
			}
		}
	}
}

// decodeServerMessage maps one inbound frame onto zero or more events,
// preserving the order audio parts appear in the frame.
func decodeServerMessage(raw []byte) ([]*Event, error) {
	var msg serverMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, &Error{Code: CodeProtocol, Message: fmt.Sprintf("bad frame: %v", err), cause: err}
	}

	var events []*Event
	if msg.SetupComplete != nil {
		events = append(events, &Event{Kind: EventOpen})
	}
	if sc := msg.ServerContent; sc != nil {
		if sc.Interrupted {
			events = append(events, &Event{Kind: EventInterrupted})
		}
		if sc.ModelTurn != nil {
			for _, part := range sc.ModelTurn.Parts {
				if part.InlineData != nil && len(part.InlineData.Data) > 0 {
					events = append(events, &Event{Kind: EventAudio, Audio: part.InlineData.Data})
				}
			}
		}
	}
	return events, nil
}

var _ Channel = (*WebsocketChannel)(nil)
