package livewire

import (
	"iter"
	"sync"
)

// PipeChannel is an in-memory Channel whose remote side is driven by the
// caller. It backs unit tests and the local echo mode of the web studio.
//
// The Emit methods act as the remote endpoint: they feed events into the
// channel in call order. Sent messages are observable via Sent.
type PipeChannel struct {
	mu        sync.Mutex
	sent      []*ClientMessage
	sentCh    chan *ClientMessage
	eventsCh  chan eventOrError
	closeCh   chan struct{}
	closeOnce sync.Once
}

// NewPipe creates an unconnected in-memory channel. Emit EventOpen to model
// handshake completion.
func NewPipe() *PipeChannel {
	return &PipeChannel{
		sentCh:   make(chan *ClientMessage, 256),
		eventsCh: make(chan eventOrError, 256),
		closeCh:  make(chan struct{}),
	}
}

// Send records an outbound message.
func (p *PipeChannel) Send(msg *ClientMessage) error {
	select {
	case <-p.closeCh:
		return &Error{Code: CodeUnavailable, Message: "channel is closed"}
	default:
	}
	p.mu.Lock()
	p.sent = append(p.sent, msg)
	p.mu.Unlock()
	select {
	case p.sentCh <- msg:
	default:
	}
	return nil
}

// Events returns the inbound event iterator.
func (p *PipeChannel) Events() iter.Seq2[*Event, error] {
	return func(yield func(*Event, error) bool) {
		for {
			select {
			case <-p.closeCh:
				return
			case item := <-p.eventsCh:
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

// Close closes the channel.
func (p *PipeChannel) Close() error {
	p.closeOnce.Do(func() { close(p.closeCh) })
	return nil
}

// Sent returns a snapshot of all messages sent so far.
func (p *PipeChannel) Sent() []*ClientMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*ClientMessage, len(p.sent))
	copy(out, p.sent)
	return out
}

// SentCh returns a channel receiving sent messages as they arrive. Messages
// beyond the buffer are dropped, matching the lossy-tolerant send contract.
func (p *PipeChannel) SentCh() <-chan *ClientMessage {
	return p.sentCh
}

// EmitOpen models handshake completion.
func (p *PipeChannel) EmitOpen() { p.emit(&Event{Kind: EventOpen}) }

// EmitAudio models one inbound audio segment.
func (p *PipeChannel) EmitAudio(pcm []byte) { p.emit(&Event{Kind: EventAudio, Audio: pcm}) }

// EmitInterrupted models a barge-in interruption signal.
func (p *PipeChannel) EmitInterrupted() { p.emit(&Event{Kind: EventInterrupted}) }

// EmitClosed models a normal remote close.
func (p *PipeChannel) EmitClosed() { p.emit(&Event{Kind: EventClosed}) }

// Fail models a channel runtime error.
func (p *PipeChannel) Fail(err error) {
	select {
	case <-p.closeCh:
	case p.eventsCh <- eventOrError{err: err}:
	}
}

func (p *PipeChannel) emit(ev *Event) {
	select {
	case <-p.closeCh:
	case p.eventsCh <- eventOrError{event: ev}:
	}
}

var _ Channel = (*PipeChannel)(nil)
