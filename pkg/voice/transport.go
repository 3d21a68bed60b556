package voice

import (
	"log/slog"
	"sync"

	"github.com/vocalis-ai/vocalis/pkg/audio/frame"
	"github.com/vocalis-ai/vocalis/pkg/livewire"
)

// Handlers receives inbound channel events in arrival order. Callbacks run
// on the dispatch goroutine; no two run concurrently.
type Handlers struct {
	OnOpen        func()
	OnAudio       func(pcm []byte)
	OnInterrupted func()
	OnClosed      func()
	OnError       func(err error)
}

// Transport adapts one livewire.Channel to the session: outbound framed
// audio rides a latest-wins slot so the capture tap never blocks, and
// inbound events are dispatched strictly in arrival order.
type Transport struct {
	ch livewire.Channel

	slot      chan frame.Payload
	closeCh   chan struct{}
	closeOnce sync.Once
	done      chan struct{}
}

// NewTransport wraps a channel and starts the outbound pump. Dispatch does
// not begin until Run is called.
func NewTransport(ch livewire.Channel) *Transport {
	t := &Transport{
		ch:      ch,
		slot:    make(chan frame.Payload, 1),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go t.pump()
	return t
}

// Offer hands one payload to the outbound pump without blocking. When the
// slot is occupied the stale payload is displaced: sending fresh audio late
// is worse than not sending stale audio at all.
func (t *Transport) Offer(p frame.Payload) {
	select {
	case <-t.closeCh:
		return
	default:
	}
	select {
	case t.slot <- p:
	default:
		select {
		case <-t.slot:
		default:
		}
		select {
		case t.slot <- p:
		default:
		}
	}
}

// Run dispatches inbound events until the channel ends. It returns after
// OnClosed or OnError has fired, or after Close.
func (t *Transport) Run(h Handlers) {
	defer close(t.done)

	for ev, err := range t.ch.Events() {
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			return
		}
		switch ev.Kind {
		case livewire.EventOpen:
			if h.OnOpen != nil {
				h.OnOpen()
			}
		case livewire.EventAudio:
			if h.OnAudio != nil {
				h.OnAudio(ev.Audio)
			}
		case livewire.EventInterrupted:
			if h.OnInterrupted != nil {
				h.OnInterrupted()
			}
		case livewire.EventClosed:
			if h.OnClosed != nil {
				h.OnClosed()
			}
			return
		}
	}
}

// Close stops the outbound pump and closes the channel. Idempotent.
func (t *Transport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.closeCh)
		err = t.ch.Close()
	})
	return err
}

// Done is closed when the dispatch loop has returned.
func (t *Transport) Done() <-chan struct{} {
	return t.done
}

// pump drains the outbound slot into the channel. Send failures are logged
// and dropped: realtime audio is lossy-tolerant and the channel's own error
// event decides the session's fate.
func (t *Transport) pump() {
	for {
		select {
		case <-t.closeCh:
			return
		case p := <-t.slot:
			if err := t.ch.Send(livewire.NewRealtimeInput(p.MIMEType, p.Data)); err != nil {
				slog.Debug("voice: dropping outbound frame", "error", err)
			}
		}
	}
}
