package voice

import (
	"errors"
	"iter"
	"sync"
	"testing"
	"time"

	"github.com/vocalis-ai/vocalis/pkg/audio/frame"
	"github.com/vocalis-ai/vocalis/pkg/livewire"
)

// gatedChannel blocks every Send until the test releases it, so slot
// displacement can be observed deterministically.
type gatedChannel struct {
	entered chan struct{}
	release chan struct{}

	mu   sync.Mutex
	sent []*livewire.ClientMessage
}

func newGatedChannel() *gatedChannel {
	return &gatedChannel{
		entered: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

func (g *gatedChannel) Send(msg *livewire.ClientMessage) error {
	g.entered <- struct{}{}
	<-g.release
	g.mu.Lock()
	g.sent = append(g.sent, msg)
	g.mu.Unlock()
	return nil
}

func (g *gatedChannel) Events() iter.Seq2[*livewire.Event, error] {
	return func(yield func(*livewire.Event, error) bool) {}
}

func (g *gatedChannel) Close() error { return nil }

func (g *gatedChannel) sentData() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []string
	for _, msg := range g.sent {
		out = append(out, msg.RealtimeInput.Media.Data)
	}
	return out
}

func TestTransportOfferDisplacesStale(t *testing.T) {
	ch := newGatedChannel()
	tr := NewTransport(ch)
	defer tr.Close()

	p1 := frame.Frame([]float32{0.1})
	p2 := frame.Frame([]float32{0.2})
	p3 := frame.Frame([]float32{0.3})

	// The pump picks up p1 and parks inside Send, leaving the slot empty.
	tr.Offer(p1)
	<-ch.entered

	// p2 fills the slot; p3 displaces it.
	tr.Offer(p2)
	tr.Offer(p3)

	close(ch.release)
	<-ch.entered

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(ch.sentData()) == 2 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	got := ch.sentData()
	want := []string{p1.Data, p3.Data}
	if len(got) != len(want) {
		t.Fatalf("sent %d payloads, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sent[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTransportDispatchOrder(t *testing.T) {
	pipe := livewire.NewPipe()
	tr := NewTransport(pipe)
	defer tr.Close()

	var mu sync.Mutex
	var order []string
	record := func(name string) {
		mu.Lock()
		order = append(order, name)
		mu.Unlock()
	}

	go tr.Run(Handlers{
		OnOpen:        func() { record("open") },
		OnAudio:       func(pcm []byte) { record("audio:" + string(pcm)) },
		OnInterrupted: func() { record("interrupted") },
		OnClosed:      func() { record("closed") },
	})

	pipe.EmitOpen()
	pipe.EmitAudio([]byte("a1"))
	pipe.EmitInterrupted()
	pipe.EmitAudio([]byte("a2"))
	pipe.EmitClosed()

	select {
	case <-tr.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch loop did not finish")
	}

	want := []string{"open", "audio:a1", "interrupted", "audio:a2", "closed"}
	mu.Lock()
	defer mu.Unlock()
	if len(order) != len(want) {
		t.Fatalf("dispatched %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("dispatched %v, want %v", order, want)
		}
	}
}

func TestTransportRunStopsOnError(t *testing.T) {
	pipe := livewire.NewPipe()
	tr := NewTransport(pipe)
	defer tr.Close()

	errCh := make(chan error, 1)
	go tr.Run(Handlers{
		OnError: func(err error) { errCh <- err },
	})

	wantErr := &livewire.Error{Code: livewire.CodeQuota, Message: "quota exhausted"}
	pipe.Fail(wantErr)

	select {
	case <-tr.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch loop did not finish after error")
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, wantErr) {
			t.Errorf("OnError got %v, want %v", err, wantErr)
		}
	default:
		t.Fatal("OnError was not called")
	}
}

func TestTransportOfferAfterClose(t *testing.T) {
	pipe := livewire.NewPipe()
	tr := NewTransport(pipe)
	if err := tr.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("second Close() = %v", err)
	}

	tr.Offer(frame.Frame([]float32{0.5}))
	if got := pipe.Sent(); len(got) != 0 {
		t.Errorf("sent %d messages after close, want 0", len(got))
	}
}
