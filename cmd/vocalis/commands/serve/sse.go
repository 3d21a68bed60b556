package serve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/vocalis-ai/vocalis/pkg/voice"
)

// frameHub broadcasts visualizer frames to SSE clients. Slow clients drop
// frames rather than stall the render loop.
type frameHub struct {
	mu      sync.RWMutex
	clients map[chan voice.VisualFrame]struct{}
}

func newFrameHub() *frameHub {
	return &frameHub{clients: make(map[chan voice.VisualFrame]struct{})}
}

func (h *frameHub) broadcast(frame voice.VisualFrame) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.clients {
		select {
		case ch <- frame:
		default:
		}
	}
}

func (h *frameHub) subscribe() chan voice.VisualFrame {
	ch := make(chan voice.VisualFrame, 16)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *frameHub) unsubscribe(ch chan voice.VisualFrame) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
}

// idleLoop paints idle frames whenever no voice session is live, so the
// page's meter stays responsive between sessions.
func (h *frameHub) idleLoop(ctx context.Context, current func() *voice.Session) {
	ticker := time.NewTicker(voice.DefaultFrameInterval * 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if current() == nil {
				h.broadcast(voice.VisualFrame{State: voice.StateIdle})
			}
		}
	}
}

// handleFrames streams visualizer frames as Server-Sent Events.
func (s *Server) handleFrames(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.frames.subscribe()
	defer s.frames.unsubscribe(ch)

	fmt.Fprintf(w, "data: {\"type\":\"connected\"}\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case frame := <-ch:
			data, err := json.Marshal(frame)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

// handleChat streams one chat turn as Server-Sent Events of text deltas.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		http.Error(w, "empty message", http.StatusBadRequest)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")

	for delta, err := range s.chat.Send(r.Context(), req.Message) {
		if err != nil {
			writeEvent(w, flusher, map[string]string{"type": "error", "message": err.Error()})
			return
		}
		writeEvent(w, flusher, map[string]string{"type": "delta", "text": delta})
	}
	writeEvent(w, flusher, map[string]string{"type": "done"})
}

func (s *Server) handleChatReset(w http.ResponseWriter, r *http.Request) {
	s.chat.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}
