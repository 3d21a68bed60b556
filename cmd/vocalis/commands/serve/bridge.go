package serve

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vocalis-ai/vocalis/pkg/audio/pcm"
	"github.com/vocalis-ai/vocalis/pkg/audio/resampler"
	"github.com/vocalis-ai/vocalis/pkg/voice"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 * 1024,
	WriteBufferSize: 64 * 1024,
}

// handleVoice bridges one browser voice session. The browser streams binary
// frames of float32 LE capture samples at its device rate; the server streams
// JSON segment and stop messages the page schedules on WebAudio.
func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	rate := 48000
	if v := r.URL.Query().Get("rate"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 8000 || n > 192000 {
			http.Error(w, "bad rate", http.StatusBadRequest)
			return
		}
		rate = n
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("voice upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	bridge, err := newBridge(conn, rate)
	if err != nil {
		slog.Warn("voice bridge setup failed", "error", err)
		return
	}

	session := voice.NewSession(voice.Config{
		OpenCapture: func() (voice.CaptureDevice, error) { return bridge.capture, nil },
		OpenClock:   func() (voice.OutputClock, error) { return bridge.clock, nil },
		Dial:        s.opts.NewChannel,
	})
	if !s.claimSession(session) {
		conn.WriteJSON(map[string]string{"type": "error", "message": "a voice session is already live"})
		return
	}
	defer s.releaseSession(session)
	defer session.Stop()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := session.Start(ctx); err != nil {
		conn.WriteJSON(map[string]string{"type": "error", "message": err.Error()})
		return
	}

	// Feed the frames hub while the socket lives.
	viz := voice.NewVisualizer(session, voice.RendererFunc(s.frames.broadcast), 0)
	go viz.Run(ctx)

	bridge.readLoop(session)
}

// bridge owns the per-connection capture device and output clock.
type bridge struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	capture *wsCapture
	clock   *wsClock
}

func newBridge(conn *websocket.Conn, rate int) (*bridge, error) {
	rs, err := resampler.New(rate, voice.CaptureFormat.SampleRate())
	if err != nil {
		return nil, err
	}
	b := &bridge{conn: conn}
	b.capture = &wsCapture{rs: rs}
	b.clock = &wsClock{bridge: b, epoch: time.Now()}
	return b, nil
}

func (b *bridge) writeJSON(v any) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	return b.conn.WriteJSON(v)
}

// readLoop consumes browser messages until the socket closes: binary frames
// carry capture audio, text frames carry control commands.
func (b *bridge) readLoop(session *voice.Session) {
	for {
		kind, data, err := b.conn.ReadMessage()
		if err != nil {
			session.Stop()
			return
		}
		switch kind {
		case websocket.BinaryMessage:
			b.capture.feed(decodeFloat32LE(data))
		case websocket.TextMessage:
			var msg struct {
				Type string `json:"type"`
			}
			if json.Unmarshal(data, &msg) == nil && msg.Type == "stop" {
				session.Stop()
			}
		}
	}
}

// decodeFloat32LE interprets a browser audio frame. A trailing partial
// sample is ignored.
func decodeFloat32LE(data []byte) []float32 {
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out
}

// wsCapture is a voice.CaptureDevice fed by websocket frames. The tap slot
// is atomic so feed never contends with Start or Stop.
type wsCapture struct {
	rs  *resampler.Resampler
	tap atomic.Value // func(block []float32)

	mu      sync.Mutex
	pending []float32
}

func (c *wsCapture) Start(tap func(block []float32)) error {
	c.tap.Store(tap)
	return nil
}

func (c *wsCapture) Stop() error {
	c.tap.Store((func(block []float32))(nil))
	return nil
}

// feed resamples one inbound frame and emits fixed-size blocks to the tap,
// if one is installed. Audio arriving before the tap exists is discarded.
func (c *wsCapture) feed(samples []float32) {
	c.mu.Lock()
	block, err := c.rs.Process(samples)
	if err != nil {
		c.mu.Unlock()
		return
	}
	c.pending = append(c.pending, block...)

	var blocks [][]float32
	for len(c.pending) >= voice.BlockSize {
		out := make([]float32, voice.BlockSize)
		copy(out, c.pending)
		c.pending = c.pending[voice.BlockSize:]
		blocks = append(blocks, out)
	}
	c.mu.Unlock()

	tap, _ := c.tap.Load().(func(block []float32))
	if tap == nil {
		return
	}
	for _, b := range blocks {
		tap(b)
	}
}

var _ voice.CaptureDevice = (*wsCapture)(nil)

// wsClock is a voice.OutputClock that delegates rendering to the browser.
// Segments go out as JSON with a start time on this clock; the page maps
// them onto its AudioContext timeline. onEnd fires from a server-side timer
// at the segment's natural end.
type wsClock struct {
	bridge *bridge
	epoch  time.Time

	mu     sync.Mutex
	nextID uint64
	closed bool
}

type segmentMessage struct {
	Type    string `json:"type"`
	ID      uint64 `json:"id"`
	StartMs int64  `json:"startMs"`
	Rate    int    `json:"rate"`
	Data    []byte `json:"data"` // base64 s16le via encoding/json
}

func (c *wsClock) Now() time.Duration {
	return time.Since(c.epoch)
}

func (c *wsClock) Schedule(samples []int16, start time.Duration, onEnd func()) (voice.SegmentHandle, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, fmt.Errorf("serve: output clock is closed")
	}
	c.nextID++
	id := c.nextID
	c.mu.Unlock()

	msg := segmentMessage{
		Type:    "segment",
		ID:      id,
		StartMs: start.Milliseconds(),
		Rate:    voice.PlaybackFormat.SampleRate(),
		Data:    pcm.Int16ToBytes(samples),
	}
	if err := c.bridge.writeJSON(msg); err != nil {
		return nil, err
	}

	end := start + voice.PlaybackFormat.SamplesDuration(len(samples))
	seg := &wsSegment{clock: c, id: id}
	delay := end - c.Now()
	if delay < 0 {
		delay = 0
	}
	seg.timer = time.AfterFunc(delay, func() {
		if !seg.stopped.Load() && onEnd != nil {
			onEnd()
		}
	})
	return seg, nil
}

func (c *wsClock) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

type wsSegment struct {
	clock   *wsClock
	id      uint64
	timer   *time.Timer
	stopped atomic.Bool
}

func (s *wsSegment) Stop() {
	if s.stopped.Swap(true) {
		return
	}
	s.timer.Stop()
	s.clock.bridge.writeJSON(map[string]any{"type": "stopSegment", "id": s.id})
}

var _ voice.OutputClock = (*wsClock)(nil)
