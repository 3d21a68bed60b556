package termaudio

import (
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/vocalis-ai/vocalis/pkg/audio/pcm"
	"github.com/vocalis-ai/vocalis/pkg/voice"
)

// DefaultPlaybackCommand returns the platform player command consuming raw
// s16le mono PCM at the playback rate on stdin.
func DefaultPlaybackCommand() []string {
	rate := fmt.Sprintf("%d", voice.PlaybackFormat.SampleRate())
	if _, err := exec.LookPath("aplay"); err == nil {
		return []string{"aplay", "-q", "-f", "S16_LE", "-r", rate, "-c", "1", "-t", "raw", "-"}
	}
	return []string{"ffplay", "-loglevel", "quiet", "-nodisp", "-f", "s16le", "-ar", rate, "-ac", "1", "-i", "-"}
}

// writeChunk is how much audio the player writes per stop check, so a
// canceled segment goes quiet within one chunk plus the pipe buffer.
const writeChunk = 20 * time.Millisecond

// Player is a voice.OutputClock over a player child process. Segments write
// into the child's stdin in start order; the OS pipe and the player's own
// buffering pace consumption at the playback rate.
type Player struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	epoch time.Time

	writeMu sync.Mutex

	mu     sync.Mutex
	closed bool
}

// NewPlayer spawns the player child process. The clock's zero time is the
// moment the player starts.
func NewPlayer(cmdline []string) (*Player, error) {
	if len(cmdline) == 0 {
		return nil, fmt.Errorf("termaudio: empty playback command")
	}
	cmd := exec.Command(cmdline[0], cmdline[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("termaudio: player stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("termaudio: start player %q: %w", cmdline[0], err)
	}
	return &Player{cmd: cmd, stdin: stdin, epoch: time.Now()}, nil
}

// Now returns the time elapsed since the player started.
func (p *Player) Now() time.Duration {
	return time.Since(p.epoch)
}

type playerSegment struct {
	stop chan struct{}
	once sync.Once
}

// Stop cancels the segment. Audio already sitting in the pipe buffer drains
// before silence; the chunked writer stops feeding more.
func (s *playerSegment) Stop() {
	s.once.Do(func() { close(s.stop) })
}

// Schedule queues samples to start at the given clock time. The segment
// goroutine sleeps until its start, then streams chunks under the write
// lock; abutting segments therefore render back to back.
func (p *Player) Schedule(samples []int16, start time.Duration, onEnd func()) (voice.SegmentHandle, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, fmt.Errorf("termaudio: player is closed")
	}
	p.mu.Unlock()

	seg := &playerSegment{stop: make(chan struct{})}
	go p.play(seg, samples, start, onEnd)
	return seg, nil
}

func (p *Player) play(seg *playerSegment, samples []int16, start time.Duration, onEnd func()) {
	if wait := start - p.Now(); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-seg.stop:
			return
		case <-timer.C:
		}
	}

	chunk := voice.PlaybackFormat.SamplesInDuration(writeChunk)
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	for len(samples) > 0 {
		select {
		case <-seg.stop:
			return
		default:
		}
		n := chunk
		if n > len(samples) {
			n = len(samples)
		}
		if _, err := p.stdin.Write(pcm.Int16ToBytes(samples[:n])); err != nil {
			return
		}
		samples = samples[n:]
	}
	if onEnd != nil {
		onEnd()
	}
}

// Close stops the player process. Idempotent.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.stdin.Close()
	p.cmd.Process.Kill()
	go p.cmd.Wait()
	return nil
}

var _ voice.OutputClock = (*Player)(nil)
