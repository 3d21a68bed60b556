// Package termaudio provides terminal-host audio devices for voice sessions:
// a capture device reading raw PCM from a recorder child process and an
// output clock writing scheduled PCM to a player child process.
package termaudio

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"sync"

	"github.com/vocalis-ai/vocalis/pkg/audio/pcm"
	"github.com/vocalis-ai/vocalis/pkg/audio/resampler"
	"github.com/vocalis-ai/vocalis/pkg/voice"
)

// DefaultCaptureCommand returns the platform recorder command emitting raw
// s16le mono PCM at the given rate on stdout.
func DefaultCaptureCommand(rate int) []string {
	r := strconv.Itoa(rate)
	if runtime.GOOS == "linux" {
		if _, err := exec.LookPath("arecord"); err == nil {
			return []string{"arecord", "-q", "-f", "S16_LE", "-r", r, "-c", "1", "-t", "raw", "-"}
		}
	}
	// sox ships a "rec" alias on macOS and most distros.
	return []string{"rec", "-q", "-t", "raw", "-b", "16", "-e", "signed-integer", "-r", r, "-c", "1", "-"}
}

// Capture is a voice.CaptureDevice over a recorder child process. The child
// writes raw s16le mono PCM at the configured rate; Capture resamples to the
// session capture rate and delivers fixed-size blocks to the tap. The command
// "-" reads raw PCM from stdin instead of spawning a recorder.
type Capture struct {
	cmdline []string
	rate    int

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdout  io.ReadCloser
	stopped bool
}

// NewCapture creates a capture device spawning cmdline on Start. rate is the
// sample rate the recorder produces.
func NewCapture(cmdline []string, rate int) (*Capture, error) {
	if len(cmdline) == 0 {
		return nil, fmt.Errorf("termaudio: empty capture command")
	}
	if rate <= 0 {
		return nil, fmt.Errorf("termaudio: invalid capture rate %d", rate)
	}
	return &Capture{cmdline: cmdline, rate: rate}, nil
}

// Start spawns the recorder and begins delivering blocks to tap.
func (c *Capture) Start(tap func(block []float32)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return fmt.Errorf("termaudio: capture device is stopped")
	}
	if c.cmd != nil {
		return fmt.Errorf("termaudio: capture already started")
	}

	rs, err := resampler.New(c.rate, voice.CaptureFormat.SampleRate())
	if err != nil {
		return err
	}

	if c.cmdline[0] == "-" {
		c.stdout = os.Stdin
		go c.pump(os.Stdin, rs, tap)
		return nil
	}

	cmd := exec.Command(c.cmdline[0], c.cmdline[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("termaudio: recorder stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("termaudio: start recorder %q: %w", c.cmdline[0], err)
	}
	c.cmd = cmd
	c.stdout = stdout

	go c.pump(stdout, rs, tap)
	return nil
}

// pump reads recorder output, resamples, and emits fixed-size blocks until
// the recorder pipe closes.
func (c *Capture) pump(r io.Reader, rs *resampler.Resampler, tap func(block []float32)) {
	// Read roughly one output block's worth of input per iteration.
	readSamples := voice.BlockSize * c.rate / voice.CaptureFormat.SampleRate()
	raw := make([]byte, readSamples*2)
	var pending []float32

	for {
		n, err := io.ReadFull(r, raw)
		if n > 0 {
			block, rerr := rs.Process(pcm.BytesToFloat32(raw[:n]))
			if rerr == nil {
				pending = append(pending, block...)
			}
		}
		for len(pending) >= voice.BlockSize {
			out := make([]float32, voice.BlockSize)
			copy(out, pending)
			pending = pending[voice.BlockSize:]

			c.mu.Lock()
			stopped := c.stopped
			c.mu.Unlock()
			if stopped {
				return
			}
			tap(out)
		}
		if err != nil {
			return
		}
	}
}

// Stop kills the recorder and releases the device. Idempotent.
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return nil
	}
	c.stopped = true
	if c.cmd != nil {
		c.stdout.Close()
		c.cmd.Process.Kill()
		go c.cmd.Wait()
	}
	return nil
}

// Stopped reports whether the device has been stopped.
func (c *Capture) Stopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

var _ voice.CaptureDevice = (*Capture)(nil)
