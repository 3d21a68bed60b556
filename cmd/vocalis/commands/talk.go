package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vocalis-ai/vocalis/cmd/vocalis/internal/termaudio"
	"github.com/vocalis-ai/vocalis/pkg/cli"
	"github.com/vocalis-ai/vocalis/pkg/livewire"
	"github.com/vocalis-ai/vocalis/pkg/voice"
)

var talkOpts struct {
	context    string
	model      string
	rate       int
	captureCmd string
	playCmd    string
	meterWidth int
}

var talkCmd = &cobra.Command{
	Use:   "talk",
	Short: "Voice session in the terminal",
	Long: `Hold a realtime voice conversation with the model in the terminal.

Audio devices are driven through child processes: a recorder producing raw
PCM on stdout (arecord or sox's rec by default) and a player consuming raw
PCM on stdin (aplay or ffplay by default). Press Ctrl-C to hang up.

Examples:
  vocalis talk
  vocalis talk --rate 48000
  vocalis talk --capture-cmd "arecord -q -f S16_LE -r 16000 -c 1 -t raw -"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := loadGemini(talkOpts.context)
		if err != nil {
			return err
		}
		model := talkOpts.model
		if model == "" {
			model = svc.LiveModel
		}

		captureCmd := termaudio.DefaultCaptureCommand(talkOpts.rate)
		if talkOpts.captureCmd != "" {
			captureCmd = strings.Fields(talkOpts.captureCmd)
		}
		playCmd := termaudio.DefaultPlaybackCommand()
		if talkOpts.playCmd != "" {
			playCmd = strings.Fields(talkOpts.playCmd)
		}

		session := voice.NewSession(voice.Config{
			OpenCapture: func() (voice.CaptureDevice, error) {
				return termaudio.NewCapture(captureCmd, talkOpts.rate)
			},
			OpenClock: func() (voice.OutputClock, error) {
				return termaudio.NewPlayer(playCmd)
			},
			Dial: func(ctx context.Context) (livewire.Channel, error) {
				return livewire.Dial(ctx, &livewire.ConnectConfig{
					APIKey: svc.APIKey,
					Model:  model,
				})
			},
		})

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if err := session.Start(ctx); err != nil {
			return err
		}
		defer session.Stop()

		meter := cli.NewMeter()
		viz := voice.NewVisualizer(session, voice.RendererFunc(func(f voice.VisualFrame) {
			fmt.Printf("\r\033[K%s", meter.Render(f.Energy, f.State.String(), talkOpts.meterWidth))
		}), 0)

		go func() {
			// The session ending on its own also ends the command.
			ticker := time.NewTicker(100 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if s := session.State(); s == voice.StateClosed || s == voice.StateFailed {
						cancel()
						return
					}
				}
			}
		}()

		viz.Run(ctx)
		fmt.Println()

		if err := session.LastError(); err != nil {
			return err
		}
		return nil
	},
}

func init() {
	talkCmd.Flags().StringVar(&talkOpts.context, "context", "", "config context (default: current)")
	talkCmd.Flags().StringVar(&talkOpts.model, "model", "", "realtime model override")
	talkCmd.Flags().IntVar(&talkOpts.rate, "rate", 16000, "recorder sample rate (resampled to 16 kHz)")
	talkCmd.Flags().StringVar(&talkOpts.captureCmd, "capture-cmd", "", "recorder command producing raw s16le PCM on stdout")
	talkCmd.Flags().StringVar(&talkOpts.playCmd, "play-cmd", "", "player command consuming raw s16le PCM on stdin")
	talkCmd.Flags().IntVar(&talkOpts.meterWidth, "meter-width", 40, "energy meter width in cells")

	rootCmd.AddCommand(talkCmd)
}
