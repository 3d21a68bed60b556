package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/vocalis-ai/vocalis/pkg/cli"
	"github.com/vocalis-ai/vocalis/pkg/studio"
)

var videoOpts struct {
	context  string
	aspect   string
	out      string
	noSave   bool
	timeout  time.Duration
	interval time.Duration
}

var videoCmd = &cobra.Command{
	Use:   "video <prompt>",
	Short: "Generate a video",
	Long: `Generate a video from a prompt and store it in the gallery.

Video generation is asynchronous on the remote side and typically takes a
few minutes; the command polls until the operation completes.

Examples:
  vocalis video "waves breaking on a rocky shore"
  vocalis video "timelapse of a city" --aspect 16:9 --timeout 10m
  vocalis video "a paper plane" --out plane.mp4 --no-save`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt := args[0]

		client, svc, err := newStudioClient(cmd.Context(), videoOpts.context)
		if err != nil {
			return err
		}
		model := svc.VideoModel
		if model == "" {
			model = studio.DefaultVideoModel
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), videoOpts.timeout)
		defer cancel()

		task, err := client.GenerateVideo(ctx, studio.VideoRequest{
			Prompt:      prompt,
			AspectRatio: videoOpts.aspect,
		})
		if err != nil {
			return err
		}
		cli.PrintInfo("Generating (operation %s)...", task.ID)

		video, err := task.WaitWithInterval(ctx, videoOpts.interval)
		if err != nil {
			return err
		}

		if !videoOpts.noSave {
			gallery, err := openGallery(ctx, videoOpts.context)
			if err != nil {
				return err
			}
			defer gallery.Close()

			item, err := gallery.Add(ctx, studio.KindVideo, prompt, model, video.MIMEType, video.Data)
			if err != nil {
				return err
			}
			cli.PrintSuccess("Saved %s (%s)", item.ID, cli.FormatBytes(int64(len(video.Data))))
		}

		if videoOpts.out != "" {
			if err := cli.OutputBytes(video.Data, videoOpts.out); err != nil {
				return err
			}
			cli.PrintSuccess("Wrote %s", videoOpts.out)
		}
		return nil
	},
}

func init() {
	videoCmd.Flags().StringVar(&videoOpts.context, "context", "", "config context (default: current)")
	videoCmd.Flags().StringVar(&videoOpts.aspect, "aspect", "", "aspect ratio, e.g. 16:9 or 9:16")
	videoCmd.Flags().StringVar(&videoOpts.out, "out", "", "also write the video bytes to this file")
	videoCmd.Flags().BoolVar(&videoOpts.noSave, "no-save", false, "skip the gallery")
	videoCmd.Flags().DurationVar(&videoOpts.timeout, "timeout", 10*time.Minute, "overall generation timeout")
	videoCmd.Flags().DurationVar(&videoOpts.interval, "interval", 10*time.Second, "polling interval")

	rootCmd.AddCommand(videoCmd)
}
