package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vocalis-ai/vocalis/pkg/cli"
	"github.com/vocalis-ai/vocalis/pkg/studio"
)

var imageOpts struct {
	context string
	count   int
	aspect  string
	out     string
	noSave  bool
}

var imageCmd = &cobra.Command{
	Use:   "image <prompt>",
	Short: "Generate images",
	Long: `Generate images from a prompt and store them in the gallery.

Examples:
  vocalis image "a lighthouse in fog"
  vocalis image "city at night" --count 4 --aspect 16:9
  vocalis image "a red fox" --out fox.png --no-save`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		prompt := args[0]

		client, svc, err := newStudioClient(ctx, imageOpts.context)
		if err != nil {
			return err
		}
		model := svc.ImageModel
		if model == "" {
			model = studio.DefaultImageModel
		}

		images, err := client.GenerateImages(ctx, studio.ImageRequest{
			Prompt:      prompt,
			Count:       imageOpts.count,
			AspectRatio: imageOpts.aspect,
		})
		if err != nil {
			return err
		}

		var gallery *studio.Gallery
		if !imageOpts.noSave {
			gallery, err = openGallery(ctx, imageOpts.context)
			if err != nil {
				return err
			}
			defer gallery.Close()
		}

		for i, img := range images {
			if gallery != nil {
				item, err := gallery.Add(ctx, studio.KindImage, prompt, model, img.MIMEType, img.Data)
				if err != nil {
					return err
				}
				cli.PrintSuccess("Saved %s (%s)", item.ID, cli.FormatBytes(int64(len(img.Data))))
			}
			if imageOpts.out != "" {
				path := imageOpts.out
				if len(images) > 1 {
					path = numberedPath(path, i+1)
				}
				if err := cli.OutputBytes(img.Data, path); err != nil {
					return err
				}
				cli.PrintSuccess("Wrote %s", path)
			}
		}
		return nil
	},
}

// numberedPath turns out.png into out-2.png for multi-image runs.
func numberedPath(path string, n int) string {
	if n == 1 {
		return path
	}
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(path, ext), n, ext)
}

func init() {
	imageCmd.Flags().StringVar(&imageOpts.context, "context", "", "config context (default: current)")
	imageCmd.Flags().IntVar(&imageOpts.count, "count", 1, "number of images to generate")
	imageCmd.Flags().StringVar(&imageOpts.aspect, "aspect", "", "aspect ratio, e.g. 1:1 or 16:9")
	imageCmd.Flags().StringVar(&imageOpts.out, "out", "", "also write the image bytes to this file")
	imageCmd.Flags().BoolVar(&imageOpts.noSave, "no-save", false, "skip the gallery")

	rootCmd.AddCommand(imageCmd)
}
