package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vocalis-ai/vocalis/cmd/vocalis/commands/serve"
	"github.com/vocalis-ai/vocalis/pkg/livewire"
	"github.com/vocalis-ai/vocalis/pkg/studio"
)

var serveOpts struct {
	context string
	addr    string
	backend string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Local web studio",
	Long: `Run the local web studio: voice sessions from the browser microphone,
streaming chat, image and video generation, and the media gallery.

The server binds to loopback only; open the printed URL in a browser.

Examples:
  vocalis serve
  vocalis serve --addr 127.0.0.1:9000 --backend openai`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		gemini, err := loadGemini(serveOpts.context)
		if err != nil {
			return err
		}
		chatBackend, err := newChatBackend(ctx, serveOpts.context, serveOpts.backend, "", "")
		if err != nil {
			return err
		}
		studioClient, svc, err := newStudioClient(ctx, serveOpts.context)
		if err != nil {
			return err
		}
		gallery, err := openGallery(ctx, serveOpts.context)
		if err != nil {
			return err
		}
		defer gallery.Close()

		imageModel := svc.ImageModel
		if imageModel == "" {
			imageModel = studio.DefaultImageModel
		}
		videoModel := svc.VideoModel
		if videoModel == "" {
			videoModel = studio.DefaultVideoModel
		}

		server, err := serve.New(serve.Options{
			Addr: serveOpts.addr,
			NewChannel: func(ctx context.Context) (livewire.Channel, error) {
				return livewire.Dial(ctx, &livewire.ConnectConfig{
					APIKey: gemini.APIKey,
					Model:  gemini.LiveModel,
				})
			},
			Chat:       chatBackend,
			Studio:     studioClient,
			ImageModel: imageModel,
			VideoModel: videoModel,
			Gallery:    gallery,
		})
		if err != nil {
			return err
		}

		fmt.Printf("vocalis studio: http://%s\n", serveOpts.addr)
		return server.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveOpts.context, "context", "", "config context (default: current)")
	serveCmd.Flags().StringVar(&serveOpts.addr, "addr", "127.0.0.1:8487", "listen address (loopback only)")
	serveCmd.Flags().StringVar(&serveOpts.backend, "backend", "gemini", "chat backend (gemini or openai)")

	rootCmd.AddCommand(serveCmd)
}
