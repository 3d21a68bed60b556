package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vocalis-ai/vocalis/cmd/vocalis/internal/config"
)

var (
	// Global flags
	verbose bool

	// Global configuration (loaded at init time)
	globalConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "vocalis",
	Short: "Voice, chat and media studio for generative AI",
	Long: `vocalis - realtime voice conversations, streaming text chat, and an
image/video generation studio on one CLI.

Commands:
  serve      Local web studio (microphone voice sessions in the browser)
  talk       Voice session in the terminal
  chat       Streaming text chat
  image      Generate images
  video      Generate videos
  gallery    Browse generated media
  config     Manage contexts and service configurations
  version    Show version information

Configuration is stored in the OS config directory:
  macOS:   ~/Library/Application Support/vocalis/
  Linux:   ~/.config/vocalis/
  Windows: %AppData%/vocalis/

Examples:
  # Create a context and configure the Gemini API
  vocalis config add-context dev
  vocalis config set dev gemini api_key YOUR_KEY
  vocalis config use-context dev

  # Open the web studio
  vocalis serve

  # Generate an image into the gallery
  vocalis image "a lighthouse in fog" --aspect 16:9`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig, initLogging)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// configLoadErr stores the error from config.Load() for deferred reporting.
var configLoadErr error

func initConfig() {
	cfg, err := config.Load()
	if err != nil {
		// Store error for deferred reporting — commands that need config
		// will get a clear error via GetConfig(). This avoids failing
		// commands like 'vocalis version'.
		configLoadErr = err
		return
	}
	globalConfig = cfg
}

// initLogging raises the log level to debug in verbose mode.
func initLogging() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// GetConfig returns the global configuration.
// Returns an error if the config could not be loaded (e.g., HOME not set).
func GetConfig() (*config.Config, error) {
	if globalConfig == nil {
		if configLoadErr != nil {
			return nil, fmt.Errorf("config not available: %w", configLoadErr)
		}
		// Try loading again (e.g., dir was created since init).
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("config not available: %w", err)
		}
		globalConfig = cfg
	}
	return globalConfig, nil
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}
