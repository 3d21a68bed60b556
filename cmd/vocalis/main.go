// Package main is the entry point for the vocalis CLI.
//
// Usage:
//
//	vocalis [flags] <command> [subcommand] [args]
//
// Commands:
//
//	serve      - Local web studio (voice, chat, image/video, gallery)
//	talk       - Voice session in the terminal
//	chat       - Streaming text chat
//	image      - Generate images into the gallery
//	video      - Generate videos into the gallery
//	gallery    - Browse generated media
//	config     - Configuration management (contexts, services)
//	version    - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/vocalis-ai/vocalis/cmd/vocalis/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
