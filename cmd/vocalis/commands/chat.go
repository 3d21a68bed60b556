package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vocalis-ai/vocalis/pkg/chat"
	"github.com/vocalis-ai/vocalis/pkg/cli"
)

var chatOpts struct {
	context string
	backend string
	model   string
	system  string
	prompt  string
}

var chatCmd = &cobra.Command{
	Use:   "chat [prompt]",
	Short: "Streaming text chat",
	Long: `Chat with a model, streaming the reply as it is generated.

With a prompt argument, sends one message and exits. Without one, starts
an interactive loop; /reset clears the conversation, /quit exits.

Examples:
  vocalis chat "explain WebSockets in one paragraph"
  vocalis chat --backend openai --model gpt-4o-mini
  vocalis chat --system "answer in French"`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		backend, err := newChatBackend(ctx, chatOpts.context, chatOpts.backend, chatOpts.model, chatOpts.system)
		if err != nil {
			return err
		}
		session := chat.NewSession(backend)

		if len(args) == 1 {
			return streamTurn(cmd, session, args[0])
		}

		fmt.Println("Interactive chat. /reset clears history, /quit exits.")
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				fmt.Println()
				return scanner.Err()
			}
			line := strings.TrimSpace(scanner.Text())
			switch line {
			case "":
				continue
			case "/quit", "/exit":
				return nil
			case "/reset":
				session.Reset()
				fmt.Println("History cleared.")
				continue
			}

			if err := streamTurn(cmd, session, line); err != nil {
				// Keep the loop alive; the failed turn was discarded.
				cli.PrintError("%v", err)
			}
		}
	},
}

// streamTurn sends one message and prints deltas as they arrive.
func streamTurn(cmd *cobra.Command, session *chat.Session, text string) error {
	printed := false
	for delta, err := range session.Send(cmd.Context(), text) {
		if err != nil {
			if printed {
				fmt.Println()
			}
			return err
		}
		fmt.Print(delta)
		printed = true
	}
	if printed {
		fmt.Println()
	}
	return nil
}

func init() {
	chatCmd.Flags().StringVar(&chatOpts.context, "context", "", "config context (default: current)")
	chatCmd.Flags().StringVar(&chatOpts.backend, "backend", "gemini", "chat backend (gemini or openai)")
	chatCmd.Flags().StringVar(&chatOpts.model, "model", "", "model override")
	chatCmd.Flags().StringVar(&chatOpts.system, "system", "", "system prompt override")

	rootCmd.AddCommand(chatCmd)
}
