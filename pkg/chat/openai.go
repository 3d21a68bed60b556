package chat

import (
	"context"
	"fmt"
	"iter"

	"github.com/openai/openai-go"
)

// DefaultOpenAIModel is used when an OpenAI backend has no model configured.
const DefaultOpenAIModel = openai.ChatModelGPT4oMini

var _ Backend = (*OpenAI)(nil)

// OpenAI implements Backend using the chat completions streaming API. It
// also serves OpenAI-compatible endpoints when the client is configured with
// a custom base URL.
type OpenAI struct {
	Client *openai.Client

	// Model is the chat completions model. Empty selects DefaultOpenAIModel.
	Model string

	// SystemPrompt, when non-empty, is prepended as a system message.
	SystemPrompt string
}

// Generate streams one reply via chat completions.
func (o *OpenAI) Generate(ctx context.Context, msgs []Message) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		model := o.Model
		if model == "" {
			model = DefaultOpenAIModel
		}
		params := openai.ChatCompletionNewParams{
			Model:    model,
			Messages: o.oaiMessages(msgs),
		}

		stream := o.Client.Chat.Completions.NewStreaming(ctx, params)
		defer stream.Close()
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			choice := chunk.Choices[0]
			if choice.Delta.Content != "" && !yield(choice.Delta.Content, nil) {
				return
			}
			switch choice.FinishReason {
			case "", "stop":
			case "length":
				yield("", fmt.Errorf("chat: reply truncated at max tokens"))
				return
			case "content_filter":
				yield("", fmt.Errorf("chat: reply blocked by content filter"))
				return
			}
		}
		if err := stream.Err(); err != nil {
			yield("", fmt.Errorf("chat: stream: %w", err))
		}
	}
}

func (o *OpenAI) oaiMessages(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs)+1)
	if o.SystemPrompt != "" {
		out = append(out, openai.SystemMessage(o.SystemPrompt))
	}
	for _, msg := range msgs {
		switch msg.Role {
		case RoleModel:
			out = append(out, openai.AssistantMessage(msg.Text))
		default:
			out = append(out, openai.UserMessage(msg.Text))
		}
	}
	return out
}
