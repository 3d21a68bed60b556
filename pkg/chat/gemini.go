package chat

import (
	"context"
	"fmt"
	"iter"

	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/genai"
)

// DefaultGeminiModel is used when a Gemini backend has no model configured.
const DefaultGeminiModel = "gemini-2.0-flash"

var _ Backend = (*Gemini)(nil)

// Gemini implements Backend using the Gemini API.
type Gemini struct {
	Client *genai.Client

	// Model should not start with "models/". Empty selects
	// DefaultGeminiModel.
	Model string

	// SystemPrompt, when non-empty, is sent as the system instruction.
	SystemPrompt string
}

// Generate streams one reply via GenerateContentStream.
func (g *Gemini) Generate(ctx context.Context, msgs []Message) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		model := g.Model
		if model == "" {
			model = DefaultGeminiModel
		}
		contents, err := geminiContents(msgs)
		if err != nil {
			yield("", err)
			return
		}
		var cfg *genai.GenerateContentConfig
		if g.SystemPrompt != "" {
			cfg = &genai.GenerateContentConfig{
				SystemInstruction: &genai.Content{
					Parts: []*genai.Part{genai.NewPartFromText(g.SystemPrompt)},
				},
			}
		}

		for chunk, err := range g.Client.Models.GenerateContentStream(ctx, model, contents, cfg) {
			if err != nil {
				if e, ok := err.(*apierror.APIError); ok {
					err = e.Unwrap()
				}
				yield("", fmt.Errorf("chat: generate: %w", err))
				return
			}
			if len(chunk.Candidates) == 0 || chunk.Candidates[0].Content == nil {
				continue
			}
			cand := chunk.Candidates[0]
			for _, p := range cand.Content.Parts {
				if p.Text == "" {
					continue
				}
				if !yield(p.Text, nil) {
					return
				}
			}
			switch cand.FinishReason {
			case genai.FinishReasonUnspecified, "", genai.FinishReasonStop:
			case genai.FinishReasonMaxTokens:
				yield("", fmt.Errorf("chat: reply truncated at max tokens"))
				return
			default:
				yield("", fmt.Errorf("chat: unexpected finish reason: %s", cand.FinishReason))
				return
			}
		}
	}
}

// geminiContents converts committed history plus the pending user turn to the
// wire shape, merging consecutive same-role messages.
func geminiContents(msgs []Message) ([]*genai.Content, error) {
	var contents []*genai.Content
	for _, msg := range msgs {
		var role string
		switch msg.Role {
		case RoleUser:
			role = genai.RoleUser
		case RoleModel:
			role = genai.RoleModel
		default:
			return nil, fmt.Errorf("chat: unexpected role: %s", msg.Role)
		}
		part := genai.NewPartFromText(msg.Text)
		if n := len(contents); n > 0 && contents[n-1].Role == role {
			contents[n-1].Parts = append(contents[n-1].Parts, part)
			continue
		}
		contents = append(contents, &genai.Content{Role: role, Parts: []*genai.Part{part}})
	}
	if len(contents) == 0 {
		return nil, fmt.Errorf("chat: no contents")
	}
	return contents, nil
}
