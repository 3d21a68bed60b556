package studio

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// DefaultVideoModel is used when the client has no video model configured.
const DefaultVideoModel = "veo-2.0-generate-001"

// VideoRequest describes one video generation call.
type VideoRequest struct {
	Prompt string

	// AspectRatio is e.g. "16:9" or "9:16". Empty uses the model default.
	AspectRatio string
}

// Video is one generated video.
type Video struct {
	MIMEType string
	Data     []byte
}

// GenerateVideo starts a video generation operation and returns a pollable
// task. Video generation runs for minutes; callers either Wait on the task
// or keep its ID and poll Status later.
func (c *Client) GenerateVideo(ctx context.Context, req VideoRequest) (*Task[Video], error) {
	if req.Prompt == "" {
		return nil, fmt.Errorf("studio: empty prompt")
	}
	model := c.VideoModel
	if model == "" {
		model = DefaultVideoModel
	}

	var cfg *genai.GenerateVideosConfig
	if req.AspectRatio != "" {
		cfg = &genai.GenerateVideosConfig{AspectRatio: req.AspectRatio}
	}
	op, err := c.genai.Models.GenerateVideos(ctx, model, req.Prompt, nil, cfg)
	if err != nil {
		return nil, fmt.Errorf("studio: generate video: %w", unwrapAPIError(err))
	}

	return NewTask(op.Name, func(ctx context.Context) (*Video, TaskStatus, error) {
		// The operation handle advances only on a successful poll, so a
		// transient error leaves the task pollable.
		latest, err := c.genai.Operations.GetVideosOperation(ctx, op, nil)
		if err != nil {
			return nil, "", fmt.Errorf("studio: poll video operation: %w", unwrapAPIError(err))
		}
		op = latest

		video, status := videoFromOperation(op)
		if status != TaskStatusSuccess {
			return nil, status, nil
		}

		data := video.VideoBytes
		if len(data) == 0 {
			// Hosted result; fetch the bytes through the files API.
			b, err := c.genai.Files.Download(ctx, video, nil)
			if err != nil {
				return nil, "", fmt.Errorf("studio: download video: %w", unwrapAPIError(err))
			}
			data = video.VideoBytes
			if len(data) == 0 {
				data = b
			}
		}
		mime := video.MIMEType
		if mime == "" {
			mime = "video/mp4"
		}
		return &Video{MIMEType: mime, Data: data}, TaskStatusSuccess, nil
	}), nil
}

// videoFromOperation maps a polled operation onto a task status and, on
// success, the generated video it carries.
func videoFromOperation(op *genai.GenerateVideosOperation) (*genai.Video, TaskStatus) {
	if !op.Done {
		return nil, TaskStatusPending
	}
	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 || op.Response.GeneratedVideos[0].Video == nil {
		return nil, TaskStatusFailed
	}
	return op.Response.GeneratedVideos[0].Video, TaskStatusSuccess
}
