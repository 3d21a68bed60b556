package studio

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// DefaultImageModel is used when the client has no image model configured.
const DefaultImageModel = "imagen-3.0-generate-002"

// ImageRequest describes one image generation call.
type ImageRequest struct {
	Prompt string

	// Count is the number of images to generate, 1 when zero.
	Count int

	// AspectRatio is e.g. "1:1" or "16:9". Empty uses the model default.
	AspectRatio string
}

// Image is one generated image.
type Image struct {
	MIMEType string
	Data     []byte
}

// GenerateImages generates images synchronously.
func (c *Client) GenerateImages(ctx context.Context, req ImageRequest) ([]Image, error) {
	if req.Prompt == "" {
		return nil, fmt.Errorf("studio: empty prompt")
	}
	model := c.ImageModel
	if model == "" {
		model = DefaultImageModel
	}
	count := req.Count
	if count <= 0 {
		count = 1
	}

	resp, err := c.genai.Models.GenerateImages(ctx, model, req.Prompt, &genai.GenerateImagesConfig{
		NumberOfImages: int32(count),
		AspectRatio:    req.AspectRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("studio: generate images: %w", unwrapAPIError(err))
	}
	if len(resp.GeneratedImages) == 0 {
		return nil, fmt.Errorf("studio: no images generated")
	}

	images := make([]Image, 0, len(resp.GeneratedImages))
	for _, gi := range resp.GeneratedImages {
		if gi.Image == nil || len(gi.Image.ImageBytes) == 0 {
			continue
		}
		mime := gi.Image.MIMEType
		if mime == "" {
			mime = "image/png"
		}
		images = append(images, Image{MIMEType: mime, Data: gi.Image.ImageBytes})
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("studio: no image bytes in response")
	}
	return images, nil
}
