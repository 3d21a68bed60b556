// Package studio implements the media generation workbench: image and video
// generation through the Gemini API, a pollable task handle for long-running
// video operations, and a persisted gallery of everything generated.
package studio

import (
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/genai"
)

// Client generates media through the Gemini API.
type Client struct {
	genai *genai.Client

	// ImageModel overrides DefaultImageModel when non-empty.
	ImageModel string

	// VideoModel overrides DefaultVideoModel when non-empty.
	VideoModel string
}

// NewClient wraps a configured genai client.
func NewClient(client *genai.Client) *Client {
	return &Client{genai: client}
}

// unwrapAPIError peels the gax wrapper so callers see the underlying
// googleapi error.
func unwrapAPIError(err error) error {
	if e, ok := err.(*apierror.APIError); ok {
		return e.Unwrap()
	}
	return err
}
