// Package ai talks to an OpenAI-compatible model endpoint.
package ai

import "context"

// Options tune a single generation request. Zero values defer to the
// client's configured defaults.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// Image is one generated or fetched image, as raw bytes or a URL
// depending on what the provider returned.
type Image struct {
	URL      string
	Bytes    []byte
	MimeType string
}

// Client generates text and images. Implementations must be safe for
// concurrent use.
type Client interface {
	// GenerateText sends a system/user prompt pair and returns the
	// model's text output.
	GenerateText(ctx context.Context, system, user string, opts Options) (string, error)

	// GenerateImage renders one image for the prompt.
	GenerateImage(ctx context.Context, prompt string, opts Options) (Image, error)
}
