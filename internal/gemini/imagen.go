package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/JerryShih01/MEDIG-8/internal/core"
)

// DefaultImageModel is the image-capable Gemini model used for
// illustration synthesis.
const DefaultImageModel = "gemini-2.5-flash-image-preview"

// ImageClient generates illustrations through the official genai SDK, which
// handles the inline binary parts the REST text client has no use for.
type ImageClient struct {
	client *genai.Client
	model  string
	log    *zap.Logger
}

// NewImageClient builds an image client. As with the text client, a missing
// key is rejected at construction time.
func NewImageClient(ctx context.Context, apiKey, model string, log *zap.Logger) (*ImageClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, core.ErrMissingCredential
	}
	if model == "" {
		model = DefaultImageModel
	}
	if log == nil {
		log = zap.NewNop()
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &ImageClient{
		client: client,
		model:  model,
		log:    log.Named("imagen"),
	}, nil
}

// GenerateImage asks the model for one image and returns the first inline
// image payload in the response. No image data is an empty response; the
// caller decides whether that degrades to a placeholder.
func (c *ImageClient) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrBackend, err)
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				c.log.Info("illustration generated",
					zap.Duration("elapsed", time.Since(start)),
					zap.String("mime_type", part.InlineData.MIMEType),
					zap.Int("bytes", len(part.InlineData.Data)))
				return part.InlineData.Data, nil
			}
		}
	}
	return nil, core.ErrEmptyResponse
}
