package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JerryShih01/MEDIG-8/internal/post"
)

// IllustrationStage issues the "draw an illustration" call. It never fails
// outward: a pipeline run that already produced valid text content must not
// be discarded because of an image failure, so any error degrades to the
// fixed placeholder.
type IllustrationStage struct {
	gen ImageGenerator
	log *zap.Logger
}

// NewIllustrationStage wires an illustration stage.
func NewIllustrationStage(gen ImageGenerator, log *zap.Logger) *IllustrationStage {
	if log == nil {
		log = zap.NewNop()
	}
	return &IllustrationStage{gen: gen, log: log.Named("illustration")}
}

// Generate returns illustration bytes for the topic, or the placeholder.
func (s *IllustrationStage) Generate(ctx context.Context, topic, summary string) []byte {
	prompt := fmt.Sprintf(`Create a flat, pastel-colored illustration for a medical news social media post.

Topic: %s
Context: %s

Style requirements: soft flat pastel aesthetic, simple shapes, calm and
approachable medical imagery. Absolutely no text, letters, numbers, or
watermarks anywhere in the image.`, topic, summary)

	data, err := s.gen.GenerateImage(ctx, prompt)
	if err != nil || len(data) == 0 {
		s.log.Warn("illustration failed, using placeholder", zap.Error(err))
		return post.PlaceholderPNG()
	}
	return data
}
