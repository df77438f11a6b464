// Package pipeline sequences the three Gemini calls behind a single-flight
// state machine and exposes the artifact bundle to the caller.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JerryShih01/MEDIG-8/internal/gemini"
	"github.com/JerryShih01/MEDIG-8/internal/normalize"
	"github.com/JerryShih01/MEDIG-8/internal/post"
)

// TextGenerator is the outbound text-synthesis contract. *gemini.Client
// satisfies it; tests substitute fakes.
type TextGenerator interface {
	Generate(ctx context.Context, req gemini.GenerateRequest) (string, error)
}

// ImageGenerator is the outbound illustration-synthesis contract.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

// broadQuery replaces an empty topic so a blank search box still searches.
const broadQuery = "最新醫療新聞、新藥核准或臨床試驗結果"

const searchSystemPrompt = "你是一位醫療新聞編輯，負責為台灣讀者蒐集可靠的醫療新聞。僅輸出 JSON，不要加任何說明文字。"

// SearchStage issues the "find recent items" call. It keeps no state between
// calls beyond its collaborators.
type SearchStage struct {
	gen   TextGenerator
	clock func() time.Time
	log   *zap.Logger
}

// NewSearchStage wires a search stage.
func NewSearchStage(gen TextGenerator, log *zap.Logger) *SearchStage {
	if log == nil {
		log = zap.NewNop()
	}
	return &SearchStage{gen: gen, clock: time.Now, log: log.Named("search")}
}

// Search asks for up to five recent items in the date range and normalizes
// the response. The five-item cap is a prompt-level instruction only; the
// normalizer tolerates more or fewer. Zero parseable items is an empty
// slice, not an error.
func (s *SearchStage) Search(ctx context.Context, topic string, from, to time.Time) ([]post.SearchResult, error) {
	query := topic
	if query == "" {
		query = broadQuery
	}

	prompt := fmt.Sprintf(`請搜尋 %s 至 %s 期間關於「%s」的醫療新聞，最多 5 則。

以 JSON 陣列輸出，每則包含以下欄位（摘要以繁體中文撰寫，約 60 字）：
[{"title": "標題", "source": "媒體名稱", "url": "連結", "summary": "摘要", "date": "YYYY-MM-DD"}]`,
		from.Format("2006-01-02"), to.Format("2006-01-02"), query)

	raw, err := s.gen.Generate(ctx, gemini.GenerateRequest{
		System:       searchSystemPrompt,
		Prompt:       prompt,
		GoogleSearch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("search call: %w", err)
	}

	results, err := normalize.SearchResults(raw, s.clock())
	if err != nil {
		return nil, fmt.Errorf("normalize search response: %w", err)
	}
	s.log.Info("search completed", zap.String("topic", query), zap.Int("results", len(results)))
	return results, nil
}
