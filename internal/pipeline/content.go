package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JerryShih01/MEDIG-8/internal/gemini"
	"github.com/JerryShih01/MEDIG-8/internal/normalize"
	"github.com/JerryShih01/MEDIG-8/internal/post"
)

const contentSystemPrompt = "你是一位專業的醫療社群小編，擅長把醫療新聞改寫成 Instagram 貼文。用字親切但準確，全程使用繁體中文。僅輸出 JSON。"

// contentMaxOutputTokens is deliberately generous so captions are not
// truncated mid-sentence; truncated output surfaces as an empty-response
// error rather than a silent default.
const contentMaxOutputTokens = 8192

// ContentStage issues the "write a post" call for one selected item.
type ContentStage struct {
	gen TextGenerator
	log *zap.Logger
}

// NewContentStage wires a content stage.
func NewContentStage(gen TextGenerator, log *zap.Logger) *ContentStage {
	if log == nil {
		log = zap.NewNop()
	}
	return &ContentStage{gen: gen, log: log.Named("content")}
}

// Generate turns one search result into structured post content. The JSON
// shape is schema-guided, not guaranteed; the normalizer repairs whatever
// comes back.
func (s *ContentStage) Generate(ctx context.Context, item post.SearchResult) (post.PostContent, error) {
	prompt := fmt.Sprintf(`根據以下新聞撰寫一則 Instagram 貼文：

標題：%s
來源：%s（%s）
摘要：%s

以 JSON 輸出，格式如下：
{
  "headline": "吸睛標題（20 字內）",
  "caption": "貼文內文（約 400 字內，分段、可用 emoji）",
  "hashtags": ["標籤一", "標籤二"],
  "comparisonTable": {
    "title": "表格標題",
    "headers": ["項目", "A 方", "B 方"],
    "rows": [{"aspect": "比較面向", "value1": "A 方數值", "value2": "B 方數值"}]
  }
}`,
		item.Title, item.Source, item.Date, item.Summary)

	raw, err := s.gen.Generate(ctx, gemini.GenerateRequest{
		System:          contentSystemPrompt,
		Prompt:          prompt,
		MaxOutputTokens: contentMaxOutputTokens,
		JSONResponse:    true,
	})
	if err != nil {
		return post.PostContent{}, fmt.Errorf("content call: %w", err)
	}

	content, err := normalize.PostContent(raw)
	if err != nil {
		return post.PostContent{}, fmt.Errorf("normalize content response: %w", err)
	}
	s.log.Info("content generated",
		zap.String("headline", content.Headline),
		zap.Int("hashtags", len(content.Hashtags)),
		zap.Int("table_rows", len(content.ComparisonTable.Rows)))
	return content, nil
}
