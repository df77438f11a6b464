// Package gemini implements the outbound Gemini calls: a raw-HTTP
// generateContent client for text synthesis and an SDK-backed client for
// image synthesis. Each request is a single attempt; failures are surfaced
// to the caller and never retried here.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JerryShih01/MEDIG-8/internal/core"
)

// Config holds the text client settings.
type Config struct {
	APIKey          string
	BaseURL         string
	Model           string
	Timeout         time.Duration
	MaxOutputTokens int
}

// DefaultConfig returns sensible defaults for the text client.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:          apiKey,
		BaseURL:         "https://generativelanguage.googleapis.com/v1beta",
		Model:           "gemini-2.5-flash",
		Timeout:         2 * time.Minute,
		MaxOutputTokens: 8192,
	}
}

// Client talks to the generateContent REST endpoint.
type Client struct {
	apiKey          string
	baseURL         string
	model           string
	maxOutputTokens int
	httpClient      *http.Client
	log             *zap.Logger
}

// NewClient builds a text client. An empty API key is rejected here so a
// missing credential fails at construction time rather than mid-pipeline.
func NewClient(cfg Config, log *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, core.ErrMissingCredential
	}
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultConfig(cfg.APIKey).BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultConfig(cfg.APIKey).Model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig(cfg.APIKey).Timeout
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = DefaultConfig(cfg.APIKey).MaxOutputTokens
	}
	return &Client{
		apiKey:          cfg.APIKey,
		baseURL:         cfg.BaseURL,
		model:           cfg.Model,
		maxOutputTokens: cfg.MaxOutputTokens,
		httpClient:      &http.Client{Timeout: cfg.Timeout},
		log:             log.Named("gemini"),
	}, nil
}

// GenerateRequest describes one text-synthesis call.
type GenerateRequest struct {
	System          string
	Prompt          string
	MaxOutputTokens int
	// JSONResponse asks the backend for application/json output. The result
	// is still treated as schema-fuzzy by the normalizer.
	JSONResponse bool
	// GoogleSearch enables the built-in search grounding tool.
	GoogleSearch bool
}

// Generate performs one generateContent call and returns the concatenated
// candidate text. A transport failure or non-200 status is a backend error;
// a 200 with no usable text is an empty response.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	requestID := uuid.NewString()[:8]
	start := time.Now()
	log := c.log.With(zap.String("request_id", requestID), zap.String("model", c.model))
	log.Debug("generateContent request",
		zap.Int("prompt_len", len(req.Prompt)),
		zap.Bool("json", req.JSONResponse),
		zap.Bool("google_search", req.GoogleSearch))

	maxTokens := req.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = c.maxOutputTokens
	}

	body := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: req.Prompt}}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     1.0,
			MaxOutputTokens: maxTokens,
		},
	}
	if req.System != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}
	if req.JSONResponse {
		body.GenerationConfig.ResponseMimeType = "application/json"
	}
	if req.GoogleSearch {
		body.Tools = append(body.Tools, geminiTool{GoogleSearch: &geminiGoogleSearch{}})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.Error("generateContent transport failure", zap.Error(err))
		return "", fmt.Errorf("%w: %v", core.ErrBackend, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", core.ErrBackend, err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Error("generateContent non-200", zap.Int("status", resp.StatusCode))
		return "", fmt.Errorf("%w: status %d: %s", core.ErrBackend, resp.StatusCode, truncate(string(respBody), 300))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrMalformedResponse, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%w: %s", core.ErrBackend, parsed.Error.Message)
	}
	if len(parsed.Candidates) == 0 {
		return "", core.ErrEmptyResponse
	}

	var text strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	result := strings.TrimSpace(text.String())
	if result == "" {
		return "", fmt.Errorf("%w: finish reason %s", core.ErrEmptyResponse, parsed.Candidates[0].FinishReason)
	}

	log.Info("generateContent completed",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("response_len", len(result)),
		zap.Int("total_tokens", parsed.UsageMetadata.TotalTokenCount))
	return result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
