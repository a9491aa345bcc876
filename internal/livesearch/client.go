// Package livesearch provides web-grounded benefit lookup via a
// chat-completions style search API. It is the last fallback when the
// offer catalog cannot answer a query.
package livesearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Config holds live search client configuration.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// Result is the outcome of a live search call.
type Result struct {
	Success bool
	Content string
	Err     string
}

// Searcher performs web-grounded searches for benefit information.
type Searcher interface {
	Search(ctx context.Context, query string, keywords []string) (Result, error)
}

// Client calls a chat-completions search API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a new live search client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("live search API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.perplexity.ai"
	}
	if cfg.Model == "" {
		cfg.Model = "sonar"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

const systemPrompt = "당신은 한국의 할인 혜택과 이벤트 정보를 찾아주는 전문가입니다. " +
	"최신 정보를 검색해서 브랜드별 할인, 적립, 쿠폰 혜택을 정확하게 알려주세요. " +
	"혜택 기간과 조건이 있으면 반드시 포함하세요."

// Search performs a web-grounded search for benefit information.
// Keywords extend the user query to steer the search toward current offers.
func (c *Client) Search(ctx context.Context, query string, keywords []string) (Result, error) {
	prompt := query
	if len(keywords) > 0 {
		prompt = query + "\n\n검색 키워드: " + strings.Join(keywords, ", ")
	}

	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens: c.cfg.MaxTokens,
	})
	if err != nil {
		return Result{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{Success: false, Err: err.Error()}, fmt.Errorf("live search request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read response: %w", err)
	}

	var out chatResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return Result{}, fmt.Errorf("parse response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := out.Error.Message
		if msg == "" {
			msg = fmt.Sprintf("live search returned %d", resp.StatusCode)
		}
		return Result{Success: false, Err: msg}, nil
	}

	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return Result{Success: false, Err: "live search returned no content"}, nil
	}

	return Result{Success: true, Content: out.Choices[0].Message.Content}, nil
}

// SearchKeywords builds search keywords from extracted brands and categories.
func SearchKeywords(brands, categories []string) []string {
	keywords := make([]string, 0, len(brands)+len(categories))
	for _, b := range brands {
		keywords = append(keywords, b+" 혜택")
	}
	for _, c := range categories {
		keywords = append(keywords, c+" 할인 혜택")
	}
	return keywords
}

// MockSearcher returns a fixed result for testing.
type MockSearcher struct {
	Result Result
	Calls  int
}

// Search returns the preset result.
func (m *MockSearcher) Search(ctx context.Context, query string, keywords []string) (Result, error) {
	m.Calls++
	return m.Result, nil
}
