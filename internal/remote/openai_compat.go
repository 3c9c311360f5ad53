package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultOpenAIBaseURL is Ollama's OpenAI-compatible surface.
const DefaultOpenAIBaseURL = "http://localhost:11434/v1"

type OpenAICompatConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
	Augmenter  PromptAugmenter
	Logger     zerolog.Logger
}

// OpenAICompatClient posts each message as a single-turn chat completion.
type OpenAICompatClient struct {
	cfg OpenAICompatConfig
}

func NewOpenAICompat(cfg OpenAICompatConfig) *OpenAICompatClient {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultOllamaModel
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 120 * time.Second}
	}
	return &OpenAICompatClient{cfg: cfg}
}

var _ Exchanger = (*OpenAICompatClient)(nil)

func (c *OpenAICompatClient) Send(ctx context.Context, text, chatID string) (string, error) {
	endpoint, err := chatCompletionsURL(c.cfg.BaseURL)
	if err != nil {
		return "", &RemoteError{Err: err}
	}
	payload := map[string]any{
		"model": c.cfg.Model,
		"messages": []map[string]string{
			{"role": "user", "content": augment(ctx, c.cfg.Augmenter, text)},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", &RemoteError{Err: fmt.Errorf("marshal chat completion payload: %w", err)}
	}

	var headers map[string]string
	if key := strings.TrimSpace(c.cfg.APIKey); key != "" {
		headers = map[string]string{"Authorization": "Bearer " + key}
	}
	respBody, err := postWithHeaders(ctx, c.cfg.HTTPClient, endpoint, body, headers)
	if err != nil {
		c.cfg.Logger.Warn().Err(err).Str("chat_id", chatID).Msg("chat completion failed")
		return "", err
	}

	reply, err := parseChatCompletion(respBody)
	if err != nil {
		return "", &RemoteError{Err: err}
	}
	if strings.TrimSpace(reply) == "" {
		return FallbackReply, nil
	}
	return reply, nil
}

func chatCompletionsURL(base string) (string, error) {
	base = strings.TrimSpace(base)
	if strings.HasSuffix(base, "/chat/completions") {
		return base, nil
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/chat/completions"
	return u.String(), nil
}

// parseChatCompletion returns "" when the body decodes but carries no text.
func parseChatCompletion(body []byte) (string, error) {
	var resp struct {
		Choices []struct {
			Message struct {
				Content any `json:"content"`
			} `json:"message"`
			Text string `json:"text"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode chat completion response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	if resp.Choices[0].Text != "" {
		return resp.Choices[0].Text, nil
	}
	return contentText(resp.Choices[0].Message.Content), nil
}

// contentText flattens string or multi-part message content.
func contentText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if m, ok := item.(map[string]any); ok {
				if txt, ok := m["text"].(string); ok {
					parts = append(parts, txt)
				}
			}
		}
		return strings.Join(parts, "\n")
	default:
		return ""
	}
}
