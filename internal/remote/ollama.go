package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultOllamaURL   = "http://localhost:11434/api/generate"
	DefaultOllamaModel = "gemma3"
)

type OllamaConfig struct {
	URL        string
	Model      string
	HTTPClient *http.Client
	Augmenter  PromptAugmenter
	Logger     zerolog.Logger
}

// OllamaClient talks to Ollama's generate endpoint directly, without the chat
// backend in between. Every message is sent as a standalone prompt.
type OllamaClient struct {
	cfg OllamaConfig
}

func NewOllama(cfg OllamaConfig) *OllamaClient {
	if strings.TrimSpace(cfg.URL) == "" {
		cfg.URL = DefaultOllamaURL
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultOllamaModel
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 120 * time.Second}
	}
	return &OllamaClient{cfg: cfg}
}

var _ Exchanger = (*OllamaClient)(nil)

func (c *OllamaClient) Send(ctx context.Context, text, chatID string) (string, error) {
	payload := map[string]any{
		"model":  c.cfg.Model,
		"prompt": augment(ctx, c.cfg.Augmenter, text),
		"stream": false,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", &RemoteError{Err: fmt.Errorf("marshal generate request: %w", err)}
	}

	c.cfg.Logger.Debug().Str("chat_id", chatID).Str("model", c.cfg.Model).Msg("sending prompt to ollama")
	respBody, err := post(ctx, c.cfg.HTTPClient, c.cfg.URL, body)
	if err != nil {
		c.cfg.Logger.Warn().Err(err).Str("chat_id", chatID).Msg("ollama exchange failed")
		return "", err
	}

	var resp struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", &RemoteError{Err: fmt.Errorf("decode generate response: %w", err)}
	}
	text = strings.TrimSpace(resp.Response)
	if text == "" {
		return FallbackReply, nil
	}
	return text, nil
}
