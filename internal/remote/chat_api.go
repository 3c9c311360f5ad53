package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const DefaultChatAPIURL = "http://localhost:8080/api/chat"

type ChatAPIConfig struct {
	URL        string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// ChatAPIClient speaks the chat backend dialect:
// POST {"message","chatId"} -> {"response"}.
type ChatAPIClient struct {
	cfg ChatAPIConfig
}

func NewChatAPI(cfg ChatAPIConfig) *ChatAPIClient {
	if strings.TrimSpace(cfg.URL) == "" {
		cfg.URL = DefaultChatAPIURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 120 * time.Second}
	}
	return &ChatAPIClient{cfg: cfg}
}

var _ Exchanger = (*ChatAPIClient)(nil)

type chatAPIRequest struct {
	Message string `json:"message"`
	ChatID  string `json:"chatId"`
}

type chatAPIResponse struct {
	Response string `json:"response"`
}

func (c *ChatAPIClient) Send(ctx context.Context, text, chatID string) (string, error) {
	body, err := json.Marshal(chatAPIRequest{Message: text, ChatID: chatID})
	if err != nil {
		return "", &RemoteError{Err: fmt.Errorf("marshal chat request: %w", err)}
	}

	respBody, err := post(ctx, c.cfg.HTTPClient, c.cfg.URL, body)
	if err != nil {
		c.cfg.Logger.Warn().Err(err).Str("chat_id", chatID).Msg("chat api exchange failed")
		return "", err
	}

	var resp chatAPIResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", &RemoteError{Err: fmt.Errorf("decode chat response: %w", err)}
	}
	if resp.Response == "" {
		return FallbackReply, nil
	}
	return resp.Response, nil
}

// post issues a JSON POST and returns the body of a 2xx response.
func post(ctx context.Context, client *http.Client, url string, body []byte) ([]byte, error) {
	return postWithHeaders(ctx, client, url, body, nil)
}

func postWithHeaders(ctx context.Context, client *http.Client, url string, body []byte, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &RemoteError{Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &RemoteError{Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &RemoteError{Err: fmt.Errorf("read response body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp.StatusCode, b)
	}
	return b, nil
}
