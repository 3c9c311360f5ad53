package remote

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

const (
	KindChatAPI      = "chat_api"
	KindOllama       = "ollama"
	KindOpenAICompat = "openai_compat"
)

// BuildOptions selects and configures an Exchanger. Augmenter only applies to
// the kinds that call a model directly; the chat backend builds its own prompts.
type BuildOptions struct {
	Kind       string
	URL        string
	Model      string
	APIKey     string
	HTTPClient *http.Client
	Augmenter  PromptAugmenter
	Logger     zerolog.Logger
}

func Build(opts BuildOptions) (Exchanger, error) {
	logger := opts.Logger.With().Str("component", "remote").Logger()
	switch strings.ToLower(strings.TrimSpace(opts.Kind)) {
	case KindChatAPI, "chat-api", "":
		return NewChatAPI(ChatAPIConfig{
			URL:        opts.URL,
			HTTPClient: opts.HTTPClient,
			Logger:     logger,
		}), nil

	case KindOllama:
		return NewOllama(OllamaConfig{
			URL:        opts.URL,
			Model:      opts.Model,
			HTTPClient: opts.HTTPClient,
			Augmenter:  opts.Augmenter,
			Logger:     logger,
		}), nil

	case KindOpenAICompat, "openai-compatible", "openai":
		return NewOpenAICompat(OpenAICompatConfig{
			BaseURL:    opts.URL,
			APIKey:     opts.APIKey,
			Model:      opts.Model,
			HTTPClient: opts.HTTPClient,
			Augmenter:  opts.Augmenter,
			Logger:     logger,
		}), nil

	default:
		return nil, fmt.Errorf("unsupported exchange kind %q", opts.Kind)
	}
}
