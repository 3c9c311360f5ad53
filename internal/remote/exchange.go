package remote

import (
	"context"
	"fmt"
)

const (
	// FallbackReply is used when a successful response carries no reply text.
	FallbackReply = "Sorry, I didn't get a valid response."

	noErrorDetails = "No error details provided"
	maxBodyBytes   = 4 << 20
)

// Exchanger sends one user message and resolves the bot reply.
type Exchanger interface {
	Send(ctx context.Context, text, chatID string) (string, error)
}

// PromptAugmenter rewrites a user message into the prompt a model sees. It
// never fails; on trouble it returns text unchanged.
type PromptAugmenter interface {
	Augment(ctx context.Context, text string) string
}

func augment(ctx context.Context, a PromptAugmenter, text string) string {
	if a == nil {
		return text
	}
	return a.Augment(ctx, text)
}

// RemoteError is any failure of the exchange: a non-2xx status, a transport
// failure, or an unreadable success body.
type RemoteError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *RemoteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("HTTP error! status: %d, message: %s", e.StatusCode, e.Body)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "remote exchange failed"
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

func statusError(code int, body []byte) *RemoteError {
	text := string(body)
	if text == "" {
		text = noErrorDetails
	}
	return &RemoteError{StatusCode: code, Body: text}
}
