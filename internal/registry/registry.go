package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"curiosity/internal/storage"
)

const (
	PreviewLimit = 25
	previewMore  = "..."
	newChatLabel = "New Chat"
	chatLabel    = "Chat"
	timeLayout   = "15:04"
)

type Entry struct {
	ChatID  string
	Preview string
}

// Registry maintains the ordered chat index, most recently active first.
type Registry struct {
	store  *storage.Store
	logger zerolog.Logger
}

func New(store *storage.Store, logger zerolog.Logger) *Registry {
	return &Registry{store: store, logger: logger.With().Str("component", "registry").Logger()}
}

func (r *Registry) IDs(ctx context.Context) ([]string, error) {
	return r.store.LoadIndex(ctx)
}

func (r *Registry) Contains(ctx context.Context, chatID string) (bool, error) {
	ids, err := r.store.LoadIndex(ctx)
	if err != nil {
		return false, err
	}
	return indexOf(ids, chatID) >= 0, nil
}

func (r *Registry) EnsureTracked(ctx context.Context, chatID string) error {
	if chatID == "" {
		return storage.ErrEmptyChatID
	}
	ids, err := r.store.LoadIndex(ctx)
	if err != nil {
		return err
	}
	if indexOf(ids, chatID) >= 0 {
		return nil
	}
	ids = append([]string{chatID}, ids...)
	if err := r.store.SaveIndex(ctx, ids); err != nil {
		return fmt.Errorf("track chat: %w", err)
	}
	r.logger.Debug().Str("chat_id", chatID).Int("chats", len(ids)).Msg("chat tracked")
	return nil
}

// Promote moves chatID to the front. Untracked ids are inserted.
func (r *Registry) Promote(ctx context.Context, chatID string) error {
	if chatID == "" {
		return storage.ErrEmptyChatID
	}
	ids, err := r.store.LoadIndex(ctx)
	if err != nil {
		return err
	}
	idx := indexOf(ids, chatID)
	if idx == 0 {
		return nil
	}
	out := make([]string, 0, len(ids)+1)
	out = append(out, chatID)
	for i, id := range ids {
		if i == idx {
			continue
		}
		out = append(out, id)
	}
	if err := r.store.SaveIndex(ctx, out); err != nil {
		return fmt.Errorf("promote chat: %w", err)
	}
	return nil
}

func (r *Registry) Remove(ctx context.Context, chatID string) error {
	ids, err := r.store.LoadIndex(ctx)
	if err != nil {
		return err
	}
	idx := indexOf(ids, chatID)
	if idx < 0 {
		return nil
	}
	ids = append(ids[:idx], ids[idx+1:]...)
	if err := r.store.SaveIndex(ctx, ids); err != nil {
		return fmt.Errorf("remove chat: %w", err)
	}
	return nil
}

func (r *Registry) Entries(ctx context.Context) ([]Entry, error) {
	ids, err := r.store.LoadIndex(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(ids))
	for _, id := range ids {
		preview, err := r.PreviewText(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, Entry{ChatID: id, Preview: preview})
	}
	return out, nil
}

func (r *Registry) PreviewText(ctx context.Context, chatID string) (string, error) {
	log, err := r.store.LoadLog(ctx, chatID)
	if err != nil {
		return "", err
	}
	return Preview(chatID, log), nil
}

// Preview derives the sidebar label for a chat from its log.
func Preview(chatID string, log []storage.Message) string {
	if len(log) == 0 {
		return withCreationTime(newChatLabel, chatID)
	}
	for _, m := range log {
		if m.Sender != storage.SenderUser {
			continue
		}
		if m.Text != "" {
			return Truncate(m.Text)
		}
		break
	}
	if log[0].Text != "" {
		return Truncate(log[0].Text)
	}
	return withCreationTime(chatLabel, chatID)
}

// Truncate keeps the first PreviewLimit characters, trimmed, and appends
// "..." when the text was longer.
func Truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= PreviewLimit {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(string(runes[:PreviewLimit])) + previewMore
}

func withCreationTime(label, chatID string) string {
	t, ok := CreatedAt(chatID)
	if !ok {
		return label
	}
	return fmt.Sprintf("%s (%s)", label, t.Local().Format(timeLayout))
}

func indexOf(ids []string, chatID string) int {
	for i, id := range ids {
		if id == chatID {
			return i
		}
	}
	return -1
}
