package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

const (
	IndexKey      = "chatList"
	ChatKeyPrefix = "chat_"
)

type Backend interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

var (
	_ Backend = (*SQLBackend)(nil)
	_ Backend = (*RedisBackend)(nil)
)

// Store keeps one index key and one message log key per chat. Writes to the
// two keys are not transactional.
type Store struct {
	backend Backend
	logger  zerolog.Logger
}

func NewStore(backend Backend, logger zerolog.Logger) *Store {
	return &Store{backend: backend, logger: logger.With().Str("component", "storage").Logger()}
}

type Options struct {
	Driver        string
	DSN           string
	AutoMigrate   bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	Logger        zerolog.Logger
}

func Open(ctx context.Context, opts Options) (*Store, error) {
	driver := normalizeDriver(opts.Driver)
	if driver == "redis" {
		prefix := opts.RedisPrefix
		if prefix == "" {
			prefix = DefaultRedisPrefix
		}
		rb, err := OpenRedis(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB, prefix)
		if err != nil {
			return nil, err
		}
		return NewStore(rb, opts.Logger), nil
	}

	sb, err := OpenSQL(ctx, driver, opts.DSN, opts.AutoMigrate)
	if err != nil {
		return nil, err
	}
	return NewStore(sb, opts.Logger), nil
}

func (s *Store) Close() error {
	if s == nil || s.backend == nil {
		return nil
	}
	return s.backend.Close()
}

func ChatKey(chatID string) string {
	return ChatKeyPrefix + chatID
}

func (s *Store) LoadLog(ctx context.Context, chatID string) ([]Message, error) {
	if chatID == "" {
		return []Message{}, nil
	}
	if s.backend == nil {
		return nil, errStoreNotConfigured
	}
	key := ChatKey(chatID)
	raw, found, err := s.backend.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load chat log: %w", err)
	}
	if !found || strings.TrimSpace(raw) == "" {
		return []Message{}, nil
	}

	var log []Message
	if err := json.Unmarshal([]byte(raw), &log); err != nil {
		perr := &ParseError{Key: key, Err: err}
		s.logger.Warn().Err(perr).Str("chat_id", chatID).Msg("discarding unreadable chat log")
		return []Message{}, nil
	}
	if log == nil {
		log = []Message{}
	}
	return log, nil
}

func (s *Store) AppendMessage(ctx context.Context, chatID string, msg Message) error {
	if chatID == "" {
		return ErrEmptyChatID
	}
	log, err := s.LoadLog(ctx, chatID)
	if err != nil {
		return err
	}
	log = append(log, msg)
	return s.writeLog(ctx, chatID, log)
}

// SaveLog overwrites the chat's log in full.
func (s *Store) SaveLog(ctx context.Context, chatID string, log []Message) error {
	if chatID == "" {
		return ErrEmptyChatID
	}
	if log == nil {
		log = []Message{}
	}
	return s.writeLog(ctx, chatID, log)
}

func (s *Store) writeLog(ctx context.Context, chatID string, log []Message) error {
	b, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("marshal chat log: %w", err)
	}
	if err := s.backend.Put(ctx, ChatKey(chatID), string(b)); err != nil {
		return fmt.Errorf("save chat log: %w", err)
	}
	return nil
}

func (s *Store) DeleteLog(ctx context.Context, chatID string) error {
	if chatID == "" {
		return ErrEmptyChatID
	}
	if err := s.backend.Delete(ctx, ChatKey(chatID)); err != nil {
		return fmt.Errorf("delete chat log: %w", err)
	}
	return nil
}

func (s *Store) LoadIndex(ctx context.Context) ([]string, error) {
	if s.backend == nil {
		return nil, errStoreNotConfigured
	}
	raw, found, err := s.backend.Get(ctx, IndexKey)
	if err != nil {
		return nil, fmt.Errorf("load chat index: %w", err)
	}
	if !found || strings.TrimSpace(raw) == "" {
		return []string{}, nil
	}

	var entries []any
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		perr := &ParseError{Key: IndexKey, Err: err}
		s.logger.Warn().Err(perr).Msg("discarding unreadable chat index")
		return []string{}, nil
	}

	out := make([]string, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		var id string
		switch v := e.(type) {
		case string:
			id = strings.TrimSpace(v)
		case float64:
			// older clients stored bare millisecond numbers
			id = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			continue
		}
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

func (s *Store) SaveIndex(ctx context.Context, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal chat index: %w", err)
	}
	if err := s.backend.Put(ctx, IndexKey, string(b)); err != nil {
		return fmt.Errorf("save chat index: %w", err)
	}
	return nil
}

// LoggedChatIDs lists every chat that has a stored log, indexed or not.
func (s *Store) LoggedChatIDs(ctx context.Context) ([]string, error) {
	keys, err := s.backend.Keys(ctx, ChatKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list chat logs: %w", err)
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if !strings.HasPrefix(k, ChatKeyPrefix) {
			continue
		}
		if id := strings.TrimPrefix(k, ChatKeyPrefix); id != "" {
			out = append(out, id)
		}
	}
	return out, nil
}
