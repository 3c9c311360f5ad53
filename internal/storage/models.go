package storage

import (
	"errors"
	"fmt"
	"time"
)

type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// TimestampLayout is ISO-8601 in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

type Message struct {
	Sender    Sender `json:"sender"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

func NewMessage(sender Sender, text string, at time.Time) Message {
	return Message{
		Sender:    sender,
		Text:      text,
		Timestamp: at.UTC().Format(TimestampLayout),
	}
}

func (m Message) Time() (time.Time, bool) {
	t, err := time.Parse(time.RFC3339Nano, m.Timestamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

var (
	ErrEmptyChatID        = errors.New("chat id is empty")
	ErrUnsupportedDriver  = errors.New("unsupported store driver")
	ErrMissingDSN         = errors.New("dsn is empty")
	ErrMissingRedisAddr   = errors.New("redis addr is empty")
	errStoreNotConfigured = errors.New("store backend is nil")
)

// ParseError reports a stored value that could not be decoded. Callers of
// Store never see it; it is logged and the value is treated as empty.
type ParseError struct {
	Key string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse stored value %q: %v", e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
