package storage

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newSQLiteStore(t *testing.T) (*Store, *SQLBackend) {
	t.Helper()
	sb, err := OpenSQL(context.Background(), "sqlite", ":memory:", true)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = sb.Close() })
	return NewStore(sb, zerolog.Nop()), sb
}

func TestLoadLogMissingIsEmpty(t *testing.T) {
	s, _ := newSQLiteStore(t)

	log, err := s.LoadLog(context.Background(), "missing")
	if err != nil {
		t.Fatalf("load log: %v", err)
	}
	if log == nil || len(log) != 0 {
		t.Fatalf("expected empty non-nil log, got %#v", log)
	}
}

func TestAppendAndLoadRoundTrip(t *testing.T) {
	s, _ := newSQLiteStore(t)
	ctx := context.Background()
	at := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)

	want := []Message{
		NewMessage(SenderBot, "Hello! How can I help you today?", at),
		NewMessage(SenderUser, "Hi", at.Add(time.Second)),
		NewMessage(SenderBot, "Hello back", at.Add(2*time.Second)),
	}
	for _, m := range want {
		if err := s.AppendMessage(ctx, "c1", m); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := s.LoadLog(ctx, "c1")
	if err != nil {
		t.Fatalf("load log: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got %#v\nwant %#v", got, want)
	}
	if got[1].Timestamp != "2026-02-13T10:00:01.000Z" {
		t.Fatalf("unexpected timestamp format %q", got[1].Timestamp)
	}
}

func TestLoadLogUnparsableIsEmpty(t *testing.T) {
	s, sb := newSQLiteStore(t)
	ctx := context.Background()

	if err := sb.Put(ctx, ChatKey("broken"), "{not json"); err != nil {
		t.Fatalf("put: %v", err)
	}
	log, err := s.LoadLog(ctx, "broken")
	if err != nil {
		t.Fatalf("expected parse failure to be swallowed, got %v", err)
	}
	if len(log) != 0 {
		t.Fatalf("expected empty log, got %d messages", len(log))
	}

	if err := s.AppendMessage(ctx, "broken", NewMessage(SenderUser, "again", time.Now())); err != nil {
		t.Fatalf("append after broken: %v", err)
	}
	log, _ = s.LoadLog(ctx, "broken")
	if len(log) != 1 || log[0].Text != "again" {
		t.Fatalf("expected log rewritten with one message, got %#v", log)
	}
}

func TestIndexFiltersNullsAndDuplicates(t *testing.T) {
	s, sb := newSQLiteStore(t)
	ctx := context.Background()

	if err := sb.Put(ctx, IndexKey, `["b", null, "", "a", "b", 1700000000000]`); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.LoadIndex(ctx)
	if err != nil {
		t.Fatalf("load index: %v", err)
	}
	want := []string{"b", "a", "1700000000000"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestIndexSaveOverwrites(t *testing.T) {
	s, _ := newSQLiteStore(t)
	ctx := context.Background()

	if err := s.SaveIndex(ctx, []string{"a", "b"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveIndex(ctx, []string{"c"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.LoadIndex(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"c"}) {
		t.Fatalf("expected [c], got %v", got)
	}

	if err := s.SaveIndex(ctx, nil); err != nil {
		t.Fatalf("save nil: %v", err)
	}
	got, _ = s.LoadIndex(ctx)
	if len(got) != 0 {
		t.Fatalf("expected empty index, got %v", got)
	}
}

func TestIndexUnparsableIsEmpty(t *testing.T) {
	s, sb := newSQLiteStore(t)
	ctx := context.Background()

	if err := sb.Put(ctx, IndexKey, `{"oops":true}`); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.LoadIndex(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty index, got %v", got)
	}
}

func TestDeleteLog(t *testing.T) {
	s, _ := newSQLiteStore(t)
	ctx := context.Background()

	if err := s.AppendMessage(ctx, "c1", NewMessage(SenderUser, "x", time.Now())); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.DeleteLog(ctx, "c1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteLog(ctx, "c1"); err != nil {
		t.Fatalf("second delete should be a no-op, got %v", err)
	}
	log, _ := s.LoadLog(ctx, "c1")
	if len(log) != 0 {
		t.Fatalf("expected log gone, got %#v", log)
	}
}

func TestEmptyChatIDRejected(t *testing.T) {
	s, _ := newSQLiteStore(t)
	ctx := context.Background()

	if err := s.AppendMessage(ctx, "", NewMessage(SenderUser, "x", time.Now())); err != ErrEmptyChatID {
		t.Fatalf("expected ErrEmptyChatID, got %v", err)
	}
	if err := s.DeleteLog(ctx, ""); err != ErrEmptyChatID {
		t.Fatalf("expected ErrEmptyChatID, got %v", err)
	}
}

func TestLoggedChatIDs(t *testing.T) {
	s, _ := newSQLiteStore(t)
	ctx := context.Background()

	for _, id := range []string{"b", "a"} {
		if err := s.AppendMessage(ctx, id, NewMessage(SenderUser, "x", time.Now())); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := s.SaveIndex(ctx, []string{"a"}); err != nil {
		t.Fatalf("save index: %v", err)
	}

	got, err := s.LoggedChatIDs(ctx)
	if err != nil {
		t.Fatalf("logged ids: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("expected [a b], got %v", got)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "mongo", DSN: "x", Logger: zerolog.Nop()})
	if err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestNormalizeDriver(t *testing.T) {
	cases := map[string]string{
		"":           "sqlite",
		"SQLite3":    "sqlite",
		"pgx":        "postgres",
		"postgresql": "postgres",
		" redis ":    "redis",
	}
	for in, want := range cases {
		if got := normalizeDriver(in); got != want {
			t.Fatalf("normalizeDriver(%q) = %q, want %q", in, got, want)
		}
	}
}
