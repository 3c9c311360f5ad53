package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"curiosity/internal/storage"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "curiosity.db")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Message == "fail" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("server error"))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "re: " + req.Message})
	}))
	t.Cleanup(srv.Close)

	t.Setenv("CHAT_API_KIND", "chat_api")
	t.Setenv("CHAT_API_URL", srv.URL)
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("DB_DSN", dsn)
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("METRICS_ADDR", "")
	t.Setenv("PERSIST_ERRORS", "")
	return dsn
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func chatIDs(t *testing.T, dsn string) []string {
	t.Helper()
	st, err := storage.Open(context.Background(), storage.Options{Driver: "sqlite", DSN: dsn, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()
	ids, err := st.LoadIndex(context.Background())
	if err != nil {
		t.Fatalf("load index: %v", err)
	}
	return ids
}

func TestListEmpty(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "No chats yet.") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestSendListShow(t *testing.T) {
	dsn := setupEnv(t)

	out, err := run(t, "", "send", "Hi", "there")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if strings.TrimSpace(out) != "re: Hi there" {
		t.Fatalf("unexpected reply %q", out)
	}

	ids := chatIDs(t, dsn)
	if len(ids) != 1 {
		t.Fatalf("expected one chat, got %v", ids)
	}

	out, err = run(t, "", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, ids[0]) || !strings.Contains(out, "Hi there") {
		t.Fatalf("unexpected list %q", out)
	}

	out, err = run(t, "", "show", ids[0])
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	for _, want := range []string{"Bot: Hello! How can I help you today?", "You: Hi there", "Bot: re: Hi there"} {
		if !strings.Contains(out, want) {
			t.Fatalf("show output misses %q:\n%s", want, out)
		}
	}
}

func TestSendToExistingChat(t *testing.T) {
	dsn := setupEnv(t)

	if _, err := run(t, "", "send", "one"); err != nil {
		t.Fatalf("send: %v", err)
	}
	id := chatIDs(t, dsn)[0]
	if _, err := run(t, "", "send", "--chat", id, "two"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if ids := chatIDs(t, dsn); len(ids) != 1 {
		t.Fatalf("second send created a chat: %v", ids)
	}
	out, _ := run(t, "", "show", id)
	if !strings.Contains(out, "You: two") {
		t.Fatalf("second message missing:\n%s", out)
	}
}

func TestSendUnknownChat(t *testing.T) {
	dsn := setupEnv(t)

	if _, err := run(t, "", "send", "one"); err != nil {
		t.Fatalf("send: %v", err)
	}
	out, err := run(t, "", "send", "--chat", "typo-id", "hello")
	if err == nil || !strings.Contains(err.Error(), "chat typo-id not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
	if strings.Contains(out, "re: hello") {
		t.Fatalf("message was sent to an unknown chat: %q", out)
	}
	if ids := chatIDs(t, dsn); len(ids) != 1 || ids[0] == "typo-id" {
		t.Fatalf("unknown chat was created: %v", ids)
	}
}

func TestSendRemoteFailure(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "", "send", "fail")
	if err == nil {
		t.Fatalf("expected error exit")
	}
	if !strings.Contains(out, "Error communicating with bot:") || !strings.Contains(out, "server error") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestDeletePromptsAndHonoursAnswer(t *testing.T) {
	dsn := setupEnv(t)

	if _, err := run(t, "", "send", "Hi"); err != nil {
		t.Fatalf("send: %v", err)
	}
	id := chatIDs(t, dsn)[0]

	out, err := run(t, "n\n", "delete", id)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !strings.Contains(out, "Are you sure you want to delete this chat?") || !strings.Contains(out, "Cancelled.") {
		t.Fatalf("unexpected output %q", out)
	}
	if len(chatIDs(t, dsn)) != 1 {
		t.Fatalf("chat deleted without consent")
	}

	if _, err := run(t, "y\n", "delete", id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ids := chatIDs(t, dsn); len(ids) != 0 {
		t.Fatalf("expected empty index, got %v", ids)
	}
}

func TestDeleteUnknownChat(t *testing.T) {
	setupEnv(t)

	if _, err := run(t, "", "delete", "--yes", "nope"); err == nil {
		t.Fatalf("expected not found error")
	}
}

func TestPruneRemovesOrphans(t *testing.T) {
	dsn := setupEnv(t)

	if _, err := run(t, "", "send", "keep"); err != nil {
		t.Fatalf("send: %v", err)
	}
	st, err := storage.Open(context.Background(), storage.Options{Driver: "sqlite", DSN: dsn, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	msg := storage.NewMessage(storage.SenderUser, "lost", time.Now())
	if err := st.AppendMessage(context.Background(), "orphan", msg); err != nil {
		t.Fatalf("append: %v", err)
	}
	_ = st.Close()

	out, err := run(t, "", "prune", "--yes")
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if !strings.Contains(out, "orphan") || !strings.Contains(out, "Removed 1 chat log(s).") {
		t.Fatalf("unexpected output %q", out)
	}

	out, _ = run(t, "", "prune", "--yes")
	if !strings.Contains(out, "Nothing to prune.") {
		t.Fatalf("expected nothing left, got %q", out)
	}
}

func TestVersionFlag(t *testing.T) {
	out, err := run(t, "", "--version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "curiosity ") {
		t.Fatalf("unexpected version output %q", out)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		" WARN ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Fatalf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
