package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"curiosity/internal/metrics"
	"curiosity/internal/registry"
	"curiosity/internal/remote"
	"curiosity/internal/storage"
)

const (
	Greeting     = "Hello! How can I help you today?"
	DeletePrompt = "Are you sure you want to delete this chat?"

	// SettleDelay is how long the host waits after deleting the current chat
	// before opening the next one.
	SettleDelay = 50 * time.Millisecond

	errorReplyPrefix = "Error communicating with bot: "
)

// View is the render surface the host implements. Calls always come from the
// goroutine that drives the controller.
type View interface {
	ClearTranscript()
	AppendMessage(msg storage.Message)
	SetPending(pending bool)
	ClearInput()
	SetChatList(entries []registry.Entry, activeID string)
}

type Config struct {
	Store         *storage.Store
	Registry      *registry.Registry
	Exchange      remote.Exchanger
	View          View
	Logger        zerolog.Logger
	Metrics       *metrics.Metrics
	PersistErrors bool
	Clock         func() time.Time
}

// Exchange is one user message whose reply is still outstanding.
type Exchange struct {
	ChatID           string
	Text             string
	FirstUserMessage bool
}

type Reply struct {
	Exchange *Exchange
	Text     string
	Err      error
	Latency  time.Duration
}

type DeleteOutcome struct {
	ChatID     string
	WasCurrent bool
	Next       string
}

// Controller owns the current chat. It is not safe for concurrent use: every
// method except Await must run on the host's UI goroutine.
type Controller struct {
	store         *storage.Store
	registry      *registry.Registry
	exchange      remote.Exchanger
	view          View
	logger        zerolog.Logger
	metrics       *metrics.Metrics
	persistErrors bool
	now           func() time.Time

	current       string
	shown         bool
	pending       map[string]int
	pendingDelete string
}

func New(cfg Config) *Controller {
	c := &Controller{
		store:         cfg.Store,
		registry:      cfg.Registry,
		exchange:      cfg.Exchange,
		view:          cfg.View,
		logger:        cfg.Logger.With().Str("component", "session").Logger(),
		metrics:       cfg.Metrics,
		persistErrors: cfg.PersistErrors,
		now:           cfg.Clock,
		pending:       map[string]int{},
	}
	if c.view == nil {
		c.view = nopView{}
	}
	if c.metrics == nil {
		c.metrics = metrics.New()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

func (c *Controller) CurrentChatID() string {
	return c.current
}

// Awaiting reports whether the current chat has a reply outstanding. The
// view's indicator follows it.
func (c *Controller) Awaiting() bool {
	return c.current != "" && c.pending[c.current] > 0
}

func (c *Controller) StartNewChat(ctx context.Context) (string, error) {
	id := registry.NewChatID(c.now())
	c.current = id
	c.shown = false
	c.view.ClearTranscript()
	c.view.ClearInput()
	c.view.SetPending(false)

	if err := c.seedGreeting(ctx, id); err != nil {
		return id, err
	}
	if err := c.registry.EnsureTracked(ctx, id); err != nil {
		return id, fmt.Errorf("track new chat: %w", err)
	}
	c.metrics.ChatsCreated.Inc()
	c.logger.Info().Str("chat_id", id).Msg("chat started")

	return id, c.RefreshChatList(ctx)
}

func (c *Controller) OpenChat(ctx context.Context, chatID string) error {
	if chatID == "" {
		return nil
	}
	if chatID == c.current && c.shown {
		return c.renderList(ctx)
	}

	c.current = chatID
	c.shown = false
	c.view.ClearTranscript()
	c.view.SetPending(c.pending[chatID] > 0)

	log, err := c.store.LoadLog(ctx, chatID)
	if err != nil {
		return fmt.Errorf("open chat %s: %w", chatID, err)
	}
	if len(log) == 0 {
		if err := c.seedGreeting(ctx, chatID); err != nil {
			return err
		}
	} else {
		for _, msg := range log {
			c.view.AppendMessage(msg)
		}
		c.shown = true
	}
	return c.renderList(ctx)
}

// SendUserMessage records and renders the user's message and returns the
// exchange the host must resolve with Await. It returns nil when there is
// nothing to send.
func (c *Controller) SendUserMessage(ctx context.Context, text string) (*Exchange, error) {
	text = strings.TrimSpace(text)
	if text == "" || c.current == "" {
		return nil, nil
	}
	chatID := c.current

	prior, err := c.store.LoadLog(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("load chat log: %w", err)
	}
	first := true
	for _, m := range prior {
		if m.Sender == storage.SenderUser {
			first = false
			break
		}
	}

	msg := storage.NewMessage(storage.SenderUser, text, c.now())
	c.view.AppendMessage(msg)
	c.shown = true
	if err := c.store.AppendMessage(ctx, chatID, msg); err != nil {
		return nil, fmt.Errorf("persist user message: %w", err)
	}
	if err := c.registry.Promote(ctx, chatID); err != nil {
		return nil, fmt.Errorf("promote chat: %w", err)
	}
	if err := c.renderList(ctx); err != nil {
		return nil, err
	}

	c.view.ClearInput()
	c.pending[chatID]++
	c.view.SetPending(true)
	c.metrics.MessagesSent.Inc()

	return &Exchange{ChatID: chatID, Text: text, FirstUserMessage: first}, nil
}

// Await performs the remote call. It reads no controller state and may run
// on any goroutine.
func (c *Controller) Await(ctx context.Context, ex *Exchange) Reply {
	start := time.Now()
	text, err := c.exchange.Send(ctx, ex.Text, ex.ChatID)
	return Reply{Exchange: ex, Text: text, Err: err, Latency: time.Since(start)}
}

func (c *Controller) DeliverReply(ctx context.Context, r Reply) error {
	if r.Exchange == nil {
		return nil
	}
	chatID := r.Exchange.ChatID

	if c.pending[chatID] > 1 {
		c.pending[chatID]--
	} else {
		delete(c.pending, chatID)
	}
	c.metrics.RemoteLatency.Observe(r.Latency.Seconds())
	if r.Err != nil {
		c.metrics.RemoteErrors.Inc()
	} else {
		c.metrics.Replies.Inc()
	}

	tracked, err := c.registry.Contains(ctx, chatID)
	if err != nil {
		return fmt.Errorf("check chat index: %w", err)
	}
	if !tracked {
		c.logger.Warn().Str("chat_id", chatID).Msg("reply for deleted chat dropped")
		return nil
	}

	current := chatID == c.current
	if current && c.pending[chatID] == 0 {
		c.view.SetPending(false)
	}

	if r.Err != nil {
		c.logger.Warn().Err(r.Err).Str("chat_id", chatID).Msg("remote exchange failed")
		msg := storage.NewMessage(storage.SenderBot, errorReplyPrefix+r.Err.Error(), c.now())
		if current {
			c.view.AppendMessage(msg)
		}
		if !c.persistErrors {
			return nil
		}
		if err := c.store.AppendMessage(ctx, chatID, msg); err != nil {
			return fmt.Errorf("persist error reply: %w", err)
		}
		return nil
	}

	msg := storage.NewMessage(storage.SenderBot, r.Text, c.now())
	if err := c.store.AppendMessage(ctx, chatID, msg); err != nil {
		return fmt.Errorf("persist bot reply: %w", err)
	}
	if current {
		c.view.AppendMessage(msg)
	} else {
		c.logger.Debug().Str("chat_id", chatID).Msg("reply stored for background chat")
	}
	if r.Exchange.FirstUserMessage {
		return c.renderList(ctx)
	}
	return nil
}

// Send runs a full exchange synchronously.
func (c *Controller) Send(ctx context.Context, text string) error {
	ex, err := c.SendUserMessage(ctx, text)
	if err != nil || ex == nil {
		return err
	}
	return c.DeliverReply(ctx, c.Await(ctx, ex))
}

// RequestDelete arms a deletion. The host must show the returned prompt and
// answer it with ConfirmDelete before anything else touches the chat.
func (c *Controller) RequestDelete(chatID string) (string, bool) {
	if chatID == "" {
		return "", false
	}
	c.pendingDelete = chatID
	return DeletePrompt, true
}

func (c *Controller) ConfirmDelete(ctx context.Context, yes bool) (DeleteOutcome, error) {
	chatID := c.pendingDelete
	c.pendingDelete = ""
	if chatID == "" || !yes {
		return DeleteOutcome{}, nil
	}

	if err := c.store.DeleteLog(ctx, chatID); err != nil {
		return DeleteOutcome{}, fmt.Errorf("delete chat log: %w", err)
	}
	if err := c.registry.Remove(ctx, chatID); err != nil {
		return DeleteOutcome{}, fmt.Errorf("remove chat from index: %w", err)
	}
	delete(c.pending, chatID)
	c.metrics.ChatsDeleted.Inc()
	c.logger.Info().Str("chat_id", chatID).Msg("chat deleted")

	out := DeleteOutcome{ChatID: chatID}
	if chatID != c.current {
		return out, c.renderList(ctx)
	}

	c.current = ""
	c.shown = false
	c.view.ClearTranscript()
	c.view.ClearInput()
	c.view.SetPending(false)

	ids, err := c.registry.IDs(ctx)
	if err != nil {
		return DeleteOutcome{}, fmt.Errorf("load chat index: %w", err)
	}
	out.WasCurrent = true
	if len(ids) > 0 {
		out.Next = ids[0]
	}
	return out, c.renderList(ctx)
}

// Settle finishes a deletion of the current chat by opening the next chat or
// starting a fresh one when none remain.
func (c *Controller) Settle(ctx context.Context, out DeleteOutcome) error {
	if !out.WasCurrent || c.current != "" {
		return nil
	}
	ids, err := c.registry.IDs(ctx)
	if err != nil {
		return fmt.Errorf("load chat index: %w", err)
	}
	if len(ids) == 0 {
		_, err := c.StartNewChat(ctx)
		return err
	}
	next := ids[0]
	for _, id := range ids {
		if id == out.Next {
			next = id
			break
		}
	}
	return c.OpenChat(ctx, next)
}

func (c *Controller) DeleteChat(ctx context.Context, chatID string, confirm func(prompt string) bool) error {
	prompt, ok := c.RequestDelete(chatID)
	if !ok {
		return nil
	}
	out, err := c.ConfirmDelete(ctx, confirm(prompt))
	if err != nil {
		return err
	}
	return c.Settle(ctx, out)
}

func (c *Controller) RefreshChatList(ctx context.Context) error {
	entries, err := c.registry.Entries(ctx)
	if err != nil {
		return fmt.Errorf("load chat list: %w", err)
	}
	if len(entries) == 0 {
		_, err := c.StartNewChat(ctx)
		return err
	}

	show := entries[0].ChatID
	for _, e := range entries {
		if e.ChatID == c.current {
			show = c.current
			break
		}
	}
	if show != c.current || !c.shown {
		return c.OpenChat(ctx, show)
	}
	c.view.SetChatList(entries, c.current)
	return nil
}

func (c *Controller) seedGreeting(ctx context.Context, chatID string) error {
	log, err := c.store.LoadLog(ctx, chatID)
	if err != nil {
		return fmt.Errorf("load chat log: %w", err)
	}
	if len(log) > 0 {
		return nil
	}
	msg := storage.NewMessage(storage.SenderBot, Greeting, c.now())
	if err := c.store.AppendMessage(ctx, chatID, msg); err != nil {
		return fmt.Errorf("persist greeting: %w", err)
	}
	c.view.AppendMessage(msg)
	c.shown = true
	return nil
}

func (c *Controller) renderList(ctx context.Context) error {
	entries, err := c.registry.Entries(ctx)
	if err != nil {
		return fmt.Errorf("load chat list: %w", err)
	}
	c.view.SetChatList(entries, c.current)
	return nil
}

type nopView struct{}

func (nopView) ClearTranscript() {}
func (nopView) AppendMessage(storage.Message) {}
func (nopView) SetPending(bool) {}
func (nopView) ClearInput() {}
func (nopView) SetChatList([]registry.Entry, string) {}
