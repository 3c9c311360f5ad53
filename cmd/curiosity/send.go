package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"curiosity/internal/registry"
	"curiosity/internal/storage"
)

// replyPrinter is the controller's View for headless sends. It prints bot
// messages once armed, so the seeded greeting of a fresh chat stays quiet.
type replyPrinter struct {
	out   io.Writer
	armed bool
}

func (p *replyPrinter) AppendMessage(msg storage.Message) {
	if p.armed && msg.Sender == storage.SenderBot {
		fmt.Fprintln(p.out, msg.Text)
	}
}

func (p *replyPrinter) ClearTranscript() {}
func (p *replyPrinter) SetPending(bool) {}
func (p *replyPrinter) ClearInput() {}
func (p *replyPrinter) SetChatList([]registry.Entry, string) {}

func newSendCmd() *cobra.Command {
	var chatID string
	cmd := &cobra.Command{
		Use:   "send [--chat id] <text>",
		Short: "Send one message and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := headlessApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			view := &replyPrinter{out: cmd.OutOrStdout()}
			ctl := a.controller(view)
			if chatID != "" {
				tracked, err := a.registry.Contains(ctx, chatID)
				if err != nil {
					return err
				}
				if !tracked {
					return fmt.Errorf("chat %s not found", chatID)
				}
				if err := ctl.OpenChat(ctx, chatID); err != nil {
					return err
				}
			} else if err := ctl.RefreshChatList(ctx); err != nil {
				return err
			}

			ex, err := ctl.SendUserMessage(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if ex == nil {
				return fmt.Errorf("nothing to send")
			}
			view.armed = true
			reply := ctl.Await(ctx, ex)
			if err := ctl.DeliverReply(ctx, reply); err != nil {
				return err
			}
			a.logger.Debug().Str("chat_id", ex.ChatID).Msg("exchange finished")
			return reply.Err
		},
	}
	cmd.Flags().StringVar(&chatID, "chat", "", "Chat to send to (default: most recent, or a new chat)")
	return cmd
}
