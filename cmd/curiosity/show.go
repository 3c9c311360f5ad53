package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"curiosity/internal/storage"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <chatId>",
		Short: "Print the messages of a chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := headlessApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			chatID := args[0]
			tracked, err := a.registry.Contains(ctx, chatID)
			if err != nil {
				return err
			}
			log, err := a.store.LoadLog(ctx, chatID)
			if err != nil {
				return err
			}
			if !tracked && len(log) == 0 {
				return fmt.Errorf("chat %s not found", chatID)
			}
			for _, msg := range log {
				printMessage(cmd.OutOrStdout(), msg)
			}
			return nil
		},
	}
}

func printMessage(w io.Writer, msg storage.Message) {
	who := "Bot"
	if msg.Sender == storage.SenderUser {
		who = "You"
	}
	if t, ok := msg.Time(); ok {
		fmt.Fprintf(w, "[%s] %s: %s\n", t.Local().Format("2006-01-02 15:04"), who, msg.Text)
		return
	}
	fmt.Fprintf(w, "%s: %s\n", who, msg.Text)
}
