package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newDeleteCmd() *cobra.Command {
	var skipConfirm bool
	cmd := &cobra.Command{
		Use:   "delete <chatId>",
		Short: "Delete a chat and its messages",
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
			if !tracked {
				return fmt.Errorf("chat %s not found", chatID)
			}

			confirmed := false
			confirm := func(prompt string) bool {
				confirmed = skipConfirm || askYesNo(cmd.InOrStdin(), cmd.OutOrStdout(), prompt)
				return confirmed
			}
			if err := a.controller(nil).DeleteChat(ctx, chatID, confirm); err != nil {
				return err
			}
			if confirmed {
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", chatID)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "Skip confirmation prompt")
	return cmd
}

func askYesNo(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", prompt)
	line, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
