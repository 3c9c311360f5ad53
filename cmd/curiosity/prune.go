package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPruneCmd() *cobra.Command {
	var skipConfirm bool
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove stored message logs that no chat in the list refers to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := headlessApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			logged, err := a.store.LoggedChatIDs(ctx)
			if err != nil {
				return err
			}
			indexed, err := a.registry.IDs(ctx)
			if err != nil {
				return err
			}
			known := make(map[string]bool, len(indexed))
			for _, id := range indexed {
				known[id] = true
			}
			var orphans []string
			for _, id := range logged {
				if !known[id] {
					orphans = append(orphans, id)
				}
			}

			out := cmd.OutOrStdout()
			if len(orphans) == 0 {
				fmt.Fprintln(out, "Nothing to prune.")
				return nil
			}
			fmt.Fprintf(out, "%d orphaned chat log(s):\n", len(orphans))
			for _, id := range orphans {
				fmt.Fprintf(out, "  %s\n", id)
			}
			if !skipConfirm && !askYesNo(cmd.InOrStdin(), out, "Delete them?") {
				fmt.Fprintln(out, "Cancelled.")
				return nil
			}
			for _, id := range orphans {
				if err := a.store.DeleteLog(ctx, id); err != nil {
					return err
				}
			}
			a.logger.Info().Int("count", len(orphans)).Msg("orphaned chat logs pruned")
			fmt.Fprintf(out, "Removed %d chat log(s).\n", len(orphans))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "Skip confirmation prompt")
	return cmd
}
