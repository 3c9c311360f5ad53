package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"curiosity/internal/config"
	"curiosity/internal/tui"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "curiosity",
		Short: "Terminal chat client for a local chat backend",
		Long: `Curiosity keeps a list of chat conversations and exchanges messages
with a chat backend over HTTP. Without a subcommand it opens the
interactive terminal UI.`,
		Version:       version,
		RunE:          runTUI,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("curiosity {{.Version}}\n")
	root.AddCommand(
		newListCmd(),
		newShowCmd(),
		newSendCmd(),
		newDeleteCmd(),
		newPruneCmd(),
	)
	return root
}

func runTUI(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// The TUI owns the terminal, so logs go to a file.
	if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	logFile, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	logger := setupLogger(cfg.Log.Level, logFile)

	ctx := cmd.Context()
	a, err := openApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	stop := a.serveMetrics()
	defer stop()

	logger.Info().
		Str("exchange", cfg.Exchange.Kind).
		Str("store", cfg.Store.Driver).
		Bool("persist_errors", cfg.PersistErrors).
		Msg("starting curiosity")

	m := tui.New(ctx, logger)
	m.Bind(a.controller(m))

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	logger.Info().Msg("stopped")
	return nil
}
