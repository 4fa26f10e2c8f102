package cmd

import (
	"context"
	"errors"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/mt4110/chapsplit/internal/logger"
	"github.com/mt4110/chapsplit/internal/splitter"
	"github.com/mt4110/chapsplit/internal/tui"
	"github.com/mt4110/chapsplit/internal/watcher"
)

var tuiCmd = &cobra.Command{
	Use:   "tui [dirs...]",
	Short: "TUIモードで監視・分割を行います (Interactive)",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			return &exitError{code: exitFatal, err: errors.New("tui は端末上でのみ実行できます (watch を使用してください)")}
		}
		applyWatchTargets(args)

		// Mute stdout logging to prevent TUI corruption
		logger.MuteStdout()

		eventChan := make(chan interface{}, 100)
		w := watcher.New(cfg, splitter.New(cfg))
		w.EventChan = eventChan
		w.Stdout = io.Discard

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		// Run Watcher in BG
		watchErr := make(chan error, 1)
		go func() {
			watchErr <- w.Run(ctx)
		}()

		m := tui.NewModel(cfg, eventChan)
		p := tea.NewProgram(m, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return &exitError{code: exitFatal, err: err}
		}

		// Nobody renders events any more, but the watcher must not block
		// on them while it shuts down.
		cancel()
		for {
			select {
			case err := <-watchErr:
				if err != nil {
					return &exitError{code: exitFatal, err: err}
				}
				return nil
			case <-eventChan:
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
