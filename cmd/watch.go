package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mt4110/chapsplit/internal/splitter"
	"github.com/mt4110/chapsplit/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dirs...]",
	Short: "ディレクトリを監視して、追加されたファイルを自動で分割します",
	Long: `引数のディレクトリ (未指定なら設定ファイルの watchDirs、それもなければカレントディレクトリ) を
監視し、対象拡張子のファイルが作成されるたびに分割します。Ctrl+C で終了します。`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyWatchTargets(args)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		w := watcher.New(cfg, splitter.New(cfg))
		log.Println("👀 監視モードを開始しました (Ctrl+C で終了)")
		if err := w.Run(ctx); err != nil {
			return &exitError{code: exitFatal, err: err}
		}
		log.Println("監視を終了しました")
		return nil
	},
}

// applyWatchTargets lets CLI args override the configured directories,
// falling back to the current directory.
func applyWatchTargets(args []string) {
	if len(args) > 0 {
		cfg.WatchDirs = args
	}
	if len(cfg.WatchDirs) == 0 {
		cfg.WatchDirs = []string{"."}
	}
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
