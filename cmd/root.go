package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/mt4110/chapsplit/internal/config"
	"github.com/mt4110/chapsplit/internal/logger"
	"github.com/mt4110/chapsplit/internal/splitter"
	"github.com/mt4110/chapsplit/internal/updater"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "chapsplit --infile <file>",
	Short: "チャプター情報に従って音声・動画ファイルを無劣化で分割します。",
	Long: `ffprobe でチャプター一覧を取得し、チャプターごとに ffmpeg のストリームコピーで
切り出すCLIツール。切り出しは並列に実行され、1つのチャプターの失敗は他に影響しません。
batch / watch / tui サブコマンドで複数ファイルや監視モードにも対応します。`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loadedCfg, err := loadConfig()
		if err != nil {
			return &exitError{code: exitFatal, err: err}
		}
		cfg = loadedCfg

		// Flags only override the config file when they were passed explicitly.
		updateConfigFromFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return &exitError{code: exitFatal, err: err}
		}

		logger.Setup(cfg.LogFile)
		updater.CheckTools(cfg.FFmpegBin, cfg.FFprobeBin)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		s := splitter.New(cfg)
		r, err := s.Run(cmd.Context(), splitter.OptionsFromConfig(cfg, flagInFile))
		if err != nil {
			return &exitError{code: exitFatal, err: err}
		}
		if r.ExitCode() != 0 {
			return &exitError{code: exitFailures, err: fmt.Errorf("%d 個のチャプターで分割に失敗しました", r.Errors)}
		}
		return nil
	},
}

// Temporary variables for flags
var (
	flagInFile      string
	flagOutDir      string
	flagConcurrency int
	flagNoUseTitle  bool
	flagKeepVideo   bool
	flagDryRun      bool
	flagVerbose     bool
	flagFFmpegBin   string
	flagFFprobeBin  string
	flagLogFile     string
	flagNotify      bool
)

// Execute runs the root command and exits with its code.
func Execute() {
	err := rootCmd.Execute()
	_ = logger.Close()
	if err == nil {
		return
	}

	code := exitFatal
	var ee *exitError
	if errors.As(err, &ee) {
		code = ee.code
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(code)
}

func init() {
	rootCmd.Flags().StringVarP(&flagInFile, "infile", "i", "", "分割する入力ファイル")
	_ = rootCmd.MarkFlagRequired("infile")
	bindPersistentFlags(rootCmd)
}

// bindPersistentFlags registers the flags shared by every subcommand.
func bindPersistentFlags(c *cobra.Command) {
	pf := c.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "設定ファイルのパス (デフォルト: ~/.config/chapsplit/config.yaml)")
	pf.StringVarP(&flagOutDir, "outdir", "o", "", "出力先ディレクトリ (未指定なら一時ディレクトリを作成)")
	pf.IntVarP(&flagConcurrency, "concurrency", "c", 0, "同時に実行する分割ジョブ数 (デフォルト: CPU数)")
	pf.BoolVar(&flagNoUseTitle, "no-use-title", false, "チャプタータイトルをファイル名に使わない")
	pf.BoolVar(&flagNoUseTitle, "no-use-title-as-filename", false, "--no-use-title と同じ")
	_ = pf.MarkHidden("no-use-title-as-filename")
	pf.BoolVar(&flagKeepVideo, "keep-video", false, "映像ストリーム (カバー画像など) を残す")
	pf.BoolVar(&flagDryRun, "dry-run", false, "実行せずにコマンドを表示する")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "詳細なログを出力する")
	pf.StringVar(&flagFFmpegBin, "ffmpeg-bin", "", "ffmpegのバイナリパスを明示的に指定する")
	pf.StringVar(&flagFFprobeBin, "ffprobe-bin", "", "ffprobeのバイナリパスを明示的に指定する")
	pf.StringVar(&flagLogFile, "log-file", "", "ログファイルのパス")
	pf.BoolVar(&flagNotify, "notify", true, "監視モードで完了時にデスクトップ通知を送る")
}

func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadFile(cfgFile, true)
	}
	c, err := config.Load()
	if err != nil {
		log.Printf("設定ファイルの読み込みに失敗しました (デフォルト値を使用します): %v", err)
		return config.NewDefault(), nil
	}
	return c, nil
}

func updateConfigFromFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("outdir") {
		c.OutDir = flagOutDir
	}
	if flags.Changed("concurrency") {
		c.Concurrency = flagConcurrency
	}
	if flags.Changed("no-use-title") || flags.Changed("no-use-title-as-filename") {
		c.UseTitle = !flagNoUseTitle
	}
	if flags.Changed("keep-video") {
		c.DropVideo = !flagKeepVideo
	}
	if flags.Changed("dry-run") {
		c.DryRun = flagDryRun
	}
	if flags.Changed("verbose") {
		c.Verbose = flagVerbose
	}
	if flags.Changed("ffmpeg-bin") {
		c.FFmpegBin = flagFFmpegBin
	}
	if flags.Changed("ffprobe-bin") {
		c.FFprobeBin = flagFFprobeBin
	}
	if flags.Changed("log-file") {
		c.LogFile = flagLogFile
	}
	// Notify defaults to true, so only an explicit --notify=false turns it off.
	if flags.Changed("notify") {
		c.Notify = flagNotify
	}
}
