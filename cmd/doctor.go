package cmd

import (
	"errors"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/mt4110/chapsplit/internal/config"
	"github.com/mt4110/chapsplit/internal/logger"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "環境の診断を行います",
	Long:  `ffmpeg / ffprobe のインストール状況、通知コマンド、ログディレクトリの権限、設定ファイルをチェックします。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log.Println("🏥 環境診断を開始します...")
		if !diagnose(cfg) {
			log.Println("❌ いくつかの問題が見つかりました。修正してください。")
			return &exitError{code: exitFailures, err: errors.New("doctor: 問題が見つかりました")}
		}
		log.Println("✅ 診断完了: 概ね問題なさそうです！")
		return nil
	},
}

// diagnose logs one line per check and reports whether all required
// checks passed.
func diagnose(c *config.Config) bool {
	ok := true

	// 1. ffmpeg / ffprobe
	for _, bin := range []string{c.FFmpegBin, c.FFprobeBin} {
		path, err := exec.LookPath(bin)
		if err != nil {
			log.Printf("❌ %s が見つかりません。 `brew install ffmpeg` などでインストールしてください。", bin)
			ok = false
			continue
		}
		log.Printf("✅ %s found: %s", bin, path)
		log.Printf("   Version: %s", toolVersion(path))
	}

	// 2. Desktop notifications (watch mode only)
	notifier := "notify-send"
	if runtime.GOOS == "darwin" {
		notifier = "terminal-notifier"
	}
	if path, err := exec.LookPath(notifier); err != nil {
		log.Printf("⚠️ %s が見つかりません。監視モードの完了通知が表示されない場合があります。", notifier)
	} else {
		log.Printf("✅ %s found: %s", notifier, path)
	}

	// 3. Log directory
	logPath := c.LogFile
	if logPath == "" {
		logPath = logger.DefaultPath()
	}
	if err := checkWritable(filepath.Dir(logPath)); err != nil {
		log.Printf("❌ ログディレクトリへの書き込み権限がありません: %v", err)
		ok = false
	} else {
		log.Printf("✅ ログディレクトリ権限 OK (%s)", filepath.Dir(logPath))
	}

	// 4. Config file
	if path, err := config.DefaultPath(); err == nil {
		if _, err := os.Stat(path); err != nil {
			log.Printf("ℹ️ 設定ファイルは見つかりませんでした (デフォルト値を使用): %s", path)
		} else {
			log.Printf("✅ 設定ファイル: %s", path)
		}
	}

	return ok
}

func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".chapsplit-write-test-")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
