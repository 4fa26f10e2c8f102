package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mt4110/chapsplit/internal/logger"
	"github.com/mt4110/chapsplit/internal/report"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "分割統計を表示します",
	Long:  `過去の分割履歴(ログファイル)を集計し、出力したチャプター数・ファイルサイズ・処理時間を表示します。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logPath := cfg.LogFile
		if logPath == "" {
			logPath = logger.DefaultPath()
		}

		f, err := os.Open(logPath)
		if err != nil {
			return &exitError{code: exitFatal, err: fmt.Errorf("ログファイルを開けませんでした: %w", err)}
		}
		defer f.Close()

		s, err := collectStats(f)
		if err != nil {
			return &exitError{code: exitFatal, err: err}
		}
		printStats(os.Stdout, s)
		return nil
	},
}

type splitStats struct {
	Jobs        int
	Succeeded   int
	Failed      int
	Inputs      int
	OutputBytes uint64
	DurationSec float64
	Last        time.Time
}

// collectStats scans a log for report.ResultEntry lines. Log lines carry
// a date and caller prefix before the JSON.
func collectStats(r io.Reader) (splitStats, error) {
	var s splitStats
	inputs := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		idx := strings.Index(line, "{")
		if idx == -1 {
			continue
		}

		var entry report.ResultEntry
		if err := json.Unmarshal([]byte(line[idx:]), &entry); err != nil {
			continue
		}
		if entry.Type != report.ResultEntryType {
			continue
		}

		s.Jobs++
		if entry.OK {
			s.Succeeded++
			if entry.OutputSize > 0 {
				s.OutputBytes += uint64(entry.OutputSize)
			}
		} else {
			s.Failed++
		}
		s.DurationSec += entry.DurationSec
		inputs[entry.Input] = true

		if ts, err := time.Parse(time.RFC3339, entry.Timestamp); err == nil && ts.After(s.Last) {
			s.Last = ts
		}
	}
	s.Inputs = len(inputs)
	return s, scanner.Err()
}

func printStats(w io.Writer, s splitStats) {
	const separator = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"
	fmt.Fprintln(w, separator)
	fmt.Fprintf(w, "📊 chapsplit 統計レポート\n")
	fmt.Fprintln(w, separator)
	fmt.Fprintf(w, "入力ファイル数:   %d 本\n", s.Inputs)
	fmt.Fprintf(w, "チャプター数:     %d (成功 %d / 失敗 %d)\n", s.Jobs, s.Succeeded, s.Failed)
	fmt.Fprintf(w, "合計出力サイズ:   %s\n", humanize.Bytes(s.OutputBytes))
	fmt.Fprintf(w, "合計処理時間:     %s\n", formatDuration(s.DurationSec))
	if !s.Last.IsZero() {
		fmt.Fprintf(w, "最終実行:         %s\n", humanize.Time(s.Last))
	}
	fmt.Fprintln(w, separator)
}

func formatDuration(sec float64) string {
	d := time.Duration(sec * float64(time.Second))
	return d.Round(time.Millisecond).String()
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
