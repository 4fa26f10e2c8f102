package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/mt4110/chapsplit/internal/config"
	"github.com/mt4110/chapsplit/internal/inputs"
	"github.com/mt4110/chapsplit/internal/report"
	"github.com/mt4110/chapsplit/internal/splitter"
	"github.com/mt4110/chapsplit/internal/watcher"
)

var batchCmd = &cobra.Command{
	Use:   "batch [filesOrDirs...]",
	Short: "複数のファイルをまとめて分割します",
	Long: `引数にファイル、ディレクトリ、globパターン (** 対応) を指定できます。
ディレクトリは対象拡張子のファイルを再帰的に探します。
--outdir を指定した場合、各ファイルは <outdir>/<ファイル名> に出力されます。`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		patterns := args
		if len(patterns) == 0 {
			patterns = []string{"."}
		}

		files := inputs.Expand(patterns, cfg.Extensions)
		if len(files) == 0 {
			log.Println("分割対象が見つかりません。")
			return nil
		}
		return runBatch(cmd.Context(), cfg, splitter.New(cfg), files, os.Stdout)
	},
}

// runBatch splits files one after another. Each file's chapters are still
// split concurrently. Same-named inputs from different folders get
// separate output directories.
func runBatch(ctx context.Context, c *config.Config, s watcher.SplitRunner, files []string, stdout io.Writer) error {
	results := make([]report.FileResult, 0, len(files))
	outDirs := splitter.NewOutDirAllocator(c.OutDir)
	failed := 0

	for i, f := range files {
		if ctx.Err() != nil {
			break
		}
		log.Printf("[%d/%d] %s", i+1, len(files), f)

		opts := splitter.OptionsFromConfig(c, f)
		opts.OutDir = outDirs.For(f)
		opts.Stdout = stdout

		r, err := s.Run(ctx, opts)
		if err != nil {
			log.Printf("❌ 分割失敗: %s: %v", f, err)
		}
		if err != nil || r.Errors > 0 {
			failed++
		}
		results = append(results, report.FileResult{InFile: f, Report: r, Err: err})
	}

	report.WriteBatchSummary(stdout, results)
	if failed > 0 {
		return &exitError{code: exitFailures, err: fmt.Errorf("%d / %d 個のファイルで失敗しました", failed, len(files))}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(batchCmd)
}
