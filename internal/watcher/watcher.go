package watcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mt4110/chapsplit/internal/config"
	"github.com/mt4110/chapsplit/internal/inputs"
	"github.com/mt4110/chapsplit/internal/notify"
	"github.com/mt4110/chapsplit/internal/report"
	"github.com/mt4110/chapsplit/internal/splitter"
)

// SplitRunner is the part of splitter.Splitter the watcher needs.
type SplitRunner interface {
	Run(ctx context.Context, opts splitter.Options) (report.Report, error)
}

// Watcher splits audio files as they appear in the watched directories.
type Watcher struct {
	Cfg      *config.Config
	Splitter SplitRunner
	// EventChan is optional. It receives the events below and
	// report.ChapterEvent values.
	EventChan chan<- interface{}
	// Stdout receives per-file summaries; nil means os.Stdout.
	Stdout io.Writer

	processingMu sync.Mutex
	processing   map[string]bool
	wg           sync.WaitGroup

	outDirs *splitter.OutDirAllocator
}

func New(cfg *config.Config, s SplitRunner) *Watcher {
	return &Watcher{
		Cfg:        cfg,
		Splitter:   s,
		processing: make(map[string]bool),
		outDirs:    splitter.NewOutDirAllocator(cfg.OutDir),
	}
}

// Events
type FileFoundEvent struct {
	Path string
	Name string
}
type StartSplitEvent struct {
	Path string
}
type SuccessEvent struct {
	Path   string
	OutDir string
	Report report.Report
}
type FailureEvent struct {
	Path string
	Err  error
}

// Run watches until ctx is cancelled, then waits for in-flight splits.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if len(w.Cfg.WatchDirs) == 0 {
		return errors.New("監視対象のディレクトリが設定されていません")
	}

	added := 0
	for _, dir := range w.Cfg.WatchDirs {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			log.Printf("⚠️ ディレクトリパスの解決に失敗 (スキップ): %s -> %v", dir, err)
			continue
		}
		if err = fw.Add(absDir); err != nil {
			log.Printf("⚠️ 監視エラー (スキップ): %s -> %v", dir, err)
			continue
		}
		added++
		log.Printf("監視を開始しました: %s", absDir)
	}
	if added == 0 {
		return errors.New("監視できるディレクトリがありません")
	}

	for {
		select {
		case <-ctx.Done():
			w.wg.Wait()
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				w.wg.Wait()
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-fw.Errors:
			if !ok {
				w.wg.Wait()
				return nil
			}
			log.Println("監視エラー:", err)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	if !w.ShouldProcess(event.Name) {
		return
	}

	log.Printf("新規ファイルを検知: %s", event.Name)
	w.emit(FileFoundEvent{Path: event.Name, Name: filepath.Base(event.Name)})

	if !w.claim(event.Name) {
		log.Printf("すでに処理中です: %s", event.Name)
		return
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer w.release(event.Name)

		// Wait for the writer to finish.
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(w.Cfg.SettleDelay) * time.Second):
		}

		if _, err := os.Stat(event.Name); os.IsNotExist(err) {
			log.Printf("ファイルが見つかりません (削除または移動されました): %s", event.Name)
			return
		}
		w.ProcessFile(ctx, event.Name)
	}()
}

// ShouldProcess filters out hidden files and non-audio extensions.
func (w *Watcher) ShouldProcess(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return false
	}
	return inputs.HasExt(name, w.Cfg.Extensions)
}

func (w *Watcher) claim(path string) bool {
	w.processingMu.Lock()
	defer w.processingMu.Unlock()
	if w.processing[path] {
		return false
	}
	w.processing[path] = true
	return true
}

func (w *Watcher) release(path string) {
	w.processingMu.Lock()
	delete(w.processing, path)
	w.processingMu.Unlock()
}

// ProcessFile splits one file into <outDir>/<basename>, or a fresh temp
// directory when no output directory is configured. A taken <basename>
// directory gets a " (N)" suffix.
func (w *Watcher) ProcessFile(ctx context.Context, path string) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		log.Printf("パスの解決に失敗: %v", err)
		return
	}

	opts := splitter.OptionsFromConfig(w.Cfg, absPath)
	opts.OutDir = w.outDirs.For(absPath)
	opts.Events = w.EventChan
	opts.Stdout = w.Stdout

	log.Printf("分割開始: %s", absPath)
	w.emit(StartSplitEvent{Path: absPath})

	name := filepath.Base(absPath)
	r, err := w.Splitter.Run(ctx, opts)
	if err == nil && r.Errors > 0 {
		err = fmt.Errorf("%d 個のチャプターで失敗しました", r.Errors)
	}
	if err != nil {
		log.Printf("❌ 分割失敗: %s: %v", absPath, err)
		w.emit(FailureEvent{Path: absPath, Err: err})
		if w.Cfg.Notify {
			notify.Send("分割失敗", fmt.Sprintf("%s の分割に失敗しました。", name), "")
		}
		return
	}

	log.Printf("✅ 分割完了: %s -> %s", absPath, r.OutputDir)
	w.emit(SuccessEvent{Path: absPath, OutDir: r.OutputDir, Report: r})
	if w.Cfg.Notify {
		notify.Send("分割完了", fmt.Sprintf("%s を %d 個のチャプターに分割しました。", name, r.Success), r.OutputDir)
	}
}

func (w *Watcher) emit(e interface{}) {
	if w.EventChan != nil {
		w.EventChan <- e
	}
}
