package tui

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mt4110/chapsplit/internal/config"
	"github.com/mt4110/chapsplit/internal/report"
	"github.com/mt4110/chapsplit/internal/watcher"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#2E7D6B")).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A0A0A0"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F"))
)

const maxHistory = 50

type tickMsg time.Time

// split is one input currently being split.
type split struct {
	name    string
	started time.Time
	done    int
	failed  int
}

type Model struct {
	cfg *config.Config

	queue []string
	paths []string // parallel to queue

	active  map[string]*split // by absolute input path
	history []string

	chaptersDone   int
	chaptersFailed int
	lastOutDir     string

	cursor int
	now    time.Time

	sub chan interface{}
}

func NewModel(cfg *config.Config, sub chan interface{}) Model {
	return Model{
		cfg:     cfg,
		queue:   []string{},
		paths:   []string{},
		active:  make(map[string]*split),
		history: []string{},
		now:     time.Now(),
		sub:     sub,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		waitForActivity(m.sub),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.queue)-1 {
				m.cursor++
			}
		case "o":
			if m.lastOutDir != "" {
				return m, tea.ExecProcess(openCommand(m.lastOutDir), func(error) tea.Msg { return nil })
			}
		}

	case tickMsg:
		m.now = time.Time(msg)
		return m, tickCmd()

	case watcher.FileFoundEvent:
		m.queue = append(m.queue, msg.Name)
		m.paths = append(m.paths, msg.Path)
		return m, waitForActivity(m.sub)

	case watcher.StartSplitEvent:
		m.removeFromQueue(msg.Path)
		m.active[msg.Path] = &split{name: filepath.Base(msg.Path), started: time.Now()}
		m.pushHistory("🚀 Splitting: " + msg.Path)
		return m, waitForActivity(m.sub)

	case report.ChapterEvent:
		s := m.active[msg.InFile]
		if msg.OK {
			m.chaptersDone++
			if s != nil {
				s.done++
			}
			m.pushHistory("   ✔ " + filepath.Base(msg.OutFile))
		} else {
			m.chaptersFailed++
			if s != nil {
				s.failed++
			}
			m.pushHistory(errorStyle.Render("   ✘ " + filepath.Base(msg.OutFile)))
		}
		return m, waitForActivity(m.sub)

	case watcher.SuccessEvent:
		delete(m.active, msg.Path)
		m.lastOutDir = msg.OutDir
		m.pushHistory(fmt.Sprintf("✅ Done: %s (%d chapters -> %s)", msg.Path, msg.Report.Success, msg.OutDir))
		return m, waitForActivity(m.sub)

	case watcher.FailureEvent:
		delete(m.active, msg.Path)
		m.pushHistory(errorStyle.Render(fmt.Sprintf("❌ Failed: %s: %v", msg.Path, msg.Err)))
		return m, waitForActivity(m.sub)
	}
	return m, nil
}

// removeFromQueue resolves queued paths before comparing, since the
// watcher reports found files by event path and started files by
// absolute path.
func (m *Model) removeFromQueue(path string) {
	idx := -1
	for i, p := range m.paths {
		abs, err := filepath.Abs(p)
		if p == path || (err == nil && abs == path) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	m.queue = append(m.queue[:idx], m.queue[idx+1:]...)
	m.paths = append(m.paths[:idx], m.paths[idx+1:]...)
	if m.cursor >= len(m.queue) && m.cursor > 0 {
		m.cursor--
	}
}

func (m *Model) pushHistory(line string) {
	m.history = append([]string{line}, m.history...)
	if len(m.history) > maxHistory {
		m.history = m.history[:maxHistory]
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("🎧 chapsplit TUI") + "\n\n")
	fmt.Fprintf(&b, "監視中: %v\n", m.cfg.WatchDirs)
	b.WriteString(statusStyle.Render(fmt.Sprintf("チャプター: %d 完了 / %d 失敗", m.chaptersDone, m.chaptersFailed)) + "\n\n")

	b.WriteString("分割中:\n")
	if len(m.active) == 0 {
		b.WriteString(statusStyle.Render("  (なし)") + "\n")
	}
	keys := make([]string, 0, len(m.active))
	for k := range m.active {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s := m.active[k]
		elapsed := m.now.Sub(s.started).Truncate(time.Second)
		if elapsed < 0 {
			elapsed = 0
		}
		fmt.Fprintf(&b, "  %s  %d 完了 / %d 失敗  (%s)\n", s.name, s.done, s.failed, elapsed)
	}

	b.WriteString("\n処理待ちキュー:\n")
	if len(m.queue) == 0 {
		b.WriteString(statusStyle.Render("  (なし)") + "\n")
	}
	for i, q := range m.queue {
		cursor := "  "
		if m.cursor == i {
			cursor = "> "
		}
		b.WriteString(cursor + q + "\n")
	}

	b.WriteString("\n最近の履歴:\n")
	if len(m.history) == 0 {
		b.WriteString(statusStyle.Render("  (履歴なし)") + "\n")
	}
	for _, h := range m.history {
		b.WriteString("  " + h + "\n")
	}

	b.WriteString("\n操作: [q] 終了  [↑/↓] 選択  [o] 最新の出力フォルダを開く\n")
	return b.String()
}

func openCommand(dir string) *exec.Cmd {
	if runtime.GOOS == "darwin" {
		return exec.Command("open", dir)
	}
	return exec.Command("xdg-open", dir)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForActivity(sub chan interface{}) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}
