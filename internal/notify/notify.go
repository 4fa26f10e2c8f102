package notify

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

// Send shows a desktop notification. filePath, when set, is opened on click
// where the notifier supports it. Failures are ignored.
func Send(title, message, filePath string) {
	if _, err := exec.LookPath("terminal-notifier"); err == nil {
		args := []string{"-title", title, "-message", message, "-sound", "default"}
		if filePath != "" {
			u := url.URL{Scheme: "file", Path: filePath}
			args = append(args, "-open", u.String())
		}
		exec.Command("terminal-notifier", args...).Run()
		return
	}

	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf(`display notification %s with title %s sound name "default"`,
			appleScriptString(message), appleScriptString(title))
		exec.Command("osascript", "-e", script).Run()
	case "linux":
		if _, err := exec.LookPath("notify-send"); err == nil {
			exec.Command("notify-send", title, message).Run()
		}
	}
}

func appleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
