package updater

import (
	"log"
	"os/exec"
	"strings"
)

// CheckTools warns when the split or probe tool is missing and hints at
// an available Homebrew upgrade.
func CheckTools(ffmpegBin, ffprobeBin string) {
	missing := false
	for _, bin := range []string{ffmpegBin, ffprobeBin} {
		if _, err := exec.LookPath(bin); err != nil {
			log.Printf("⚠️ %s が見つかりません。ffmpeg のインストールを推奨します: `brew install ffmpeg`", bin)
			missing = true
		}
	}
	if missing {
		return
	}

	if _, err := exec.LookPath("brew"); err == nil {
		cmd := exec.Command("brew", "outdated", "ffmpeg")
		output, err := cmd.CombinedOutput()
		if err == nil && len(output) > 0 && strings.Contains(string(output), "ffmpeg") {
			log.Println("ℹ️ ffmpeg のアップデートが可能です。自動更新は設定されていませんが、以下で更新できます:")
			log.Println("   brew upgrade ffmpeg")
		}
	}
}

// FirstLine returns the first line of a tool's -version output.
func FirstLine(out []byte) string {
	s := string(out)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
