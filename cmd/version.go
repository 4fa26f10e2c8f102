package cmd

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/mt4110/chapsplit/internal/updater"
)

var (
	// ldflags will set these
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "chapsplit と ffmpeg / ffprobe のバージョンを表示します",
	Run: func(cmd *cobra.Command, args []string) {
		printVersion(os.Stdout, cfg.FFmpegBin, cfg.FFprobeBin)
	},
}

func printVersion(w io.Writer, ffmpegBin, ffprobeBin string) {
	fmt.Fprintf(w, "chapsplit %s (%s, %s)\n", version, commit, date)
	if info, ok := debug.ReadBuildInfo(); ok {
		mod := info.Main.Version
		if mod == "" {
			mod = "(devel)"
		}
		fmt.Fprintf(w, "Go:      %s  module %s\n", info.GoVersion, mod)
	}
	fmt.Fprintf(w, "ffmpeg:  %s\n", toolVersion(ffmpegBin))
	fmt.Fprintf(w, "ffprobe: %s\n", toolVersion(ffprobeBin))
}

// toolVersion returns the first line of `bin -version`, which is where
// both ffmpeg and ffprobe put their release.
func toolVersion(bin string) string {
	path, err := exec.LookPath(bin)
	if err != nil {
		return fmt.Sprintf("%s: not found", bin)
	}
	out, err := exec.Command(path, "-version").Output()
	if err != nil {
		return fmt.Sprintf("%s: %v", path, err)
	}
	return updater.FirstLine(out)
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
