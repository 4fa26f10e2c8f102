package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

type Config struct {
	WatchDirs []string `yaml:"watchDirs"`

	OutDir      string   `yaml:"outDir"`
	Concurrency int      `yaml:"concurrency"`
	UseTitle    bool     `yaml:"useTitle"`
	DropVideo   bool     `yaml:"dropVideo"`
	DryRun      bool     `yaml:"dryRun"`
	Verbose     bool     `yaml:"verbose"`
	FFmpegBin   string   `yaml:"ffmpegBin"`
	FFprobeBin  string   `yaml:"ffprobeBin"`
	LogFile     string   `yaml:"logFile"`
	Extensions  []string `yaml:"extensions"`
	Notify      bool     `yaml:"notify"`
	SettleDelay int      `yaml:"settleDelay"` // seconds
}

// DefaultExtensions are the audio containers the batch and watch modes pick up.
var DefaultExtensions = []string{"m4b", "m4a", "mp3", "mka", "mkv", "ogg", "opus", "flac"}

func NewDefault() *Config {
	return &Config{
		Concurrency: runtime.NumCPU(),
		UseTitle:    true,
		DropVideo:   true,
		FFmpegBin:   "ffmpeg",
		FFprobeBin:  "ffprobe",
		Extensions:  append([]string(nil), DefaultExtensions...),
		Notify:      true,
		SettleDelay: 2,
	}
}

// DefaultPath returns ~/.config/chapsplit/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "chapsplit", "config.yaml"), nil
}

// Load reads the default config file. A missing file yields the defaults.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return NewDefault(), nil // ホームディレクトリが取れなくてもデフォルトで進む
	}
	return LoadFile(path, false)
}

// LoadFile decodes path on top of the defaults. When required is false a
// missing file is not an error.
func LoadFile(path string, required bool) (*Config, error) {
	cfg := NewDefault()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be >= 1, got %d", c.Concurrency)
	}
	if c.FFmpegBin == "" {
		return errors.New("ffmpegBin must not be empty")
	}
	if c.FFprobeBin == "" {
		return errors.New("ffprobeBin must not be empty")
	}
	return nil
}
