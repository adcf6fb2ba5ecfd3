// Package config loads runtime settings from defaults, an optional YAML
// file and ECHOES_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/nathoo/echoes/reveal"
	"github.com/nathoo/echoes/store"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "ECHOES_"

// AppName names the data directory.
const AppName = "echoes"

// Save backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendNone   = "none"
)

// Config is the complete runtime configuration.
type Config struct {
	ContentDir string `env:"CONTENT" yaml:"content"`
	Locale     string `env:"LOCALE" yaml:"locale"` // BCP 47; empty means the game's default
	LogLevel   string `env:"LOG_LEVEL" yaml:"logLevel"`
	Seed       int64  `env:"SEED" yaml:"seed"` // 0 picks a time-based seed

	Save   Save   `envPrefix:"SAVE_" yaml:"save"`
	Reveal Reveal `envPrefix:"REVEAL_" yaml:"reveal"`
}

// Save selects where progress is persisted.
type Save struct {
	Backend string `env:"BACKEND" yaml:"backend"`
	Path    string `env:"PATH" yaml:"path"` // directory (file) or database file (sqlite)
	Slot    string `env:"SLOT" yaml:"slot"`
}

// Reveal holds text renderer timing and layout.
type Reveal struct {
	TypingSpeed      time.Duration `env:"TYPING_SPEED" yaml:"typingSpeed"`
	PunctuationPause time.Duration `env:"PUNCTUATION_PAUSE" yaml:"punctuationPause"`
	LinesPerChunk    int           `env:"LINES_PER_CHUNK" yaml:"linesPerChunk"`
	CharsPerLine     int           `env:"CHARS_PER_LINE" yaml:"charsPerLine"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ContentDir: "games/echoes",
		LogLevel:   "info",
		Save: Save{
			Backend: BackendFile,
			Slot:    store.DefaultSlot,
		},
		Reveal: Reveal{
			TypingSpeed:      reveal.DefaultTypingSpeed,
			PunctuationPause: reveal.DefaultPunctuationPause,
			LinesPerChunk:    reveal.DefaultMaxLinesPerChunk,
			CharsPerLine:     reveal.DefaultAvgCharsPerLine,
		},
	}
}

// Load builds the configuration. path names an optional YAML file; an empty
// path skips it. Environment variables override the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks field values.
func (c Config) Validate() error {
	var errs []error
	switch c.Save.Backend {
	case BackendFile, BackendSQLite, BackendNone:
	default:
		errs = append(errs, fmt.Errorf("save backend %q: want file, sqlite or none", c.Save.Backend))
	}
	if c.Save.Backend != BackendNone && c.Save.Slot == "" {
		errs = append(errs, errors.New("save slot is empty"))
	}
	if c.Locale != "" {
		if _, err := language.Parse(c.Locale); err != nil {
			errs = append(errs, fmt.Errorf("locale %q: %w", c.Locale, err))
		}
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if c.Reveal.TypingSpeed < 0 || c.Reveal.PunctuationPause < 0 {
		errs = append(errs, errors.New("reveal delays must not be negative"))
	}
	if c.Reveal.LinesPerChunk < 0 || c.Reveal.CharsPerLine < 0 {
		errs = append(errs, errors.New("reveal chunk dimensions must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return l, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	return l, nil
}

// RevealOptions converts the renderer settings.
func (c Config) RevealOptions() reveal.Options {
	return reveal.Options{
		TypingSpeed:      c.Reveal.TypingSpeed,
		PunctuationPause: c.Reveal.PunctuationPause,
		MaxLinesPerChunk: c.Reveal.LinesPerChunk,
		AvgCharsPerLine:  c.Reveal.CharsPerLine,
	}
}

// SavePath returns the configured save location, or the default under the
// data directory for the backend.
func (c Config) SavePath() (string, error) {
	if c.Save.Path != "" {
		return c.Save.Path, nil
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	if c.Save.Backend == BackendSQLite {
		return filepath.Join(dir, "echoes.db"), nil
	}
	return filepath.Join(dir, "saves"), nil
}

// DataDir returns $XDG_DATA_HOME/echoes, falling back to
// ~/.local/share/echoes.
func DataDir() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, AppName), nil
}
