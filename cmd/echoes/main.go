// Echoes is an interactive narrative played through a phone and the room
// around it.
// Usage: echoes [--version] [--plain] [--script <file>] [--config <file>] [--reset]
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/nathoo/echoes/cli"
	"github.com/nathoo/echoes/config"
	"github.com/nathoo/echoes/engine"
	"github.com/nathoo/echoes/engine/state"
	"github.com/nathoo/echoes/loader"
	"github.com/nathoo/echoes/play"
	"github.com/nathoo/echoes/store"
	"github.com/nathoo/echoes/tui"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = "Usage: echoes [--version] [--plain] [--script <file>] [--config <file>] [--reset]\n"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error %v\n", err)
		os.Exit(1)
	}
}

// options holds the parsed command line.
type options struct {
	plain      bool
	reset      bool
	version    bool
	help       bool
	scriptFile string
	configFile string
}

func parseArgs(args []string) (options, error) {
	var o options
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			o.version = true
		case "--plain":
			o.plain = true
		case "--reset":
			o.reset = true
		case "--script", "--config":
			if i+1 >= len(args) {
				return o, fmt.Errorf("parsing arguments: %s requires a file path", args[i])
			}
			if args[i] == "--script" {
				o.scriptFile = args[i+1]
			} else {
				o.configFile = args[i+1]
			}
			i++
		case "-h", "--help":
			o.help = true
		default:
			return o, fmt.Errorf("parsing arguments: unknown argument %q\n%s", args[i], usage)
		}
	}
	return o, nil
}

// run does the work of main so deferred cleanup runs on every error.
func run(args []string) error {
	o, err := parseArgs(args)
	if err != nil {
		return err
	}
	if o.version {
		fmt.Printf("echoes %s (commit %s, built %s)\n", version, commit, date)
		return nil
	}
	if o.help {
		fmt.Print(usage)
		return nil
	}

	// A missing .env is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(o.configFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	useTUI := o.scriptFile == "" && !o.plain && isTerminal()
	log, closeLog, err := newLogger(cfg, useTUI)
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer closeLog()

	content, err := loader.Load(cfg.ContentDir, loader.WithLogger(log))
	if err != nil {
		return fmt.Errorf("loading game: %w", err)
	}

	st, closeStore, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("opening saves: %w", err)
	}
	defer closeStore()

	eng := startEngine(content, st, o.reset, log)
	sess := play.New(eng, loader.MatchLocale(content, cfg.Locale))
	defer sess.Close()

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	if useTUI {
		if err := tui.Run(sess, cfg.RevealOptions(), seed); err != nil {
			return fmt.Errorf("running terminal ui: %w", err)
		}
		return nil
	}

	c := cli.New(sess, cfg.RevealOptions(), seed)
	if o.scriptFile != "" {
		f, err := os.Open(o.scriptFile)
		if err != nil {
			return fmt.Errorf("opening script: %w", err)
		}
		defer f.Close()
		c.In = f
		c.EchoInput = true
	} else {
		c.Timed = isTerminal()
	}
	printBanner(content)
	c.Run()
	return nil
}

// startEngine builds the engine and restores the saved game. A missing or
// unreadable save falls back to a fresh, persisted state.
func startEngine(c *state.Content, st engine.Store, reset bool, log *slog.Logger) *engine.Engine {
	eng := engine.New(c, engine.WithStore(st), engine.WithLogger(log))
	if !reset && eng.LoadState() {
		log.Info("restored saved game")
		return eng
	}
	eng.ResetState()
	return eng
}

func printBanner(c *state.Content) {
	fmt.Printf("%s v%s by %s\n\n", c.Game.Title, c.Game.Version, c.Game.Author)
}

// newLogger logs to stderr for the plain CLI. The TUI owns the terminal,
// so it logs to a file in the data directory instead.
func newLogger(cfg config.Config, toFile bool) (*slog.Logger, func(), error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, nil, err
	}
	var w io.Writer = os.Stderr
	closer := func() {}
	if toFile {
		dir, err := config.DataDir()
		if err != nil {
			return nil, nil, err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create data dir: %w", err)
		}
		f, err := os.OpenFile(filepath.Join(dir, "echoes.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log: %w", err)
		}
		w = f
		closer = func() { _ = f.Close() }
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), closer, nil
}

// openStore builds the configured save backend. "none" keeps saves in
// memory for the length of the session.
func openStore(cfg config.Config) (engine.Store, func(), error) {
	if cfg.Save.Backend == config.BackendNone {
		return store.NewMemory(), func() {}, nil
	}
	path, err := cfg.SavePath()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Save.Backend == config.BackendSQLite {
		db, err := store.OpenSQLite(path, cfg.Save.Slot)
		if err != nil {
			return nil, nil, err
		}
		return db, func() { _ = db.Close() }, nil
	}
	f, err := store.OpenFile(path, cfg.Save.Slot)
	if err != nil {
		return nil, nil, err
	}
	return f, func() {}, nil
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
