// Package loader reads game content from a directory into the immutable
// content store. Two formats are accepted: Lua files run in a sandboxed VM
// that is discarded after loading, and the JSON tables (meta.json,
// nodes.json, ...) of the original browser game.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/echoes/engine/state"
)

// Format names a content format.
type Format string

const (
	FormatLua  Format = "lua"
	FormatJSON Format = "json"
)

// collector accumulates Lua definitions during file execution.
type collector struct {
	game         *lua.LTable
	nodes        []rawNode
	keywords     []rawDef
	puzzles      []rawDef
	echoes       []rawDef
	environments []rawDef
	anomalies    []rawDef
	locales      []rawDef
}

// Option configures Load.
type Option func(*options)

type options struct {
	log *slog.Logger
}

// WithLogger routes validation warnings to l.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// Load reads the content in dir, validates references and returns the
// immutable content store.
func Load(dir string, opts ...Option) (*state.Content, error) {
	o := options{log: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	format, err := Detect(dir)
	if err != nil {
		return nil, err
	}

	var c *state.Content
	switch format {
	case FormatJSON:
		c, err = loadJSON(dir)
	default:
		c, err = loadLua(dir)
	}
	if err != nil {
		return nil, err
	}

	warnings, err := validate(c)
	for _, w := range warnings {
		o.log.Warn("content", "dir", dir, "warning", w)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Detect reports the content format of dir: JSON when meta.json exists,
// otherwise Lua when any .lua file exists.
func Detect(dir string) (Format, error) {
	if _, err := os.Stat(filepath.Join(dir, metaFile)); err == nil {
		return FormatJSON, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("reading game directory %s: %w", dir, err)
	}
	files, err := luaFiles(dir)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no %s or .lua files found in %s", metaFile, dir)
	}
	return FormatLua, nil
}

func luaFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading game directory %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			files = append(files, e.Name())
		}
	}
	return sortedLuaFiles(files), nil
}

// loadLua executes every .lua file in dir (game.lua first) and compiles the
// collected definitions.
func loadLua(dir string) (*state.Content, error) {
	files, err := luaFiles(dir)
	if err != nil {
		return nil, err
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	openSafeLibs(L)
	sandbox(L)

	coll := &collector{}
	registerAPI(L, coll)

	for _, f := range files {
		if err := L.DoFile(filepath.Join(dir, f)); err != nil {
			return nil, fmt.Errorf("executing %s: %w", f, err)
		}
	}

	c, err := compile(coll)
	if err != nil {
		return nil, fmt.Errorf("compiling game data: %w", err)
	}
	return c, nil
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes globals that reach outside the VM.
func sandbox(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage", "require", "module",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}

	// Content must load the same way every time.
	if tbl, ok := L.GetGlobal("math").(*lua.LTable); ok {
		tbl.RawSetString("randomseed", lua.LNil)
		tbl.RawSetString("random", lua.LNil)
	}
}
