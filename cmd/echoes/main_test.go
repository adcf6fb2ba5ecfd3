package main

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nathoo/echoes/engine/save"
	"github.com/nathoo/echoes/engine/state"
	"github.com/nathoo/echoes/store"
	"github.com/nathoo/echoes/types"
)

func testContent() *state.Content {
	return &state.Content{
		Game: types.GameDef{Title: "Test", Start: "start", StartLocation: "room"},
		Nodes: map[string]types.Node{
			"start": {ID: "start", Content: "Hello.", Body: types.Monologue{Choices: []types.Choice{
				{Text: "On", NextNodeID: "next"},
			}}},
			"next": {ID: "next", Content: "Later.", Body: types.Monologue{}},
		},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStartEngine_CorruptSaveIsReplaced(t *testing.T) {
	ctx := context.Background()
	c := testContent()
	mem := store.NewMemory()
	mem.Save(ctx, []byte("{broken"))

	eng := startEngine(c, mem, false, quietLogger())
	if got := eng.State().CurrentNodeID; got != "start" {
		t.Errorf("expected start node, got %q", got)
	}

	data, err := mem.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := save.Decode(data, c); err != nil {
		t.Errorf("expected the broken save to be replaced, got %v", err)
	}
}

func TestStartEngine_RestoresAndResets(t *testing.T) {
	c := testContent()
	mem := store.NewMemory()

	first := startEngine(c, mem, false, quietLogger())
	first.GoToNode("next")

	if got := startEngine(c, mem, false, quietLogger()).State().CurrentNodeID; got != "next" {
		t.Errorf("expected restored node next, got %q", got)
	}
	if got := startEngine(c, mem, true, quietLogger()).State().CurrentNodeID; got != "start" {
		t.Errorf("expected reset to start, got %q", got)
	}
}

func TestParseArgs(t *testing.T) {
	o, err := parseArgs([]string{"--plain", "--script", "walk.txt", "--config", "echoes.yaml", "--reset"})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if !o.plain || !o.reset || o.scriptFile != "walk.txt" || o.configFile != "echoes.yaml" {
		t.Errorf("unexpected options %+v", o)
	}

	if _, err := parseArgs([]string{"--script"}); err == nil {
		t.Error("expected an error for a missing path")
	}
	if _, err := parseArgs([]string{"games/echoes"}); err == nil {
		t.Error("expected an error for an unknown argument")
	}
}

func TestRun_MissingConfig(t *testing.T) {
	err := run([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.HasPrefix(err.Error(), "loading config:") {
		t.Errorf("expected a config error, got %v", err)
	}
}
