package loader

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/nathoo/echoes/types"
)

func TestLoad_Lua(t *testing.T) {
	c, err := Load("testdata/lua")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if c.Game.Title != "Night Shift" {
		t.Errorf("Title = %q", c.Game.Title)
	}
	if c.Game.Start != "wake" || c.Game.StartLocation != "flat" || c.Game.StartTime != "night" {
		t.Errorf("unexpected start fields: %+v", c.Game)
	}
	if want := []string{"Alex", "Echo"}; !reflect.DeepEqual(c.Game.Contacts, want) {
		t.Errorf("Contacts = %v, want %v", c.Game.Contacts, want)
	}
	if len(c.Nodes) != 6 {
		t.Errorf("expected 6 nodes, got %d", len(c.Nodes))
	}

	wake := c.Nodes["wake"]
	mono, ok := wake.Body.(types.Monologue)
	if !ok {
		t.Fatalf("wake body = %T", wake.Body)
	}
	if len(mono.Choices) != 2 {
		t.Fatalf("expected 2 choices, got %d", len(mono.Choices))
	}
	wantEffects := types.Effects{
		{Key: "receivedEchoes", Value: "hello"},
		{Key: "selfDoubt", Value: 1},
	}
	if !reflect.DeepEqual(mono.Choices[0].Effects, wantEffects) {
		t.Errorf("effects = %#v, want %#v", mono.Choices[0].Effects, wantEffects)
	}
	if wake.AvailableAnomalies[0] != "flicker" {
		t.Errorf("anomalies = %v", wake.AvailableAnomalies)
	}

	if c.Nodes["dark"].ContentKey != "lamp.off" {
		t.Errorf("dark content key = %q", c.Nodes["dark"].ContentKey)
	}
	if r, ok := c.Nodes["reply"].Body.(types.MessageChoices); !ok || r.Sender != "Echo" || len(r.MessageChoices) != 2 {
		t.Errorf("reply body = %#v", c.Nodes["reply"].Body)
	}

	lock, ok := c.Nodes["lock"].Body.(types.PuzzleNode)
	if !ok {
		t.Fatalf("lock body = %T", c.Nodes["lock"].Body)
	}
	if lock.PuzzleID != "door_word" || lock.OnSolve.NextNodeID != "wake" || lock.OnFail.NextNodeID != "dark" {
		t.Errorf("lock = %+v", lock)
	}
	if lock.RequiredState == nil || lock.RequiredState.MaxSelfDoubt != 8 || lock.RequiredState.Keywords[0] != "lamp" {
		t.Errorf("requirements = %+v", lock.RequiredState)
	}

	info := c.Nodes["lamp_info"].Body.(types.KeywordInfo)
	if info.ReturnToNodeID != types.ReturnPrevious {
		t.Errorf("expected default return target, got %q", info.ReturnToNodeID)
	}

	if c.Keywords["lamp"].UnlockedNodes[0] != "lamp_info" {
		t.Errorf("keyword = %+v", c.Keywords["lamp"])
	}
	if p := c.Puzzles["door_word"]; p.Solution != "Light" || p.RequiredClues[0] != "hum" {
		t.Errorf("puzzle = %+v", p)
	}
	if c.Echoes["hello"].Sender != "Echo" {
		t.Errorf("echo = %+v", c.Echoes["hello"])
	}
	if c.Anomalies["flicker"].Impact != 2 {
		t.Errorf("anomaly = %+v", c.Anomalies["flicker"])
	}
	if env := c.Environments["flat"]; env.BackgroundImage != "flat.png" || len(env.Objects) != 2 {
		t.Errorf("environment = %+v", env)
	}
	if c.Locales["fr"]["lamp.off"] != "La lampe s'éteint." {
		t.Errorf("fr locale = %v", c.Locales["fr"])
	}
}

func TestLoad_JSON(t *testing.T) {
	c, err := Load("testdata/json")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Authored order survives.
	wake := c.Nodes["wake"].Body.(types.Monologue)
	wantEffects := types.Effects{
		{Key: "selfDoubt", Value: 1},
		{Key: "receivedEchoes", Value: "hello"},
		{Key: "alexRelationship", Value: -1},
	}
	if !reflect.DeepEqual(wake.Choices[0].Effects, wantEffects) {
		t.Errorf("effects = %#v, want %#v", wake.Choices[0].Effects, wantEffects)
	}
	if wake.Choices[1].Effects != nil {
		t.Errorf("expected nil effects, got %#v", wake.Choices[1].Effects)
	}

	if c.Game.DefaultLocale != "en" {
		t.Errorf("DefaultLocale = %q", c.Game.DefaultLocale)
	}
	if len(c.Locales) != 3 {
		t.Errorf("expected 3 locales, got %d", len(c.Locales))
	}
	if m := c.Nodes["call"].Body.(types.MessageReceived); m.Sender != "Echo" {
		t.Errorf("sender = %q", m.Sender)
	}
	if k := c.Nodes["lamp_info"].Body.(types.KeywordInfo); k.ReturnToNodeID != types.ReturnPrevious {
		t.Errorf("return = %q", k.ReturnToNodeID)
	}
	if p := c.Nodes["lock"].Body.(types.PuzzleNode); p.OnSolve.Effects[0].Value != 1 {
		t.Errorf("onSolve = %+v", p.OnSolve)
	}
}

func TestLoad_ShippedGame(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	c, err := Load("../games/echoes", WithLogger(log))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, ok := c.Nodes[c.Game.Start]; !ok {
		t.Errorf("start node %q missing", c.Game.Start)
	}
	if buf.Len() > 0 {
		t.Errorf("expected no warnings, got:\n%s", buf.String())
	}
}

func TestDetect(t *testing.T) {
	if f, err := Detect("testdata/lua"); err != nil || f != FormatLua {
		t.Errorf("lua: got %q, %v", f, err)
	}
	if f, err := Detect("testdata/json"); err != nil || f != FormatJSON {
		t.Errorf("json: got %q, %v", f, err)
	}
	if _, err := Detect(t.TempDir()); err == nil {
		t.Error("expected error for empty dir")
	}
	if _, err := Detect(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing dir")
	}
}

// writeGame writes files into a fresh directory.
func writeGame(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

const minimalLua = `
Game { title = "T", start = "a" }
Monologue "a" { content = "A.", choices = { { text = "again", next = "a" } } }
`

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{
			name:  "no game",
			files: map[string]string{"a.lua": `Monologue "a" { content = "A." }`},
			want:  "no Game{}",
		},
		{
			name:  "lua syntax",
			files: map[string]string{"game.lua": `Game {`},
			want:  "executing game.lua",
		},
		{
			name:  "duplicate node",
			files: map[string]string{"game.lua": minimalLua + `Monologue "a" { content = "B." }`},
			want:  "duplicate node",
		},
		{
			name:  "os is sandboxed",
			files: map[string]string{"game.lua": minimalLua + `os.execute("true")`},
			want:  "executing game.lua",
		},
		{
			name:  "io is sandboxed",
			files: map[string]string{"game.lua": minimalLua + `io.open("/etc/passwd")`},
			want:  "executing game.lua",
		},
		{
			name:  "dofile is sandboxed",
			files: map[string]string{"game.lua": minimalLua + `dofile("x.lua")`},
			want:  "executing game.lua",
		},
		{
			name:  "validation",
			files: map[string]string{"game.lua": `Game { title = "T", start = "nowhere" }`},
			want:  "start node",
		},
		{
			name:  "json unknown field",
			files: map[string]string{"meta.json": `{"title": "T", "start": "a", "colour": "red"}`},
			want:  "parsing meta.json",
		},
		{
			name: "json missing nodes",
			files: map[string]string{
				"meta.json": `{"title": "T", "start": "a"}`,
			},
			want: "reading nodes.json",
		},
		{
			name: "json unknown node type",
			files: map[string]string{
				"meta.json":  `{"title": "T", "start": "a"}`,
				"nodes.json": `{"a": {"type": "cutscene"}}`,
			},
			want: "unknown node type",
		},
		{
			name: "json effects not an object",
			files: map[string]string{
				"meta.json":  `{"title": "T", "start": "a"}`,
				"nodes.json": `{"a": {"type": "monologue", "choices": [{"text": "x", "nextNodeId": "a", "effects": [1]}]}}`,
			},
			want: "effects: expected object",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeGame(t, tt.files))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got: %v", tt.want, err)
			}
		})
	}
}

func TestLoad_WarningsLogged(t *testing.T) {
	dir := writeGame(t, map[string]string{
		"game.lua": minimalLua + `Monologue "orphan" { content = "Alone." }`,
	})
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	if _, err := Load(dir, WithLogger(log)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !strings.Contains(buf.String(), `node \"orphan\" is unreachable`) {
		t.Errorf("expected unreachable warning, got:\n%s", buf.String())
	}
}

func TestSortedLuaFiles(t *testing.T) {
	got := sortedLuaFiles([]string{"zeta.lua", "game.lua", "alpha.lua"})
	want := []string{"game.lua", "alpha.lua", "zeta.lua"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
