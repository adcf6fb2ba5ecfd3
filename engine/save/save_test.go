package save

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/nathoo/echoes/engine/state"
	"github.com/nathoo/echoes/types"
)

func testContent() *state.Content {
	return &state.Content{
		Game: types.GameDef{Title: "Test Game", Version: "1.0", Start: "wake"},
		Nodes: map[string]types.Node{
			"wake":    {ID: "wake", Body: types.Monologue{}},
			"kitchen": {ID: "kitchen", Body: types.Monologue{}},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	c := testContent()
	s := state.Default(c)

	s.CurrentNodeID = "kitchen"
	s.VisitedNodes = []string{"wake"}
	s.KnownKeywords = []string{"mirror"}
	s.AlexRelationship = 9
	s.CollectedClues["door"] = []string{"scratch"}
	s.ReceivedEchoes = []types.EchoRecord{
		{ID: "e1", Sender: "Echo", Content: "hi", Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
	}

	data, err := Encode(s, c, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	snap, err := Decode(data, c)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if snap.Version != Version || snap.Game != "Test Game" {
		t.Errorf("unexpected header %d %q", snap.Version, snap.Game)
	}
	if !reflect.DeepEqual(&snap.State, s) {
		t.Errorf("state mismatch after round trip:\n got %+v\nwant %+v", snap.State, *s)
	}
}

func TestDecode_Rejects(t *testing.T) {
	c := testContent()
	valid := func() map[string]any {
		data, _ := Encode(state.Default(c), c, time.Unix(0, 0))
		var m map[string]any
		json.Unmarshal(data, &m)
		return m
	}

	tests := []struct {
		name   string
		mutate func(m map[string]any)
		want   error
	}{
		{"future version", func(m map[string]any) { m["version"] = 2 }, ErrVersion},
		{"missing node", func(m map[string]any) { m["state"].(map[string]any)["currentNodeId"] = "" }, ErrMalformed},
		{"unknown node", func(m map[string]any) { m["state"].(map[string]any)["currentNodeId"] = "attic" }, ErrMalformed},
		{"bad view", func(m map[string]any) { m["state"].(map[string]any)["activeView"] = "combat" }, ErrMalformed},
		{"score high", func(m map[string]any) { m["state"].(map[string]any)["selfDoubt"] = 11 }, ErrMalformed},
		{"score low", func(m map[string]any) { m["state"].(map[string]any)["alexRelationship"] = 0 }, ErrMalformed},
		{"zero day", func(m map[string]any) { m["state"].(map[string]any)["dayCount"] = 0 }, ErrMalformed},
		{"wrong type", func(m map[string]any) { m["state"].(map[string]any)["visitedNodes"] = "wake" }, ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := valid()
			tt.mutate(m)
			data, _ := json.Marshal(m)
			snap, err := Decode(data, c)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if snap != nil {
				t.Error("expected nil snapshot on error")
			}
		})
	}
}

func TestDecode_Garbage(t *testing.T) {
	if _, err := Decode([]byte("{not json"), testContent()); !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

func TestDecode_NullCollections(t *testing.T) {
	c := testContent()
	data := `{"version":1,"game":"Test Game","state":{"currentNodeId":"wake","activeView":"monologue",` +
		`"alexRelationship":5,"selfDoubt":3,"dayCount":1,"visitedNodes":null}}`

	snap, err := Decode([]byte(data), c)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if snap.State.VisitedNodes == nil || snap.State.UnreadMessages == nil || snap.State.AnomalyLog == nil {
		t.Error("collections should be non-nil after load")
	}
}

func TestEncode_JSONFieldNames(t *testing.T) {
	c := testContent()
	data, err := Encode(state.Default(c), c, time.Unix(0, 0))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	for _, field := range []string{`"currentNodeId"`, `"activeView"`, `"unreadMessages"`, `"anomalyLog"`, `"savedAt"`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("expected %s in snapshot", field)
		}
	}
}
