package state

import (
	"reflect"
	"testing"
	"time"

	"github.com/nathoo/echoes/types"
)

func testContent() *Content {
	return &Content{
		Game: types.GameDef{
			Title:         "Test Game",
			Author:        "Test",
			Version:       "0.1.0",
			Start:         "wake",
			StartLocation: "bedroom",
		},
		Nodes: map[string]types.Node{
			"wake": {
				ID:      "wake",
				Content: "You wake up.",
				Body: types.Monologue{Choices: []types.Choice{
					{Text: "Get up", NextNodeID: "kitchen"},
				}},
			},
			"kitchen": {
				ID:         "kitchen",
				ContentKey: "kitchen.text",
				Body:       types.Monologue{},
			},
		},
		Locales: map[string]map[string]string{
			"en": {"kitchen.text": "The kitchen is cold."},
		},
	}
}

func TestDefault_Template(t *testing.T) {
	s := Default(testContent())

	if s.CurrentNodeID != "wake" {
		t.Errorf("expected current node wake, got %q", s.CurrentNodeID)
	}
	if s.ActiveView != types.ViewMonologue {
		t.Errorf("expected monologue view, got %q", s.ActiveView)
	}
	if s.CurrentLocation != "bedroom" {
		t.Errorf("expected location bedroom, got %q", s.CurrentLocation)
	}
	if s.WorldTime != DefaultWorldTime || s.DayCount != 1 {
		t.Errorf("expected morning of day 1, got %q day %d", s.WorldTime, s.DayCount)
	}
	if s.AlexRelationship != 5 || s.SelfDoubt != 3 {
		t.Errorf("expected scores 5/3, got %d/%d", s.AlexRelationship, s.SelfDoubt)
	}
	for _, contact := range DefaultContacts {
		if n, ok := s.UnreadMessages[contact]; !ok || n != 0 {
			t.Errorf("expected 0 unread for %s, got %d (present=%v)", contact, n, ok)
		}
		if h, ok := s.MessageHistory[contact]; !ok || len(h) != 0 {
			t.Errorf("expected empty history for %s, got %v", contact, h)
		}
	}
}

func TestDefault_CustomContacts(t *testing.T) {
	c := testContent()
	c.Game.Contacts = []string{"Alex"}
	s := Default(c)

	if _, ok := s.UnreadMessages["Alex"]; !ok {
		t.Error("expected Alex thread")
	}
	if _, ok := s.UnreadMessages["Echo"]; ok {
		t.Error("default contacts should be replaced by game contacts")
	}
}

func TestDefault_FreshEachCall(t *testing.T) {
	c := testContent()
	a := Default(c)
	a.KnownKeywords = append(a.KnownKeywords, "mirror")
	a.UnreadMessages["Echo"] = 4

	b := Default(c)
	if len(b.KnownKeywords) != 0 || b.UnreadMessages["Echo"] != 0 {
		t.Error("mutating one default state leaked into another")
	}
}

func TestClone_Independent(t *testing.T) {
	s := Default(testContent())
	s.VisitedNodes = []string{"wake"}
	s.CollectedClues["door"] = []string{"a"}
	s.MessageHistory["Echo"] = []types.MessageRecord{{ID: "1", From: "Echo", Text: "hi", Timestamp: time.Unix(0, 0)}}

	c := Clone(s)
	if !reflect.DeepEqual(s, c) {
		t.Fatal("clone should equal original")
	}

	c.VisitedNodes[0] = "other"
	c.CollectedClues["door"][0] = "b"
	c.MessageHistory["Echo"][0].Text = "changed"
	c.UnreadMessages["Echo"] = 9

	if s.VisitedNodes[0] != "wake" {
		t.Error("visited nodes shared")
	}
	if s.CollectedClues["door"][0] != "a" {
		t.Error("clue slice shared")
	}
	if s.MessageHistory["Echo"][0].Text != "hi" {
		t.Error("history shared")
	}
	if s.UnreadMessages["Echo"] != 0 {
		t.Error("unread map shared")
	}
}

func TestAddUnique(t *testing.T) {
	list, changed := AddUnique(nil, "a")
	if !changed || len(list) != 1 {
		t.Fatalf("expected [a] changed, got %v %v", list, changed)
	}
	list, changed = AddUnique(list, "a")
	if changed || len(list) != 1 {
		t.Errorf("second insert should be a no-op, got %v %v", list, changed)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-5, 1},
		{0, 1},
		{1, 1},
		{7, 7},
		{10, 10},
		{42, 10},
	}
	for _, tt := range tests {
		if got := Clamp(tt.in); got != tt.want {
			t.Errorf("Clamp(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestText(t *testing.T) {
	c := testContent()

	if got := c.Text(c.Nodes["wake"], "en"); got != "You wake up." {
		t.Errorf("inline content: got %q", got)
	}
	if got := c.Text(c.Nodes["kitchen"], "en"); got != "The kitchen is cold." {
		t.Errorf("locale content: got %q", got)
	}
	if got := c.Text(c.Nodes["kitchen"], "fr"); got != "kitchen.text" {
		t.Errorf("missing locale should fall back to key, got %q", got)
	}
}

func TestPreviousNode(t *testing.T) {
	s := Default(testContent())
	if got := PreviousNode(s); got != "" {
		t.Errorf("expected no previous node, got %q", got)
	}

	s.VisitedNodes = []string{"wake", "kitchen"}
	if got := PreviousNode(s); got != "kitchen" {
		t.Errorf("expected fallback to last visited, got %q", got)
	}

	s.PreviousNodeID = "wake"
	if got := PreviousNode(s); got != "wake" {
		t.Errorf("expected explicit previous node, got %q", got)
	}
}

func TestSortedKeys(t *testing.T) {
	got := SortedKeys(map[string]int{"b": 1, "c": 2, "a": 3})
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
