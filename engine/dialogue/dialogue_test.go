package dialogue

import (
	"testing"
	"time"

	"github.com/nathoo/echoes/types"
)

func testState() *types.PlayerState {
	return &types.PlayerState{
		UnreadMessages: map[string]int{"Echo": 0, "Unknown": 0},
		MessageHistory: map[string][]types.MessageRecord{"Echo": {}, "Unknown": {}},
	}
}

func TestAppend_IncomingCountsUnread(t *testing.T) {
	s := testState()
	Append(s, "Echo", types.MessageRecord{ID: "1", From: "Echo", Text: "hello", Timestamp: time.Unix(1, 0)})
	Append(s, "Echo", types.MessageRecord{ID: "2", From: "Echo", Text: "again"})

	if s.UnreadMessages["Echo"] != 2 {
		t.Errorf("expected 2 unread, got %d", s.UnreadMessages["Echo"])
	}
	if len(s.MessageHistory["Echo"]) != 2 || s.MessageHistory["Echo"][1].Text != "again" {
		t.Errorf("unexpected history %v", s.MessageHistory["Echo"])
	}
}

func TestAppend_PlayerReplyNotUnread(t *testing.T) {
	s := testState()
	Append(s, "Echo", types.MessageRecord{ID: "1", From: types.PlayerContact, Text: "who is this?", FromPlayer: true})

	if s.UnreadMessages["Echo"] != 0 {
		t.Errorf("player replies must not count as unread, got %d", s.UnreadMessages["Echo"])
	}
}

func TestAppend_NewContact(t *testing.T) {
	s := &types.PlayerState{}
	Append(s, "Alex", types.MessageRecord{ID: "1", From: "Alex", Text: "hey"})

	if s.UnreadMessages["Alex"] != 1 || len(s.MessageHistory["Alex"]) != 1 {
		t.Errorf("expected new thread for Alex, got %v %v", s.UnreadMessages, s.MessageHistory)
	}
}

func TestMarkRead(t *testing.T) {
	s := testState()
	s.UnreadMessages["Echo"] = 2
	s.ReceivedEchoes = []types.EchoRecord{
		{Sender: "Echo", Content: "a"},
		{Sender: "Unknown", Content: "b"},
	}

	if !MarkRead(s, "Echo") {
		t.Fatal("expected change")
	}
	if s.UnreadMessages["Echo"] != 0 {
		t.Errorf("expected 0 unread, got %d", s.UnreadMessages["Echo"])
	}
	if !s.ReceivedEchoes[0].Read || s.ReceivedEchoes[1].Read {
		t.Errorf("only Echo's echoes should be read, got %+v", s.ReceivedEchoes)
	}
	if MarkRead(s, "Echo") {
		t.Error("second MarkRead should report no change")
	}
}

func TestThreads_UnreadFirst(t *testing.T) {
	s := testState()
	Append(s, "Unknown", types.MessageRecord{ID: "1", From: "Unknown", Text: "..."})

	threads := Threads(s)
	if len(threads) != 2 {
		t.Fatalf("expected 2 threads, got %d", len(threads))
	}
	if threads[0].Contact != "Unknown" || threads[0].Unread != 1 {
		t.Errorf("expected Unknown first, got %+v", threads[0])
	}
	if threads[0].Last == nil || threads[0].Last.Text != "..." {
		t.Errorf("expected last message, got %+v", threads[0].Last)
	}
	if threads[1].Contact != "Echo" || threads[1].Last != nil {
		t.Errorf("expected empty Echo thread second, got %+v", threads[1])
	}
	if TotalUnread(s) != 1 {
		t.Errorf("expected 1 total unread, got %d", TotalUnread(s))
	}
}
