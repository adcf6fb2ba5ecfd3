// Package dialogue keeps the per-contact message threads and unread
// counters of a PlayerState.
package dialogue

import (
	"sort"

	"github.com/nathoo/echoes/engine/state"
	"github.com/nathoo/echoes/types"
)

// Thread summarizes one contact for list views.
type Thread struct {
	Contact string
	Unread  int
	Last    *types.MessageRecord
}

// Append adds rec to contact's history, creating the thread if needed.
func Append(s *types.PlayerState, contact string, rec types.MessageRecord) {
	if s.MessageHistory == nil {
		s.MessageHistory = map[string][]types.MessageRecord{}
	}
	if s.UnreadMessages == nil {
		s.UnreadMessages = map[string]int{}
	}
	if _, ok := s.UnreadMessages[contact]; !ok {
		s.UnreadMessages[contact] = 0
	}
	s.MessageHistory[contact] = append(s.MessageHistory[contact], rec)
	if !rec.FromPlayer {
		s.UnreadMessages[contact]++
	}
}

// MarkRead zeroes contact's unread count and marks the contact's echoes
// read. It reports whether anything changed.
func MarkRead(s *types.PlayerState, contact string) bool {
	changed := false
	if s.UnreadMessages[contact] != 0 {
		s.UnreadMessages[contact] = 0
		changed = true
	}
	for i := range s.ReceivedEchoes {
		if s.ReceivedEchoes[i].Sender == contact && !s.ReceivedEchoes[i].Read {
			s.ReceivedEchoes[i].Read = true
			changed = true
		}
	}
	return changed
}

// TotalUnread sums the unread counters.
func TotalUnread(s *types.PlayerState) int {
	total := 0
	for _, n := range s.UnreadMessages {
		total += n
	}
	return total
}

// Threads lists every contact with a thread: contacts with unread messages
// first, then by name.
func Threads(s *types.PlayerState) []Thread {
	names := map[string]bool{}
	for name := range s.UnreadMessages {
		names[name] = true
	}
	for name := range s.MessageHistory {
		names[name] = true
	}

	threads := make([]Thread, 0, len(names))
	for _, name := range state.SortedKeys(names) {
		t := Thread{Contact: name, Unread: s.UnreadMessages[name]}
		if h := s.MessageHistory[name]; len(h) > 0 {
			last := h[len(h)-1]
			t.Last = &last
		}
		threads = append(threads, t)
	}
	sort.SliceStable(threads, func(i, j int) bool {
		return (threads[i].Unread > 0) && (threads[j].Unread == 0)
	})
	return threads
}
