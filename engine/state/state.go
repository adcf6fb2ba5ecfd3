// Package state holds the immutable content store and the default-state,
// deep-copy and set helpers over PlayerState.
package state

import (
	"sort"

	"github.com/nathoo/echoes/types"
)

// Score bounds for alexRelationship and selfDoubt.
const (
	ScoreMin = 1
	ScoreMax = 10
)

// Default-template values used when the game metadata leaves them unset.
const (
	DefaultAlexRelationship = 5
	DefaultSelfDoubt        = 3
	DefaultWorldTime        = "morning"
)

// DefaultContacts are the message threads every new game starts with.
var DefaultContacts = []string{"Echo", "Unknown"}

// Content is the read-only content store. It is built once by the loader
// and never mutated afterwards.
type Content struct {
	Game         types.GameDef
	Nodes        map[string]types.Node
	Keywords     map[string]types.KeywordDef
	Puzzles      map[string]types.PuzzleDef
	Echoes       map[string]types.EchoDef
	Environments map[string]types.EnvironmentDef
	Anomalies    map[string]types.AnomalyDef
	Locales      map[string]map[string]string // language tag -> key -> text
}

// Node looks up a node by id.
func (c *Content) Node(id string) (types.Node, bool) {
	n, ok := c.Nodes[id]
	return n, ok
}

// Text returns the display text of a node: inline content first, then the
// locale entry for ContentKey, then the key itself.
func (c *Content) Text(n types.Node, locale string) string {
	if n.Content != "" || n.ContentKey == "" {
		return n.Content
	}
	if table, ok := c.Locales[locale]; ok {
		if s, ok := table[n.ContentKey]; ok {
			return s
		}
	}
	return n.ContentKey
}

// Contacts returns the configured default contacts.
func (c *Content) Contacts() []string {
	if len(c.Game.Contacts) > 0 {
		return c.Game.Contacts
	}
	return DefaultContacts
}

// Default creates a fresh player state from the content's default template.
func Default(c *Content) *types.PlayerState {
	worldTime := c.Game.StartTime
	if worldTime == "" {
		worldTime = DefaultWorldTime
	}
	s := &types.PlayerState{
		CurrentNodeID:    c.Game.Start,
		VisitedNodes:     []string{},
		ActiveView:       types.ViewMonologue,
		KnownKeywords:    []string{},
		CollectedClues:   map[string][]string{},
		SolvedPuzzles:    []string{},
		CurrentLocation:  c.Game.StartLocation,
		WorldTime:        worldTime,
		DayCount:         1,
		AlexRelationship: DefaultAlexRelationship,
		SelfDoubt:        DefaultSelfDoubt,
		UnreadMessages:   map[string]int{},
		ReceivedEchoes:   []types.EchoRecord{},
		MessageHistory:   map[string][]types.MessageRecord{},
		AnomalyLog:       []types.AnomalyRecord{},
	}
	for _, contact := range c.Contacts() {
		s.UnreadMessages[contact] = 0
		s.MessageHistory[contact] = []types.MessageRecord{}
	}
	return s
}

// Clone returns a structural deep copy of s.
func Clone(s *types.PlayerState) *types.PlayerState {
	out := *s
	out.VisitedNodes = append([]string{}, s.VisitedNodes...)
	out.KnownKeywords = append([]string{}, s.KnownKeywords...)
	out.SolvedPuzzles = append([]string{}, s.SolvedPuzzles...)
	out.ReceivedEchoes = append([]types.EchoRecord{}, s.ReceivedEchoes...)
	out.AnomalyLog = append([]types.AnomalyRecord{}, s.AnomalyLog...)

	out.CollectedClues = make(map[string][]string, len(s.CollectedClues))
	for k, v := range s.CollectedClues {
		out.CollectedClues[k] = append([]string{}, v...)
	}
	out.UnreadMessages = make(map[string]int, len(s.UnreadMessages))
	for k, v := range s.UnreadMessages {
		out.UnreadMessages[k] = v
	}
	out.MessageHistory = make(map[string][]types.MessageRecord, len(s.MessageHistory))
	for k, v := range s.MessageHistory {
		out.MessageHistory[k] = append([]types.MessageRecord{}, v...)
	}
	return &out
}

// Contains reports whether id is in list.
func Contains(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

// AddUnique appends id to list unless already present. The bool reports
// whether the list changed.
func AddUnique(list []string, id string) ([]string, bool) {
	if Contains(list, id) {
		return list, false
	}
	return append(list, id), true
}

// Clamp bounds a relationship score to [ScoreMin, ScoreMax].
func Clamp(v int) int {
	if v < ScoreMin {
		return ScoreMin
	}
	if v > ScoreMax {
		return ScoreMax
	}
	return v
}

// KnowsKeyword returns true if the player has examined the keyword.
func KnowsKeyword(s *types.PlayerState, id string) bool {
	return Contains(s.KnownKeywords, id)
}

// IsSolved returns true if the puzzle has been solved.
func IsSolved(s *types.PlayerState, puzzleID string) bool {
	return Contains(s.SolvedPuzzles, puzzleID)
}

// HasAnomaly returns true if the anomaly is already in the log.
func HasAnomaly(s *types.PlayerState, id string) bool {
	for _, a := range s.AnomalyLog {
		if a.ID == id {
			return true
		}
	}
	return false
}

// PreviousNode returns the node the player most recently left. Older
// snapshots without PreviousNodeID fall back to the last visited entry.
func PreviousNode(s *types.PlayerState) string {
	if s.PreviousNodeID != "" {
		return s.PreviousNodeID
	}
	if len(s.VisitedNodes) == 0 {
		return ""
	}
	return s.VisitedNodes[len(s.VisitedNodes)-1]
}

// SortedKeys returns the keys of a string-keyed map in sorted order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
